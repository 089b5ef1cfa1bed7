// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sigil-dev/trialrag/internal/config"
	"github.com/sigil-dev/trialrag/internal/embedding"
	"github.com/sigil-dev/trialrag/internal/provider"
	anthropicprov "github.com/sigil-dev/trialrag/internal/provider/anthropic"
	googleprov "github.com/sigil-dev/trialrag/internal/provider/google"
	openaiprov "github.com/sigil-dev/trialrag/internal/provider/openai"
	"github.com/sigil-dev/trialrag/internal/rag"
	"github.com/sigil-dev/trialrag/internal/secrets"
	"github.com/sigil-dev/trialrag/internal/server"
	"github.com/sigil-dev/trialrag/internal/store"
	_ "github.com/sigil-dev/trialrag/internal/store/memory" // register memory backend
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// Service holds the wired subsystems and manages their lifecycle.
type Service struct {
	Server    *server.Server
	Store     store.VectorStore
	RAG       *rag.Service
	generator provider.Generator
}

// WireService builds the store, answer strategy and HTTP server from cfg.
func WireService(ctx context.Context, cfg *config.Config) (*Service, error) {
	embedder, err := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "creating embedder")
	}

	vs, err := store.New(store.StorageConfig{
		Backend:     cfg.Store.Backend,
		DefaultTopK: cfg.Store.DefaultTopK,
	}, embedder)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "creating vector store")
	}

	gen := newGenerator(ctx, cfg)
	svc := rag.New(vs, rag.SelectAnswerer(gen, cfg.Generation.Timeout), rag.Defaults{
		TopK:      cfg.RAG.TopK,
		MaxTokens: cfg.RAG.MaxTokens,
	})

	services, err := server.NewServices(vs, svc)
	if err != nil {
		return nil, closeAll(err, vs, gen)
	}
	srv, err := server.New(server.Config{
		ListenAddr:   cfg.Server.Listen,
		CORSOrigins:  cfg.Server.CORSOrigins,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Version:      version,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
			MaxVisitors:       cfg.Server.RateLimit.MaxVisitors,
		},
	})
	if err != nil {
		return nil, closeAll(ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "creating server"), vs, gen)
	}
	srv.RegisterServices(services)

	slog.Info("service wired",
		"store", cfg.Store.Backend,
		"embedder", embedder.Name(),
		"dimensions", embedder.Dimensions(),
		"answerer", svc.Status(ctx).Answerer,
	)
	return &Service{Server: srv, Store: vs, RAG: svc, generator: gen}, nil
}

// Close releases the generator and the store.
func (s *Service) Close() error {
	return closeAll(nil, s.Store, s.generator)
}

// newGenerator returns the configured hosted generator, or nil when none is
// configured or it cannot be built. A nil generator selects the local
// summarizer, so misconfiguration degrades answers instead of failing startup.
func newGenerator(ctx context.Context, cfg *config.Config) provider.Generator {
	name := provider.Name(cfg.Generation.Provider)
	if name == "" || name == provider.NameLocal {
		return nil
	}

	pc := cfg.Provider(string(name))
	if secrets.IsKeyringURI(pc.APIKey) {
		slog.Warn("generator api key is an unresolved keyring reference, using local summarizer",
			"provider", name)
		return nil
	}

	gcfg := provider.Config{
		APIKey:         pc.APIKey,
		Endpoint:       pc.Endpoint,
		Model:          cfg.Generation.Model,
		MaxRetries:     cfg.Generation.MaxRetries,
		HealthCooldown: cfg.Generation.HealthCooldown,
	}

	var (
		gen provider.Generator
		err error
	)
	switch name {
	case provider.NameOpenAI:
		gen, err = openaiprov.New(gcfg)
	case provider.NameAnthropic:
		gen, err = anthropicprov.New(gcfg)
	case provider.NameGoogle:
		gen, err = googleprov.New(ctx, gcfg)
	default:
		err = ragerr.Errorf(ragerr.CodeProviderNotFound, "unknown generation provider %q", name)
	}
	if err != nil {
		slog.Warn("generator unavailable, using local summarizer", "provider", name, "error", err)
		return nil
	}
	return gen
}

func closeAll(err error, vs store.VectorStore, gen provider.Generator) error {
	errs := []error{err}
	if gen != nil {
		errs = append(errs, gen.Close())
	}
	if vs != nil {
		errs = append(errs, vs.Close())
	}
	return errors.Join(errs...)
}
