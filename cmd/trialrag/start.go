// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sigil-dev/trialrag/internal/config"
	"github.com/sigil-dev/trialrag/internal/secrets"
	"github.com/sigil-dev/trialrag/internal/store"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

func newStartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "start",
		Short:       "Start the trialrag server",
		Long:        "Load configuration, wire the store and answer strategy, and serve the HTTP API until interrupted.",
		Annotations: map[string]string{annotationBootstrap: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStart(cmd)
		},
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	cmd.Flags().String("seed", "", "YAML or JSON document file to ingest at startup")
	cmd.Flags().String("seed-collection", "trials", "collection the seed documents go into")
	_ = a.v.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func (a *app) runStart(cmd *cobra.Command) error {
	if unresolved := secrets.ResolveViper(a.v, secrets.NewKeyringStore()); len(unresolved) > 0 {
		slog.Warn("some keyring references could not be resolved", "keys", unresolved)
	}
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}

	seedPath, _ := cmd.Flags().GetString("seed")
	seedCollection, _ := cmd.Flags().GetString("seed-collection")
	var seed []store.NewDocument
	if seedPath != "" {
		if seed, err = loadDocuments(seedPath, cmd.InOrStdin()); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			slog.Info("received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	svc, err := WireService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Warn("closing service", "error", err)
		}
	}()

	_, _ = cmd.OutOrStdout().Write([]byte("Starting trialrag on " + cfg.Server.Listen + "\n"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Server.Start(ctx)
	})
	if len(seed) > 0 {
		g.Go(func() error {
			ids, err := svc.RAG.IngestDocuments(ctx, seedCollection, withIDs(seed))
			if err != nil {
				return ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "seeding %s", seedCollection)
			}
			slog.Info("seed documents ingested", "collection", seedCollection, "count", len(ids))
			return nil
		})
	}
	return g.Wait()
}
