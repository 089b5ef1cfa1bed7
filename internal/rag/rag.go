// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package rag answers natural-language questions from the contents of a
// vector store collection, delegating the final wording to a text generator
// when one is configured.
package rag

import (
	"context"
	"log/slog"
	"slices"

	"github.com/sigil-dev/trialrag/internal/provider"
	"github.com/sigil-dev/trialrag/internal/store"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
	"github.com/sigil-dev/trialrag/pkg/health"
)

// Fixed answers for the paths that never reach a strategy.
const (
	NoResultsAnswer = "I couldn't find any relevant documents to answer your question."
	FailureAnswer   = "I encountered an error while processing your question. Please try again."
)

// Defaults applied to QueryOptions fields left at their zero value.
const (
	DefaultTopK      = 5
	DefaultMaxTokens = 500
)

// QueryOptions describes one question against one collection.
type QueryOptions struct {
	Collection string
	Query      string
	TopK       int
	Filter     store.Filter
	// IncludeContent controls whether SourceDocuments is populated; nil means true.
	IncludeContent *bool
	MaxTokens      int
}

// Response is the outcome of Service.Query. Error is set only when Answer is
// FailureAnswer. SourceDocuments is nil, and absent from JSON, when content
// was excluded or the query failed; an empty result set gives an empty list.
type Response struct {
	Answer          string         `json:"answer"`
	SourceDocuments []store.Result `json:"source_documents,omitzero"`
	Strategy        string         `json:"strategy,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// Status describes the service for operators.
type Status struct {
	Answerer  string          `json:"answerer"`
	Generator *health.Metrics `json:"generator,omitempty"`
	Store     store.Stats     `json:"store"`
}

// Defaults overrides the package defaults for unset QueryOptions fields.
type Defaults struct {
	TopK      int
	MaxTokens int
}

// Service is the retrieval-augmented query service.
type Service struct {
	store    store.VectorStore
	answerer Answerer
	defaults Defaults
}

// New creates a Service. A nil answerer selects the local summarizer.
func New(vs store.VectorStore, answerer Answerer, defaults Defaults) *Service {
	if answerer == nil {
		answerer = LocalFallbackSummarizer{}
	}
	if defaults.TopK <= 0 {
		defaults.TopK = DefaultTopK
	}
	if defaults.MaxTokens <= 0 {
		defaults.MaxTokens = DefaultMaxTokens
	}
	return &Service{store: vs, answerer: answerer, defaults: defaults}
}

// Query retrieves the most relevant documents and turns them into an answer.
// It never returns an error: failures are reported through Response.Error
// with Answer set to FailureAnswer.
func (s *Service) Query(ctx context.Context, opts QueryOptions) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			err := ragerr.Errorf(ragerr.CodeRAGPanicRecovered, "query panicked: %v", r)
			slog.Error("rag query panicked", "collection", opts.Collection, "panic", r)
			resp = failure(err)
		}
	}()

	topK := opts.TopK
	if topK <= 0 {
		topK = s.defaults.TopK
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.defaults.MaxTokens
	}

	// Retrieval finishes, and releases the store lock, before generation starts.
	results, err := s.store.Query(ctx, opts.Collection, opts.Query, store.QueryOptions{TopK: topK, Filter: opts.Filter})
	if err != nil {
		return failure(ragerr.Wrap(err, ragerr.CodeRAGRetrievalFailure, "retrieving documents", ragerr.FieldCollection(opts.Collection)))
	}
	if len(results) == 0 {
		return Response{Answer: NoResultsAnswer, SourceDocuments: []store.Result{}}
	}

	answer, err := s.answerer.Answer(ctx, AnswerRequest{
		Query:     opts.Query,
		Prompt:    BuildPrompt(opts.Query, results),
		Results:   slices.Clone(results),
		MaxTokens: maxTokens,
	})
	if err != nil {
		return failure(err)
	}

	resp = Response{Answer: answer.Text, Strategy: answer.Strategy}
	if opts.IncludeContent == nil || *opts.IncludeContent {
		resp.SourceDocuments = results
	}
	return resp
}

// ListCollections passes through to the store.
func (s *Service) ListCollections(ctx context.Context) []string {
	return s.store.ListCollections(ctx)
}

// IngestDocuments writes docs into collection, creating the collection first
// when it does not exist yet.
func (s *Service) IngestDocuments(ctx context.Context, collection string, docs []store.NewDocument) ([]string, error) {
	if !slices.Contains(s.store.ListCollections(ctx), collection) {
		if err := s.store.CreateCollection(ctx, collection); err != nil {
			return nil, err
		}
		slog.Info("collection created", "collection", collection)
	}
	return s.store.Upsert(ctx, collection, docs)
}

// Status reports the active answer strategy, generator health and store size.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		Answerer: s.answerer.Name(),
		Store:    s.store.Stats(ctx),
	}
	if ext, ok := s.answerer.(*ExternalGenerator); ok {
		if hr, ok := ext.Generator().(provider.HealthReporter); ok {
			m := hr.HealthMetrics()
			st.Generator = &m
		}
	}
	return st
}

func failure(err error) Response {
	slog.Error("rag query failed", "error", err, "code", ragerr.CodeOf(err))
	return Response{Answer: FailureAnswer, Error: err.Error()}
}
