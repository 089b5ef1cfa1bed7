// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"context"

	"github.com/sigil-dev/trialrag/internal/rag"
	"github.com/sigil-dev/trialrag/internal/store"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// QueryService is the part of rag.Service the routes depend on.
type QueryService interface {
	Query(ctx context.Context, opts rag.QueryOptions) rag.Response
	IngestDocuments(ctx context.Context, collection string, docs []store.NewDocument) ([]string, error)
	Status(ctx context.Context) rag.Status
}

// Services holds the dependencies injected into route handlers.
type Services struct {
	store store.VectorStore
	rag   QueryService
}

// NewServices validates that every dependency is present.
func NewServices(vs store.VectorStore, qs QueryService) (*Services, error) {
	if vs == nil {
		return nil, ragerr.New(ragerr.CodeServerConfigInvalid, "vector store is required")
	}
	if qs == nil {
		return nil, ragerr.New(ragerr.CodeServerConfigInvalid, "query service is required")
	}
	return &Services{store: vs, rag: qs}, nil
}

func (s *Services) Store() store.VectorStore { return s.store }
func (s *Services) RAG() QueryService        { return s.rag }
