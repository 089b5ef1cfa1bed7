// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/sigil-dev/trialrag/internal/rag"
	"github.com/sigil-dev/trialrag/internal/store"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
	"github.com/sigil-dev/trialrag/pkg/health"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Service status",
		Tags:        []string{"system"},
	}, s.handleStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-collections",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections",
		Summary:     "List collections",
		Tags:        []string{"collections"},
	}, s.handleListCollections)

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-collection",
		Method:        http.MethodPost,
		Path:          "/api/v1/collections",
		Summary:       "Create a collection",
		Tags:          []string{"collections"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-collection",
		Method:        http.MethodDelete,
		Path:          "/api/v1/collections/{name}",
		Summary:       "Delete a collection and its documents",
		Tags:          []string{"collections"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "count-documents",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections/{name}/count",
		Summary:     "Count documents in a collection",
		Tags:        []string{"collections"},
	}, s.handleCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "upsert-documents",
		Method:      http.MethodPost,
		Path:        "/api/v1/collections/{name}/documents",
		Summary:     "Add or replace documents",
		Tags:        []string{"documents"},
	}, s.handleUpsert)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-documents",
		Method:      http.MethodDelete,
		Path:        "/api/v1/collections/{name}/documents",
		Summary:     "Delete documents from a collection",
		Tags:        []string{"documents"},
	}, s.handleDeleteDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-document",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Get a document by ID",
		Tags:        []string{"documents"},
	}, s.handleGetDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "query-collection",
		Method:      http.MethodPost,
		Path:        "/api/v1/collections/{name}/query",
		Summary:     "Similarity search within a collection",
		Tags:        []string{"query"},
	}, s.handleQueryCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "rag-query",
		Method:      http.MethodPost,
		Path:        "/api/v1/rag/query",
		Summary:     "Answer a question from a collection",
		Tags:        []string{"query"},
	}, s.handleRAGQuery)
}

// --- Request/Response types for huma ---

type collectionInput struct {
	Name string `path:"name" minLength:"1"`
}

type statusOutput struct {
	Body struct {
		Status    string          `json:"status" example:"ok"`
		Version   string          `json:"version"`
		Answerer  string          `json:"answerer" doc:"Active answer strategy"`
		Generator *health.Metrics `json:"generator,omitempty" doc:"External generator health"`
		Store     store.Stats     `json:"store"`
	}
}

type listCollectionsOutput struct {
	Body struct {
		Collections []string `json:"collections"`
	}
}

type createCollectionInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" doc:"Collection name"`
	}
}

type createCollectionOutput struct {
	Body struct {
		Name string `json:"name"`
	}
}

type countOutput struct {
	Body struct {
		Collection string `json:"collection"`
		Count      int    `json:"count"`
	}
}

// DocumentInput is one document in an upsert request. A missing ID is
// replaced with a random UUID.
type DocumentInput struct {
	ID       string         `json:"id,omitempty" doc:"Document ID; generated when empty"`
	Content  string         `json:"content" doc:"Document text"`
	Metadata store.Metadata `json:"metadata,omitempty" doc:"Scalar attributes usable in filters"`
}

type upsertInput struct {
	Name string `path:"name" minLength:"1"`
	Body struct {
		Documents []DocumentInput `json:"documents" minItems:"1"`
	}
}

type idsOutput struct {
	Body struct {
		IDs []string `json:"ids"`
	}
}

type deleteDocumentsInput struct {
	Name string `path:"name" minLength:"1"`
	Body struct {
		IDs []string `json:"ids" minItems:"1"`
	}
}

type getDocumentInput struct {
	ID string `path:"id" minLength:"1"`
}

type getDocumentOutput struct {
	Body store.Document
}

type queryCollectionInput struct {
	Name string `path:"name" minLength:"1"`
	Body struct {
		Query  string       `json:"query" doc:"Text to embed and compare"`
		TopK   int          `json:"top_k,omitempty" minimum:"0" doc:"Result limit; server default when 0"`
		Filter store.Filter `json:"filter,omitempty" doc:"Exact-match metadata filter"`
	}
}

type queryCollectionOutput struct {
	Body struct {
		Results []store.Result `json:"results"`
	}
}

type ragQueryInput struct {
	Body struct {
		Collection     string       `json:"collection" minLength:"1"`
		Query          string       `json:"query" minLength:"1"`
		TopK           int          `json:"top_k,omitempty" minimum:"0"`
		Filter         store.Filter `json:"filter,omitempty"`
		IncludeContent *bool        `json:"include_content,omitempty" doc:"Return source documents; default true"`
		MaxTokens      int          `json:"max_tokens,omitempty" minimum:"0"`
	}
}

type ragQueryOutput struct {
	Body rag.Response
}

// --- Handlers ---

func (s *Server) handleStatus(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	st := s.services.rag.Status(ctx)

	out := &statusOutput{}
	out.Body.Status = "ok"
	out.Body.Version = s.cfg.Version
	out.Body.Answerer = st.Answerer
	out.Body.Generator = st.Generator
	out.Body.Store = st.Store
	return out, nil
}

func (s *Server) handleListCollections(ctx context.Context, _ *struct{}) (*listCollectionsOutput, error) {
	out := &listCollectionsOutput{}
	out.Body.Collections = s.services.store.ListCollections(ctx)
	return out, nil
}

func (s *Server) handleCreateCollection(ctx context.Context, input *createCollectionInput) (*createCollectionOutput, error) {
	if err := s.services.store.CreateCollection(ctx, input.Body.Name); err != nil {
		return nil, apiError("creating collection", err)
	}
	out := &createCollectionOutput{}
	out.Body.Name = input.Body.Name
	return out, nil
}

func (s *Server) handleDeleteCollection(ctx context.Context, input *collectionInput) (*struct{}, error) {
	if !s.services.store.DeleteCollection(ctx, input.Name) {
		return nil, huma.Error404NotFound(fmt.Sprintf("collection %q not found", input.Name))
	}
	return &struct{}{}, nil
}

func (s *Server) handleCount(ctx context.Context, input *collectionInput) (*countOutput, error) {
	out := &countOutput{}
	out.Body.Collection = input.Name
	out.Body.Count = s.services.store.Count(ctx, input.Name)
	return out, nil
}

func (s *Server) handleUpsert(ctx context.Context, input *upsertInput) (*idsOutput, error) {
	docs := make([]store.NewDocument, len(input.Body.Documents))
	for i, d := range input.Body.Documents {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		docs[i] = store.NewDocument{ID: id, Content: d.Content, Metadata: d.Metadata}
	}

	ids, err := s.services.rag.IngestDocuments(ctx, input.Name, docs)
	if err != nil {
		return nil, apiError("upserting documents", err)
	}
	out := &idsOutput{}
	out.Body.IDs = ids
	return out, nil
}

func (s *Server) handleDeleteDocuments(ctx context.Context, input *deleteDocumentsInput) (*idsOutput, error) {
	out := &idsOutput{}
	out.Body.IDs = s.services.store.Delete(ctx, input.Name, input.Body.IDs)
	if out.Body.IDs == nil {
		out.Body.IDs = []string{}
	}
	return out, nil
}

func (s *Server) handleGetDocument(ctx context.Context, input *getDocumentInput) (*getDocumentOutput, error) {
	doc, ok := s.services.store.Get(ctx, input.ID)
	if !ok {
		return nil, huma.Error404NotFound(fmt.Sprintf("document %q not found", input.ID))
	}
	return &getDocumentOutput{Body: *doc}, nil
}

func (s *Server) handleQueryCollection(ctx context.Context, input *queryCollectionInput) (*queryCollectionOutput, error) {
	results, err := s.services.store.Query(ctx, input.Name, input.Body.Query, store.QueryOptions{
		TopK:   input.Body.TopK,
		Filter: input.Body.Filter,
	})
	if err != nil {
		return nil, apiError("querying collection", err)
	}
	out := &queryCollectionOutput{}
	out.Body.Results = results
	if out.Body.Results == nil {
		out.Body.Results = []store.Result{}
	}
	return out, nil
}

func (s *Server) handleRAGQuery(ctx context.Context, input *ragQueryInput) (*ragQueryOutput, error) {
	resp := s.services.rag.Query(ctx, rag.QueryOptions{
		Collection:     input.Body.Collection,
		Query:          input.Body.Query,
		TopK:           input.Body.TopK,
		Filter:         input.Body.Filter,
		IncludeContent: input.Body.IncludeContent,
		MaxTokens:      input.Body.MaxTokens,
	})
	return &ragQueryOutput{Body: resp}, nil
}

// apiError maps a coded error onto the matching HTTP status.
func apiError(op string, err error) error {
	status := ragerr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error(op+" failed", "error", err, "code", ragerr.CodeOf(err))
		return huma.NewError(status, op+" failed", err)
	}
	return huma.NewError(status, err.Error())
}
