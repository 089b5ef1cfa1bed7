// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"context"
	"math"
)

// VectorStore owns documents, their embeddings and the named collections
// that group them.
//
// Document IDs are global: a document written through one collection can be
// added to another by upserting the same ID there, and an overwrite keeps
// every membership it already had. Lookups of unknown collections or IDs
// report absence (false, 0 or an empty slice) rather than an error.
type VectorStore interface {
	// CreateCollection registers name. Creating an existing collection is a no-op.
	CreateCollection(ctx context.Context, name string) error
	// DeleteCollection removes the collection and deletes every member document
	// from the store. It returns false if the collection did not exist.
	DeleteCollection(ctx context.Context, name string) bool
	ListCollections(ctx context.Context) []string

	// Upsert embeds and writes docs into collection, creating it if needed,
	// and returns the IDs written in input order.
	Upsert(ctx context.Context, collection string, docs []NewDocument) ([]string, error)
	// Delete removes the given members of collection from the store and
	// returns the IDs actually removed. IDs that are not members are skipped.
	Delete(ctx context.Context, collection string, ids []string) []string

	Query(ctx context.Context, collection, text string, opts QueryOptions) ([]Result, error)
	QueryVector(ctx context.Context, collection string, vector []float32, opts QueryOptions) ([]Result, error)

	Get(ctx context.Context, id string) (*Document, bool)
	Count(ctx context.Context, collection string) int
	Stats(ctx context.Context) Stats
	Close() error
}

// CosineSimilarity returns dot(a, b) / (|a| |b|). It returns 0 when either
// vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
