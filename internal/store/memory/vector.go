// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package memory provides an in-process VectorStore that keeps every
// document and embedding in memory and answers queries by exact
// brute-force cosine ranking.
package memory

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/sigil-dev/trialrag/internal/embedding"
	"github.com/sigil-dev/trialrag/internal/store"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// Backend is the name this package registers with the store factory.
const Backend = "memory"

func init() {
	store.RegisterBackend(Backend, func(cfg store.StorageConfig, embedder embedding.Embedder) (store.VectorStore, error) {
		return NewVectorStore(embedder, cfg.DefaultTopK), nil
	})
}

// Compile-time interface check.
var _ store.VectorStore = (*VectorStore)(nil)

type entry struct {
	doc store.Document
	// seq is assigned on first insert and breaks score ties.
	seq uint64
	// in is the set of collections that list this document.
	in map[string]struct{}
}

// VectorStore implements store.VectorStore in memory.
//
// A single RWMutex guards the document map, the membership sets and the
// sequence counter. Mutations take the write lock; reads take the read lock.
// Embedding happens before any lock is taken.
type VectorStore struct {
	embedder    embedding.Embedder
	defaultTopK int

	mu          sync.RWMutex
	docs        map[string]*entry
	collections map[string]map[string]struct{}
	nextSeq     uint64
}

// NewVectorStore creates an empty store. A non-positive defaultTopK selects
// store.DefaultTopK.
func NewVectorStore(embedder embedding.Embedder, defaultTopK int) *VectorStore {
	if defaultTopK <= 0 {
		defaultTopK = store.DefaultTopK
	}
	return &VectorStore{
		embedder:    embedder,
		defaultTopK: defaultTopK,
		docs:        make(map[string]*entry),
		collections: make(map[string]map[string]struct{}),
	}
}

func (v *VectorStore) CreateCollection(_ context.Context, name string) error {
	if name == "" {
		return ragerr.New(ragerr.CodeStoreCollectionInvalidInput, "collection name must not be empty")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.ensureCollectionLocked(name)
	return nil
}

func (v *VectorStore) DeleteCollection(_ context.Context, name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	members, ok := v.collections[name]
	if !ok {
		return false
	}
	n := len(members)
	for id := range members {
		v.removeDocumentLocked(id)
	}
	delete(v.collections, name)

	slog.Debug("collection deleted", "collection", name, "documents", n)
	return true
}

func (v *VectorStore) ListCollections(_ context.Context) []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Sorted(maps.Keys(v.collections))
}

// Upsert writes docs into collection. Documents without an ID are skipped and
// reported in the returned error; the rest of the batch is still written.
func (v *VectorStore) Upsert(_ context.Context, collection string, docs []store.NewDocument) ([]string, error) {
	if collection == "" {
		return nil, ragerr.New(ragerr.CodeStoreCollectionInvalidInput, "collection name must not be empty")
	}

	vectors := make([][]float32, len(docs))
	var skipped []int
	for i, d := range docs {
		if d.ID == "" {
			skipped = append(skipped, i)
			continue
		}
		vectors[i] = v.embedder.Embed(d.Content)
	}

	written := make([]string, 0, len(docs)-len(skipped))

	v.mu.Lock()
	members := v.ensureCollectionLocked(collection)
	for i, d := range docs {
		if vectors[i] == nil {
			continue
		}
		e, exists := v.docs[d.ID]
		if !exists {
			v.nextSeq++
			e = &entry{seq: v.nextSeq, in: make(map[string]struct{})}
			v.docs[d.ID] = e
		}
		e.doc = store.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: maps.Clone(d.Metadata),
			Vector:   vectors[i],
		}
		e.in[collection] = struct{}{}
		members[d.ID] = struct{}{}
		written = append(written, d.ID)
	}
	v.mu.Unlock()

	slog.Debug("documents upserted", "collection", collection, "written", len(written), "skipped", len(skipped))

	if len(skipped) > 0 {
		return written, ragerr.New(ragerr.CodeStoreDocumentUpsertInvalid,
			"documents without an id were not written",
			ragerr.FieldCollection(collection),
			ragerr.Field("positions", skipped),
		)
	}
	return written, nil
}

func (v *VectorStore) Delete(_ context.Context, collection string, ids []string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	members, ok := v.collections[collection]
	if !ok {
		return []string{}
	}

	removed := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := members[id]; !ok {
			continue
		}
		v.removeDocumentLocked(id)
		removed = append(removed, id)
	}
	return removed
}

func (v *VectorStore) Query(ctx context.Context, collection, text string, opts store.QueryOptions) ([]store.Result, error) {
	return v.QueryVector(ctx, collection, v.embedder.Embed(text), opts)
}

// QueryVector ranks the members of collection that pass opts.Filter by cosine
// similarity to vector. Equal scores keep insertion order.
func (v *VectorStore) QueryVector(ctx context.Context, collection string, vector []float32, opts store.QueryOptions) ([]store.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeStoreQueryCanceled, "query canceled", ragerr.FieldCollection(collection))
	}
	if dims := v.embedder.Dimensions(); len(vector) != dims {
		return nil, ragerr.New(ragerr.CodeStoreQueryDimensionMismatch, "query vector has the wrong dimension",
			ragerr.FieldCollection(collection),
			ragerr.Field("got", len(vector)),
			ragerr.Field("want", dims),
		)
	}

	limit := opts.TopK
	if limit <= 0 {
		limit = v.defaultTopK
	}

	type candidate struct {
		e     *entry
		score float64
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	members := v.collections[collection]
	candidates := make([]candidate, 0, len(members))
	for id := range members {
		e := v.docs[id]
		if e == nil || !opts.Filter.Matches(e.doc.Metadata) {
			continue
		}
		candidates = append(candidates, candidate{e: e, score: store.CosineSimilarity(vector, e.doc.Vector)})
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.e.seq, b.e.seq)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]store.Result, len(candidates))
	for i, c := range candidates {
		results[i] = store.Result{
			ID:       c.e.doc.ID,
			Content:  c.e.doc.Content,
			Metadata: maps.Clone(c.e.doc.Metadata),
			Score:    c.score,
		}
	}
	return results, nil
}

// Get returns a copy of the document with the given ID.
func (v *VectorStore) Get(_ context.Context, id string) (*store.Document, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	e, ok := v.docs[id]
	if !ok {
		return nil, false
	}
	doc := e.doc
	doc.Metadata = maps.Clone(e.doc.Metadata)
	doc.Vector = slices.Clone(e.doc.Vector)
	return &doc, true
}

func (v *VectorStore) Count(_ context.Context, collection string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.collections[collection])
}

func (v *VectorStore) Stats(_ context.Context) store.Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return store.Stats{
		Backend:     Backend,
		Documents:   len(v.docs),
		Collections: len(v.collections),
		Dimensions:  v.embedder.Dimensions(),
	}
}

// Close drops all contents. The store remains usable afterwards.
func (v *VectorStore) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	clear(v.docs)
	clear(v.collections)
	return nil
}

func (v *VectorStore) ensureCollectionLocked(name string) map[string]struct{} {
	members, ok := v.collections[name]
	if !ok {
		members = make(map[string]struct{})
		v.collections[name] = members
	}
	return members
}

// removeDocumentLocked deletes id from the store and from every collection
// that lists it. The caller MUST hold v.mu.
func (v *VectorStore) removeDocumentLocked(id string) {
	e, ok := v.docs[id]
	if !ok {
		return
	}
	for name := range e.in {
		delete(v.collections[name], id)
	}
	delete(v.docs, id)
}
