// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sigil-dev/trialrag/internal/embedding"
	"github.com/sigil-dev/trialrag/internal/provider"
	"github.com/sigil-dev/trialrag/internal/rag"
	"github.com/sigil-dev/trialrag/internal/store"
	"github.com/sigil-dev/trialrag/internal/store/memory"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator records the last call and returns a canned outcome.
type fakeGenerator struct {
	mu          sync.Mutex
	unavailable bool
	text        string
	err         error
	block       bool
	prompt      string
	maxTokens   int
	calls       int
	health      *provider.HealthTracker
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Available(context.Context) bool { return !f.unavailable }

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.mu.Lock()
	f.prompt, f.maxTokens = prompt, maxTokens
	f.calls++
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", provider.ClassifyError("fake", 0, ctx.Err())
	}
	return f.text, f.err
}

func (f *fakeGenerator) Close() error { return nil }

func (f *fakeGenerator) HealthMetrics() provider.HealthMetrics {
	return f.health.HealthMetrics()
}

type panickingAnswerer struct{}

func (panickingAnswerer) Name() string { return "panic" }
func (panickingAnswerer) Answer(context.Context, rag.AnswerRequest) (rag.Answer, error) {
	panic("boom")
}

func seededStore(t *testing.T) store.VectorStore {
	t.Helper()
	vs := memory.NewVectorStore(embedding.Default(), 0)
	_, err := vs.Upsert(context.Background(), "med", []store.NewDocument{
		{ID: "d1", Content: "aspirin reduces fever", Metadata: store.Metadata{"drug": "aspirin"}},
		{ID: "d2", Content: "ibuprofen reduces inflammation", Metadata: store.Metadata{"drug": "ibuprofen"}},
	})
	require.NoError(t, err)
	return vs
}

func TestQuery_NoResults(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore(embedding.Default(), 0)
	require.NoError(t, vs.CreateCollection(ctx, "empty"))
	gen := &fakeGenerator{text: "should not be called"}
	svc := rag.New(vs, rag.NewExternalGenerator(gen, time.Second), rag.Defaults{})

	for _, collection := range []string{"empty", "unknown"} {
		resp := svc.Query(ctx, rag.QueryOptions{Collection: collection, Query: "anything"})
		assert.Equal(t, rag.NoResultsAnswer, resp.Answer)
		assert.NotNil(t, resp.SourceDocuments)
		assert.Empty(t, resp.SourceDocuments)
		assert.Empty(t, resp.Error)
	}
	assert.Zero(t, gen.calls)
}

func TestQuery_EndToEndWithLocalSummary(t *testing.T) {
	svc := rag.New(seededStore(t), nil, rag.Defaults{})

	resp := svc.Query(context.Background(), rag.QueryOptions{Collection: "med", Query: "aspirin reduces fever", TopK: 1})

	require.Len(t, resp.SourceDocuments, 1)
	assert.Equal(t, "d1", resp.SourceDocuments[0].ID)
	assert.InDelta(t, 1.0, resp.SourceDocuments[0].Score, 1e-6)
	assert.Equal(t, rag.StrategyLocal, resp.Strategy)
	assert.Contains(t, resp.Answer, "- aspirin reduces fever")
	assert.Empty(t, resp.Error)
}

func TestQuery_ExternalGenerator(t *testing.T) {
	gen := &fakeGenerator{text: "Aspirin reduces fever [Document 1]."}
	svc := rag.New(seededStore(t), rag.NewExternalGenerator(gen, time.Second), rag.Defaults{})

	resp := svc.Query(context.Background(), rag.QueryOptions{Collection: "med", Query: "aspirin reduces fever"})

	assert.Equal(t, "Aspirin reduces fever [Document 1].", resp.Answer)
	assert.Equal(t, "fake", resp.Strategy)
	assert.Len(t, resp.SourceDocuments, 2)
	assert.Equal(t, rag.DefaultMaxTokens, gen.maxTokens)

	assert.Contains(t, gen.prompt, "Context:\n[Document 1] (relevance: 1.00)\naspirin reduces fever\n\n[Document 2]")
	assert.Contains(t, gen.prompt, "Question: aspirin reduces fever")
	assert.True(t, strings.HasSuffix(gen.prompt, "Answer:"))
}

func TestQuery_ExcludeContent(t *testing.T) {
	svc := rag.New(seededStore(t), nil, rag.Defaults{})
	include := false

	resp := svc.Query(context.Background(), rag.QueryOptions{Collection: "med", Query: "q", IncludeContent: &include})
	assert.NotEqual(t, rag.NoResultsAnswer, resp.Answer)
	assert.Nil(t, resp.SourceDocuments)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "source_documents")
}

func TestQuery_NoResultsEncodesEmptyList(t *testing.T) {
	svc := rag.New(memory.NewVectorStore(embedding.Default(), 0), nil, rag.Defaults{})

	raw, err := json.Marshal(svc.Query(context.Background(), rag.QueryOptions{Collection: "none", Query: "q"}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"source_documents":[]`)
}

func TestQuery_FilterAndOptions(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	svc := rag.New(seededStore(t), rag.NewExternalGenerator(gen, time.Second), rag.Defaults{})

	resp := svc.Query(context.Background(), rag.QueryOptions{
		Collection: "med",
		Query:      "what reduces inflammation?",
		Filter:     store.Filter{"drug": "ibuprofen"},
		MaxTokens:  42,
	})
	require.Len(t, resp.SourceDocuments, 1)
	assert.Equal(t, "d2", resp.SourceDocuments[0].ID)
	assert.Equal(t, 42, gen.maxTokens)
	assert.NotContains(t, gen.prompt, "aspirin")
}

func TestQuery_FallsBackWhenGeneratorUnusable(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "cooling down", gen: &fakeGenerator{unavailable: true}},
		{name: "credentials rejected", gen: &fakeGenerator{err: ragerr.New(ragerr.CodeProviderUpstreamUnavailable, "401")}},
		{name: "upstream timeout", gen: &fakeGenerator{err: ragerr.New(ragerr.CodeProviderUpstreamTimeout, "slow")}},
		{name: "local timeout fires", gen: &fakeGenerator{block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := rag.New(seededStore(t), rag.NewExternalGenerator(tt.gen, 20*time.Millisecond), rag.Defaults{})

			resp := svc.Query(context.Background(), rag.QueryOptions{Collection: "med", Query: "aspirin reduces fever"})
			assert.Equal(t, rag.StrategyLocal, resp.Strategy)
			assert.True(t, strings.HasPrefix(resp.Answer, "Based on the most relevant documents found:"), resp.Answer)
			assert.Contains(t, resp.Answer, "external text generation service")
			assert.Empty(t, resp.Error)
			assert.Len(t, resp.SourceDocuments, 2)
		})
	}
}

func TestQuery_GeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: ragerr.New(ragerr.CodeProviderUpstreamFailure, "model overloaded")}
	svc := rag.New(seededStore(t), rag.NewExternalGenerator(gen, time.Second), rag.Defaults{})

	resp := svc.Query(context.Background(), rag.QueryOptions{Collection: "med", Query: "q"})
	assert.Equal(t, rag.FailureAnswer, resp.Answer)
	assert.Contains(t, resp.Error, "model overloaded")
	assert.Empty(t, resp.SourceDocuments)
}

func TestQuery_RetrievalFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := rag.New(seededStore(t), nil, rag.Defaults{})

	resp := svc.Query(ctx, rag.QueryOptions{Collection: "med", Query: "q"})
	assert.Equal(t, rag.FailureAnswer, resp.Answer)
	assert.Contains(t, resp.Error, "canceled")
}

func TestQuery_RecoversFromPanic(t *testing.T) {
	svc := rag.New(seededStore(t), panickingAnswerer{}, rag.Defaults{})

	var resp rag.Response
	require.NotPanics(t, func() {
		resp = svc.Query(context.Background(), rag.QueryOptions{Collection: "med", Query: "q"})
	})
	assert.Equal(t, rag.FailureAnswer, resp.Answer)
	assert.Contains(t, resp.Error, "boom")
}

func TestQuery_DefaultTopK(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore(embedding.Default(), 0)
	docs := make([]store.NewDocument, 8)
	for i := range docs {
		docs[i] = store.NewDocument{ID: string(rune('a' + i)), Content: strings.Repeat("x", i+1)}
	}
	_, err := vs.Upsert(ctx, "c", docs)
	require.NoError(t, err)

	resp := rag.New(vs, nil, rag.Defaults{}).Query(ctx, rag.QueryOptions{Collection: "c", Query: "q"})
	assert.Len(t, resp.SourceDocuments, rag.DefaultTopK)

	resp = rag.New(vs, nil, rag.Defaults{TopK: 2}).Query(ctx, rag.QueryOptions{Collection: "c", Query: "q"})
	assert.Len(t, resp.SourceDocuments, 2)
}

func TestIngestDocuments(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore(embedding.Default(), 0)
	svc := rag.New(vs, nil, rag.Defaults{})

	ids, err := svc.IngestDocuments(ctx, "protocols", []store.NewDocument{
		{ID: "p1", Content: "Inclusion: adults aged 18 to 65"},
		{ID: "p2", Content: "Exclusion: pregnancy"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
	assert.Equal(t, []string{"protocols"}, svc.ListCollections(ctx))
	assert.Equal(t, 2, vs.Count(ctx, "protocols"))

	_, err = svc.IngestDocuments(ctx, "", []store.NewDocument{{ID: "x", Content: "x"}})
	require.Error(t, err)
	assert.True(t, ragerr.IsInvalidInput(err))
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	tracker, err := provider.NewHealthTracker("fake", time.Minute)
	require.NoError(t, err)
	tracker.RecordFailure()

	svc := rag.New(seededStore(t), rag.NewExternalGenerator(&fakeGenerator{health: tracker}, 0), rag.Defaults{})
	st := svc.Status(ctx)
	assert.Equal(t, "fake", st.Answerer)
	require.NotNil(t, st.Generator)
	assert.Equal(t, int64(1), st.Generator.FailureCount)
	assert.Equal(t, 2, st.Store.Documents)

	local := rag.New(seededStore(t), nil, rag.Defaults{}).Status(ctx)
	assert.Equal(t, rag.StrategyLocal, local.Answerer)
	assert.Nil(t, local.Generator)
}
