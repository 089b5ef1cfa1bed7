// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package google_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sigil-dev/trialrag/internal/provider"
	"github.com/sigil-dev/trialrag/internal/provider/google"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var (
	_ provider.Generator      = (*google.Generator)(nil)
	_ provider.HealthReporter = (*google.Generator)(nil)
)

func TestGoogleGenerator_MissingAPIKey(t *testing.T) {
	_, err := google.New(context.Background(), provider.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
	assert.True(t, ragerr.HasCode(err, ragerr.CodeProviderRequestInvalid))
}

func TestBuildConfig(t *testing.T) {
	assert.Equal(t, int32(500), google.BuildConfig(500).MaxOutputTokens)
	assert.Zero(t, google.BuildConfig(0).MaxOutputTokens)
}

func TestCollectText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{name: "nil response", resp: nil, want: ""},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, want: ""},
		{
			name: "skips thought parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "thinking...", Thought: true},
					{Text: "Aspirin "},
					{Text: "reduces fever."},
				}},
			}}},
			want: "Aspirin reduces fever.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, google.CollectText(tt.resp))
		})
	}
}

func TestGoogleGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.5-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "Aspirin reduces fever."}]}}]}`))
	}))
	defer srv.Close()

	g, err := google.New(context.Background(), provider.Config{APIKey: "test-key", Endpoint: srv.URL})
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), "prompt", 100)
	require.NoError(t, err)
	assert.Equal(t, "Aspirin reduces fever.", text)
	assert.Equal(t, "google", g.Name())
	assert.True(t, g.Available(context.Background()))
}

func TestGoogleGenerator_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	g, err := google.New(context.Background(), provider.Config{APIKey: "test-key", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt", 100)
	require.Error(t, err)
	assert.True(t, provider.IsUnavailable(err), "got %v", err)
	assert.Equal(t, int64(1), g.HealthMetrics().FailureCount)
}
