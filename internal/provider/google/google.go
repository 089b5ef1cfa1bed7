// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package google

import (
	"context"
	stderrors "errors"
	"strings"

	"google.golang.org/genai"

	"github.com/sigil-dev/trialrag/internal/provider"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

const name = string(provider.NameGoogle)

// DefaultModel is used when the configuration names no model.
const DefaultModel = "gemini-2.5-flash"

// Generator implements provider.Generator using the Gemini API.
type Generator struct {
	client *genai.Client
	model  string
	health *provider.HealthTracker
}

// New creates a Gemini generator. Returns an error if the API key is missing.
func New(ctx context.Context, cfg provider.Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ragerr.New(ragerr.CodeProviderRequestInvalid, "google: missing api_key in config", ragerr.FieldProvider(name))
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeProviderRequestInvalid, "google: creating client")
	}

	health, err := provider.NewHealthTracker(name, cfg.HealthCooldown)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeProviderRequestInvalid, "google: creating health tracker")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Generator{
		client: client,
		model:  model,
		health: health,
	}, nil
}

func (g *Generator) Name() string { return name }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

func (g *Generator) HealthMetrics() provider.HealthMetrics {
	return g.health.HealthMetrics()
}

func (g *Generator) Close() error { return nil }

func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	text, err := g.generate(ctx, prompt, maxTokens)
	g.health.Record(err)
	return text, err
}

func (g *Generator) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, buildContents(prompt), buildConfig(maxTokens))
	if err != nil {
		return "", classify(err)
	}

	text := strings.TrimSpace(collectText(resp))
	if text == "" {
		return "", ragerr.New(ragerr.CodeProviderResponseInvalid, "google: response has no text parts", ragerr.FieldProvider(name))
	}
	return text, nil
}

func buildContents(prompt string) []*genai.Content {
	return []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
}

func buildConfig(maxTokens int) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	return cfg
}

// collectText reads the first candidate only; Gemini returns one unless
// candidateCount is raised.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func classify(err error) error {
	status := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case stderrors.As(err, &apiErr):
		status = apiErr.Code
	case stderrors.As(err, &apiErrPtr):
		status = apiErrPtr.Code
	}
	return provider.ClassifyError(name, status, err)
}
