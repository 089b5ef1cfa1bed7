// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package anthropic

import (
	"context"
	stderrors "errors"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sigil-dev/trialrag/internal/provider"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

const name = string(provider.NameAnthropic)

const (
	// DefaultModel is used when the configuration names no model.
	DefaultModel = "claude-sonnet-4-5"
	// The Messages API requires max_tokens on every request.
	defaultMaxTokens = 1024
)

// Generator implements provider.Generator using the Anthropic Messages API.
type Generator struct {
	client anthropicsdk.Client
	model  string
	health *provider.HealthTracker
}

// New creates an Anthropic generator. Returns an error if the API key is missing.
func New(cfg provider.Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ragerr.New(ragerr.CodeProviderRequestInvalid, "anthropic: missing api_key in config", ragerr.FieldProvider(name))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	health, err := provider.NewHealthTracker(name, cfg.HealthCooldown)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeProviderRequestInvalid, "anthropic: creating health tracker")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Generator{
		client: anthropicsdk.NewClient(opts...),
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
	msg, err := g.client.Messages.New(ctx, buildParams(g.model, prompt, maxTokens))
	if err != nil {
		return "", classify(err)
	}

	text := strings.TrimSpace(collectText(msg.Content))
	if text == "" {
		return "", ragerr.New(ragerr.CodeProviderResponseInvalid, "anthropic: response has no text blocks", ragerr.FieldProvider(name))
	}
	return text, nil
}

func buildParams(model, prompt string, maxTokens int) anthropicsdk.MessageNewParams {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
	}
}

// collectText concatenates the text blocks of a response, skipping any
// other block types.
func collectText(blocks []anthropicsdk.ContentBlockUnion) string {
	var sb strings.Builder
	for _, block := range blocks {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

func classify(err error) error {
	status := 0
	var apiErr *anthropicsdk.Error
	if stderrors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return provider.ClassifyError(name, status, err)
}
