// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package openai

import (
	"context"
	stderrors "errors"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/sigil-dev/trialrag/internal/provider"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

const name = string(provider.NameOpenAI)

// DefaultModel is used when the configuration names no model.
const DefaultModel = "gpt-4.1-mini"

// Generator implements provider.Generator using the OpenAI Chat Completions API.
type Generator struct {
	client openaisdk.Client
	model  string
	health *provider.HealthTracker
}

// New creates an OpenAI generator. Returns an error if the API key is missing.
func New(cfg provider.Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ragerr.New(ragerr.CodeProviderRequestInvalid, "openai: missing api_key in config", ragerr.FieldProvider(name))
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
		return nil, ragerr.Wrapf(err, ragerr.CodeProviderRequestInvalid, "openai: creating health tracker")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Generator{
		client: openaisdk.NewClient(opts...),
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

// Generate sends prompt as a single user message and returns the text of the
// first choice.
func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	text, err := g.generate(ctx, prompt, maxTokens)
	g.health.Record(err)
	return text, err
}

func (g *Generator) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, buildParams(g.model, prompt, maxTokens))
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", ragerr.New(ragerr.CodeProviderResponseInvalid, "openai: response has no choices", ragerr.FieldProvider(name))
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ragerr.New(ragerr.CodeProviderResponseInvalid, "openai: response has no text", ragerr.FieldProvider(name))
	}
	return text, nil
}

func buildParams(model, prompt string, maxTokens int) openaisdk.ChatCompletionNewParams {
	params := openaisdk.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(prompt),
		},
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(maxTokens))
	}
	return params
}

func classify(err error) error {
	status := 0
	var apiErr *openaisdk.Error
	if stderrors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return provider.ClassifyError(name, status, err)
}
