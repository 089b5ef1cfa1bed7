// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/sigil-dev/trialrag/internal/provider"
	"github.com/sigil-dev/trialrag/internal/store"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// Strategy names reported in Response.Strategy.
const (
	StrategyLocal = "local_summary"
)

// DefaultGenerationTimeout bounds a single call to the external generator.
const DefaultGenerationTimeout = 30 * time.Second

const (
	fallbackExcerpts   = 3
	fallbackExcerptLen = 200
	fallbackHeader     = "Based on the most relevant documents found:"
	fallbackNote       = "Note: this is a basic summary of the retrieved documents. " +
		"A detailed analysis requires the external text generation service, which is currently unavailable."
)

// AnswerRequest carries everything a strategy may need to produce an answer.
type AnswerRequest struct {
	Query     string
	Prompt    string
	Results   []store.Result
	MaxTokens int
}

// Answer is the text produced for a query and the strategy that produced it.
type Answer struct {
	Text     string
	Strategy string
}

// Answerer turns retrieved results into an answer. Results is never empty.
type Answerer interface {
	Name() string
	Answer(ctx context.Context, req AnswerRequest) (Answer, error)
}

// SelectAnswerer picks the strategy once at startup: an ExternalGenerator
// when a generator is configured, otherwise the local summarizer.
func SelectAnswerer(gen provider.Generator, timeout time.Duration) Answerer {
	if gen == nil {
		return LocalFallbackSummarizer{}
	}
	return NewExternalGenerator(gen, timeout)
}

// LocalFallbackSummarizer answers without any external service by listing
// short excerpts of the top results.
type LocalFallbackSummarizer struct{}

func (LocalFallbackSummarizer) Name() string { return StrategyLocal }

func (LocalFallbackSummarizer) Answer(_ context.Context, req AnswerRequest) (Answer, error) {
	return Answer{Text: Summarize(req.Results), Strategy: StrategyLocal}, nil
}

// Summarize renders up to three results as bullet excerpts of at most 200
// characters each, followed by a note that richer analysis needs the
// external service.
func Summarize(results []store.Result) string {
	var sb strings.Builder
	sb.WriteString(fallbackHeader)
	sb.WriteString("\n\n")
	for i, r := range results {
		if i == fallbackExcerpts {
			break
		}
		sb.WriteString("- ")
		sb.WriteString(excerpt(r.Content, fallbackExcerptLen))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(fallbackNote)
	return sb.String()
}

// excerpt returns content unchanged when it fits in limit runes. Otherwise
// it is cut to at most limit runes plus "...", moving the cut back to a
// normalization boundary so a combining mark stays with its base letter.
func excerpt(content string, limit int) string {
	if utf8.RuneCountInString(content) <= limit {
		return content
	}

	cut := 0
	for range limit {
		_, size := utf8.DecodeRuneInString(content[cut:])
		cut += size
	}
	if norm.NFC.FirstBoundaryInString(content[cut:]) != 0 {
		if b := norm.NFC.LastBoundary([]byte(content[:cut])); b > 0 {
			cut = b
		}
	}
	return content[:cut] + "..."
}

// ExternalGenerator sends the prompt to a hosted text generator and falls
// back to the local summarizer whenever the generator cannot be used: it is
// cooling down after failures, rejects the credentials, cannot be reached or
// exceeds the timeout. Any other generator error is returned.
type ExternalGenerator struct {
	gen      provider.Generator
	timeout  time.Duration
	fallback LocalFallbackSummarizer
}

// NewExternalGenerator wraps gen. A non-positive timeout selects
// DefaultGenerationTimeout.
func NewExternalGenerator(gen provider.Generator, timeout time.Duration) *ExternalGenerator {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &ExternalGenerator{gen: gen, timeout: timeout}
}

func (e *ExternalGenerator) Name() string { return e.gen.Name() }

// Generator returns the wrapped generator.
func (e *ExternalGenerator) Generator() provider.Generator { return e.gen }

func (e *ExternalGenerator) Answer(ctx context.Context, req AnswerRequest) (Answer, error) {
	if !e.gen.Available(ctx) {
		slog.Warn("text generator unavailable, using local summary", "generator", e.gen.Name())
		return e.fallback.Answer(ctx, req)
	}

	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	text, err := e.gen.Generate(genCtx, req.Prompt, req.MaxTokens)
	if err == nil {
		return Answer{Text: text, Strategy: e.gen.Name()}, nil
	}

	timedOut := ctx.Err() == nil && stderrors.Is(genCtx.Err(), context.DeadlineExceeded)
	if timedOut || provider.IsUnavailable(err) {
		slog.Warn("text generation failed, using local summary",
			"generator", e.gen.Name(),
			"timed_out", timedOut,
			"error", err,
		)
		return e.fallback.Answer(ctx, req)
	}

	return Answer{}, ragerr.Wrap(err, ragerr.CodeRAGGenerationFailure, "generating answer", ragerr.FieldProvider(e.gen.Name()))
}
