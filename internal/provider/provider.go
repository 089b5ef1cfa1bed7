// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package provider

import (
	"context"
	"time"
)

// Generator turns a prompt into free text. Implementations wrap a hosted
// model API; the retrieval-augmented query service treats them as an opaque
// external collaborator that may be missing, slow or misconfigured.
type Generator interface {
	Name() string
	Available(ctx context.Context) bool
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	Close() error
}

// Config holds the settings shared by every hosted generator.
type Config struct {
	APIKey         string
	Endpoint       string
	Model          string
	MaxRetries     int
	HealthCooldown time.Duration
}

// Name identifies a supported generator backend.
type Name string

const (
	NameOpenAI    Name = "openai"
	NameAnthropic Name = "anthropic"
	NameGoogle    Name = "google"
	// NameLocal disables hosted generation; answers come from the local summarizer.
	NameLocal Name = "local"
)

// Known reports whether n names a supported backend. The empty name is
// treated the same as NameLocal.
func Known(n Name) bool {
	switch n {
	case "", NameLocal, NameOpenAI, NameAnthropic, NameGoogle:
		return true
	}
	return false
}

// HealthReporter is implemented by generators that track their own health.
type HealthReporter interface {
	HealthMetrics() HealthMetrics
}
