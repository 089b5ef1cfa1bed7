// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

// DefaultTopK is the result limit applied when QueryOptions.TopK is not positive.
const DefaultTopK = 10

// Metadata holds scalar attributes attached to a document. Values are
// strings, numbers or booleans; anything else is stored but never matches a
// filter.
type Metadata map[string]any

// Document is a stored unit of text. Vector is derived from Content when the
// document is written and is never supplied by callers.
type Document struct {
	ID       string    `json:"id"`
	Content  string    `json:"content"`
	Metadata Metadata  `json:"metadata,omitempty"`
	Vector   []float32 `json:"-"`
}

// NewDocument is the caller-facing input to Upsert.
type NewDocument struct {
	ID       string   `json:"id" yaml:"id"`
	Content  string   `json:"content" yaml:"content"`
	Metadata Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Result is one ranked hit of a similarity query. Score is the cosine
// similarity to the query vector, in [-1, 1].
type Result struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata,omitempty"`
	Score    float64  `json:"score"`
}

// QueryOptions tunes a similarity query.
type QueryOptions struct {
	TopK   int
	Filter Filter
}

// Limit returns the effective result limit.
func (o QueryOptions) Limit() int {
	if o.TopK <= 0 {
		return DefaultTopK
	}
	return o.TopK
}

// Stats summarises store contents.
type Stats struct {
	Backend     string `json:"backend"`
	Documents   int    `json:"documents"`
	Collections int    `json:"collections"`
	Dimensions  int    `json:"dimensions"`
}
