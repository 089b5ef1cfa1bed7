// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package embedding turns text into fixed-length vectors.
package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// DefaultDimensions is the vector length used across the store.
const DefaultDimensions = 384

// Embedder maps text to a vector of Dimensions() components.
type Embedder interface {
	Name() string
	Dimensions() int
	Embed(text string) []float32
}

const (
	hexDigits  = sha256.Size * 2 // 64
	windowLen  = 8
	offsetMod  = 32
	windowSpan = float64(0xffffffff) // 16^8 - 1
)

// HashEmbedder derives a vector from the SHA-256 digest of the text.
//
// The result is deterministic and evenly spread over [-1, 1], but it is a
// placeholder: it carries no semantic information. Identical texts map to
// identical vectors; any other pair of texts, however related, lands at an
// essentially arbitrary angle.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns an embedder producing vectors of the given length.
func NewHashEmbedder(dims int) (*HashEmbedder, error) {
	if dims <= 0 {
		return nil, ragerr.Errorf(ragerr.CodeEmbeddingConfigInvalid, "embedding dimensions must be positive, got %d", dims)
	}
	return &HashEmbedder{dims: dims}, nil
}

// Default returns a HashEmbedder with DefaultDimensions.
func Default() *HashEmbedder {
	return &HashEmbedder{dims: DefaultDimensions}
}

func (e *HashEmbedder) Name() string    { return "sha256-hash" }
func (e *HashEmbedder) Dimensions() int { return e.dims }

// Embed computes the vector for text. Component i is read from the 8 hex
// digits of the digest starting at offset i mod 32, wrapping around the
// 64-digit string, and rescaled from [0, 16^8-1] to [-1, 1].
func (e *HashEmbedder) Embed(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	digest := hex.EncodeToString(sum[:])
	doubled := digest + digest

	vec := make([]float32, e.dims)
	for i := range vec {
		offset := i % offsetMod
		v, err := strconv.ParseUint(doubled[offset:offset+windowLen], 16, 64)
		if err != nil {
			// hex.EncodeToString only emits [0-9a-f].
			panic(err)
		}
		vec[i] = float32(float64(v)/windowSpan*2 - 1)
	}
	return vec
}
