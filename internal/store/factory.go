// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"slices"
	"sync"

	"github.com/sigil-dev/trialrag/internal/embedding"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// DefaultBackend is used when StorageConfig.Backend is empty.
const DefaultBackend = "memory"

// Factory creates a VectorStore that embeds content with embedder.
type Factory func(cfg StorageConfig, embedder embedding.Embedder) (VectorStore, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers the factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New creates a VectorStore using the configured backend.
func New(cfg StorageConfig, embedder embedding.Embedder) (VectorStore, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = DefaultBackend
	}
	if embedder == nil {
		return nil, ragerr.New(ragerr.CodeStoreInvalidInput, "store requires an embedder")
	}

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, ragerr.Errorf(ragerr.CodeStoreInvalidInput, "unsupported storage backend: %q", backend)
	}

	return factory(cfg, embedder)
}
