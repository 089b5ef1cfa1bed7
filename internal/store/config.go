// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

// StorageConfig controls which backend the store factory uses.
type StorageConfig struct {
	Backend     string // "memory" is the only supported backend for now.
	DefaultTopK int    // Result limit when a query names none; 0 uses DefaultTopK.
}
