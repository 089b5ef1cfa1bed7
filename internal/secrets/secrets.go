// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package secrets stores provider credentials outside the config file and
// resolves keyring:// references found in configuration.
package secrets

// DefaultService is the keyring service the CLI stores provider keys under.
const DefaultService = "trialrag"

// Store provides secret storage keyed by service and name.
type Store interface {
	Store(service, key, value string) error
	// Retrieve returns a CodeSecretNotFound error when the key is absent.
	Retrieve(service, key string) (string, error)
	Delete(service, key string) error
	List(service string) ([]string, error)
}
