// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/trialrag/internal/secrets"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// mockSecretStore is an in-memory secrets.Store keyed by service/key.
type mockSecretStore struct {
	data map[string]string
}

func useMockSecrets(t *testing.T, keys ...string) *mockSecretStore {
	t.Helper()
	m := &mockSecretStore{data: make(map[string]string)}
	for _, k := range keys {
		m.data[secrets.DefaultService+"/"+k] = "redacted"
	}
	orig := secretStoreFactory
	secretStoreFactory = func() secrets.Store { return m }
	t.Cleanup(func() { secretStoreFactory = orig })
	return m
}

func (m *mockSecretStore) Store(service, key, value string) error {
	m.data[service+"/"+key] = value
	return nil
}

func (m *mockSecretStore) Retrieve(service, key string) (string, error) {
	v, ok := m.data[service+"/"+key]
	if !ok {
		return "", ragerr.Errorf(ragerr.CodeSecretNotFound, "not found")
	}
	return v, nil
}

func (m *mockSecretStore) Delete(service, key string) error {
	if _, ok := m.data[service+"/"+key]; !ok {
		return ragerr.Errorf(ragerr.CodeSecretNotFound, "not found")
	}
	delete(m.data, service+"/"+key)
	return nil
}

func (m *mockSecretStore) List(service string) ([]string, error) {
	var keys []string
	for k := range m.data {
		if name, ok := strings.CutPrefix(k, service+"/"); ok {
			keys = append(keys, name)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func TestSecretList(t *testing.T) {
	useMockSecrets(t)
	out, err := execute(t, "", "secret", "list")
	require.NoError(t, err)
	assert.Equal(t, "No secrets stored.\n", out)

	useMockSecrets(t, "openai", "anthropic")
	out, err = execute(t, "", "secret", "list")
	require.NoError(t, err)
	assert.Equal(t, "anthropic\nopenai\n", out)
}

func TestSecretSet(t *testing.T) {
	m := useMockSecrets(t)

	out, err := execute(t, "sk-from-stdin\n", "secret", "set", "openai")
	require.NoError(t, err)
	assert.Contains(t, out, "keyring://trialrag/openai")
	assert.Equal(t, "sk-from-stdin", m.data["trialrag/openai"])

	_, err = execute(t, "", "secret", "set", "google", "--value", "g-key")
	require.NoError(t, err)
	assert.Equal(t, "g-key", m.data["trialrag/google"])

	_, err = execute(t, "", "secret", "set", "empty")
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeCLIInputInvalid))
}

func TestSecretDelete(t *testing.T) {
	m := useMockSecrets(t, "openai")

	out, err := execute(t, "", "secret", "delete", "openai")
	require.NoError(t, err)
	assert.Equal(t, "Deleted secret: openai\n", out)
	assert.Empty(t, m.data)

	_, err = execute(t, "", "secret", "delete", "openai")
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeSecretNotFound))
	assert.Contains(t, err.Error(), `"openai" not found`)
}
