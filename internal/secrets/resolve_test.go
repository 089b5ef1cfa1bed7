// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package secrets_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/trialrag/internal/secrets"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

func TestParseKeyringURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantService string
		wantKey     string
		wantErr     bool
	}{
		{"valid", "keyring://trialrag/openai", "trialrag", "openai", false},
		{"slashes in key", "keyring://trialrag/providers/google", "trialrag", "providers/google", false},
		{"other scheme", "vault://secret/key", "", "", true},
		{"missing key", "keyring://trialrag/", "", "", true},
		{"missing service", "keyring:///key", "", "", true},
		{"bare scheme", "keyring://", "", "", true},
		{"no path", "keyring://trialrag", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, key, err := secrets.ParseKeyringURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ragerr.HasCode(err, ragerr.CodeSecretInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantService, svc)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestResolve(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("trialrag", "resolve-key", "resolved"))

	val, err := secrets.Resolve(ks, "keyring://trialrag/resolve-key")
	require.NoError(t, err)
	assert.Equal(t, "resolved", val)

	val, err = secrets.Resolve(ks, "sk-literal")
	require.NoError(t, err)
	assert.Equal(t, "sk-literal", val)

	_, err = secrets.Resolve(ks, "keyring://trialrag/absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving keyring URI")

	_, err = secrets.Resolve(ks, "keyring://bad")
	require.Error(t, err)
}

func TestResolveViper(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("trialrag", "anthropic", "sk-ant"))

	v := viper.New()
	v.Set("providers.anthropic.api_key", "keyring://trialrag/anthropic")
	v.Set("providers.openai.api_key", "keyring://trialrag/not-there")
	v.Set("server.listen", "127.0.0.1:18790")

	unresolved := secrets.ResolveViper(v, ks)

	assert.Equal(t, []string{"providers.openai.api_key"}, unresolved)
	assert.Equal(t, "sk-ant", v.GetString("providers.anthropic.api_key"))
	assert.Equal(t, "keyring://trialrag/not-there", v.GetString("providers.openai.api_key"))
	assert.Equal(t, "127.0.0.1:18790", v.GetString("server.listen"))
}
