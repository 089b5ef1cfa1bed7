// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

//go:embed trialrag.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/trialrag/trialrag.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ragerr.Wrapf(err, ragerr.CodeConfigLoadReadFailure, "resolving home directory")
	}
	return filepath.Join(home, ".config", "trialrag", "trialrag.yaml"), nil
}

// Bootstrap writes the commented default config to path unless a file is
// already there. It returns true only when a file was written. Failures are
// logged and skipped so a read-only home never blocks startup.
func Bootstrap(path string) bool {
	if _, err := os.Stat(path); err == nil {
		return false
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		slog.Debug("skipping config bootstrap", "path", path, "error", err)
		return false
	}
	if err := os.WriteFile(path, DefaultConfigYAML, 0o600); err != nil {
		slog.Debug("skipping config bootstrap", "path", path, "error", err)
		return false
	}

	slog.Info("created default config", "path", path)
	return true
}
