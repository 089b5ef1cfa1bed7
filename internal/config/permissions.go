// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

//go:build !windows

package config

import (
	"log/slog"
	"os"
)

// WarnInsecurePermissions logs a warning when the config file, which may
// hold literal API keys, is readable by group or others.
func WarnInsecurePermissions(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return false
	}

	if info.Mode().Perm()&0o044 == 0 {
		return false
	}
	slog.Warn("config file is readable by other users; api keys may be exposed",
		"path", path,
		"mode", info.Mode(),
		"recommended", "0600",
	)
	return true
}
