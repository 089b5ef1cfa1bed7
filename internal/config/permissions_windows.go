// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

//go:build windows

package config

// WarnInsecurePermissions is a no-op on Windows, which uses ACLs instead of mode bits.
func WarnInsecurePermissions(string) bool {
	return false
}
