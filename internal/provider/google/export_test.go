// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package google

import "google.golang.org/genai"

// BuildConfig exposes buildConfig for white-box testing.
var BuildConfig = func(maxTokens int) *genai.GenerateContentConfig {
	return buildConfig(maxTokens)
}

// CollectText exposes collectText for white-box testing.
var CollectText = func(resp *genai.GenerateContentResponse) string {
	return collectText(resp)
}
