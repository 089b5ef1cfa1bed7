// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package openai

import openaisdk "github.com/openai/openai-go"

// BuildParams exposes buildParams for white-box testing.
var BuildParams = func(model, prompt string, maxTokens int) openaisdk.ChatCompletionNewParams {
	return buildParams(model, prompt, maxTokens)
}
