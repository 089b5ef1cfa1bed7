// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"fmt"
	"strings"

	"github.com/sigil-dev/trialrag/internal/store"
)

const promptInstructions = "You are an assistant for a clinical trial management system. " +
	"Answer the question using only the information in the context below. " +
	"If the context does not contain enough information to answer, say so explicitly instead of guessing."

// BuildContext renders ranked results as numbered blocks separated by a
// blank line, most relevant first.
func BuildContext(results []store.Result) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Document %d] (relevance: %.2f)\n%s", i+1, r.Score, r.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt assembles the generation prompt: instructions, the context
// block, the literal question and a trailing answer cue.
func BuildPrompt(query string, results []store.Result) string {
	var sb strings.Builder
	sb.WriteString(promptInstructions)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(BuildContext(results))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}
