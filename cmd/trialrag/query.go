// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/trialrag/internal/rag"
	"github.com/sigil-dev/trialrag/internal/store"
)

const previewRunes = 80

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <collection> <text>",
		Short: "Rank documents by similarity to text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topK, _ := cmd.Flags().GetInt("top-k")
			pairs, _ := cmd.Flags().GetStringArray("filter")
			filter, err := parseFilter(pairs)
			if err != nil {
				return err
			}

			req := map[string]any{"query": args[1], "top_k": topK}
			if filter != nil {
				req["filter"] = filter
			}
			var body struct {
				Results []store.Result `json:"results"`
			}
			path := "/api/v1/collections/" + url.PathEscape(args[0]) + "/query"
			if err := newAPIClient(a.address(cmd)).postJSON(cmd.Context(), path, req, &body); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(body.Results) == 0 {
				_, _ = fmt.Fprintln(out, "No matching documents.")
				return nil
			}
			printResults(out, body.Results)
			return nil
		},
	}

	cmd.Flags().IntP("top-k", "k", 0, "maximum results (server default when 0)")
	cmd.Flags().StringArrayP("filter", "f", nil, "metadata filter as key=value (repeatable)")
	return cmd
}

func newAskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <collection> <question>",
		Short: "Answer a question from a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topK, _ := cmd.Flags().GetInt("top-k")
			maxTokens, _ := cmd.Flags().GetInt("max-tokens")
			noSources, _ := cmd.Flags().GetBool("no-sources")
			pairs, _ := cmd.Flags().GetStringArray("filter")
			filter, err := parseFilter(pairs)
			if err != nil {
				return err
			}

			includeContent := !noSources
			req := map[string]any{
				"collection":      args[0],
				"query":           args[1],
				"top_k":           topK,
				"max_tokens":      maxTokens,
				"include_content": includeContent,
			}
			if filter != nil {
				req["filter"] = filter
			}

			var resp rag.Response
			if err := newAPIClient(a.address(cmd)).postJSON(cmd.Context(), "/api/v1/rag/query", req, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, resp.Answer)
			if resp.Error != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", resp.Error)
			}
			if len(resp.SourceDocuments) > 0 {
				_, _ = fmt.Fprintf(out, "\nSources (%s):\n", resp.Strategy)
				printResults(out, resp.SourceDocuments)
			}
			return nil
		},
	}

	cmd.Flags().IntP("top-k", "k", 0, "documents to retrieve (server default when 0)")
	cmd.Flags().Int("max-tokens", 0, "generation budget (server default when 0)")
	cmd.Flags().Bool("no-sources", false, "omit source documents from the response")
	cmd.Flags().StringArrayP("filter", "f", nil, "metadata filter as key=value (repeatable)")
	return cmd
}

func printResults(w io.Writer, results []store.Result) {
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%.4f  %s  %s\n", r.Score, r.ID, preview(r.Content))
	}
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > previewRunes {
		return string(r[:previewRunes]) + "..."
	}
	return s
}
