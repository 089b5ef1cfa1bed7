// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <collection> <file>",
		Short: "Add documents from a YAML or JSON file",
		Long: `Upsert documents into a collection on a running server, creating the collection if needed.

The file is either a list of documents or a mapping with a "documents" key.
Each document has content and optional id and metadata; use "-" to read stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, path := args[0], args[1]

			docs, err := loadDocuments(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			var body struct {
				IDs []string `json:"ids"`
			}
			req := map[string]any{"documents": docs}
			apiPath := "/api/v1/collections/" + url.PathEscape(collection) + "/documents"
			if err := newAPIClient(a.address(cmd)).postJSON(cmd.Context(), apiPath, req, &body); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d documents into %s\n", len(body.IDs), collection)
			return nil
		},
	}
}
