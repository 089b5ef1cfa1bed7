// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newCollectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "col"},
		Short:   "Manage collections on a running server",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List collections",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var body struct {
					Collections []string `json:"collections"`
				}
				if err := newAPIClient(a.address(cmd)).getJSON(cmd.Context(), "/api/v1/collections", &body); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(body.Collections) == 0 {
					_, _ = fmt.Fprintln(out, "No collections.")
					return nil
				}
				for _, name := range body.Collections {
					_, _ = fmt.Fprintln(out, name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create an empty collection",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				req := map[string]string{"name": args[0]}
				if err := newAPIClient(a.address(cmd)).postJSON(cmd.Context(), "/api/v1/collections", req, nil); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created collection: %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a collection and every document in it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := "/api/v1/collections/" + url.PathEscape(args[0])
				if err := newAPIClient(a.address(cmd)).deleteJSON(cmd.Context(), path, nil, nil); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection: %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "count <name>",
			Short: "Count documents in a collection",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var body struct {
					Count int `json:"count"`
				}
				path := "/api/v1/collections/" + url.PathEscape(args[0]) + "/count"
				if err := newAPIClient(a.address(cmd)).getJSON(cmd.Context(), path, &body); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), body.Count)
				return nil
			},
		},
	)
	return cmd
}
