// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/trialrag/internal/store"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
	"github.com/sigil-dev/trialrag/pkg/health"
)

type statusBody struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Answerer  string          `json:"answerer"`
	Generator *health.Metrics `json:"generator"`
	Store     store.Stats     `json:"store"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Long:  "Query a running server for its answer strategy, generator health and store size.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := a.address(cmd)
			out := cmd.OutOrStdout()

			var body statusBody
			if err := newAPIClient(addr).getJSON(cmd.Context(), "/api/v1/status", &body); err != nil {
				if ragerr.HasCode(err, ragerr.CodeCLIServerNotRunning) {
					_, _ = fmt.Fprintf(out, "trialrag at %s is not running\n", addr)
					return nil
				}
				return err
			}

			_, _ = fmt.Fprintf(out, "trialrag at %s: %s (version %s)\n", addr, body.Status, body.Version)
			_, _ = fmt.Fprintf(out, "  answerer:    %s\n", body.Answerer)
			_, _ = fmt.Fprintf(out, "  store:       %s, %d documents in %d collections, %d dimensions\n",
				body.Store.Backend, body.Store.Documents, body.Store.Collections, body.Store.Dimensions)
			if g := body.Generator; g != nil {
				state := "available"
				if !g.Available && g.CooldownUntil != nil {
					state = "cooling down until " + g.CooldownUntil.Format(time.RFC3339)
				}
				_, _ = fmt.Fprintf(out, "  generator:   %s %s (%d failures)\n", g.Generator, state, g.FailureCount)
			}
			return nil
		},
	}
}
