// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// defaultHTTPClient is shared by client commands. Generation can take as long
// as the server's generation timeout, so this is generous.
var defaultHTTPClient = &http.Client{
	Timeout: 90 * time.Second,
}

// apiClient talks to a running trialrag server.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(addr string) *apiClient {
	return &apiClient{baseURL: "http://" + addr, http: defaultHTTPClient}
}

func (c *apiClient) getJSON(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

func (c *apiClient) postJSON(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

func (c *apiClient) deleteJSON(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodDelete, path, body, dest)
}

// do sends body as JSON and decodes a 2xx response into dest. A refused
// connection yields CodeCLIServerNotRunning; an error response keeps the
// server's problem detail in the message.
func (c *apiClient) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return ragerr.Wrapf(err, ragerr.CodeCLIInputInvalid, "encoding request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeCLIRequestFailure, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isDialError(err) {
			return ragerr.Errorf(ragerr.CodeCLIServerNotRunning, "trialrag is not running at %s", c.baseURL)
		}
		return ragerr.Wrapf(err, ragerr.CodeCLIRequestFailure, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeCLIResponseInvalid, "decoding response")
	}
	return nil
}

func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Errors []struct {
			Message  string `json:"message"`
			Location string `json:"location"`
		} `json:"errors"`
	}
	msg := string(bytes.TrimSpace(raw))
	if json.Unmarshal(raw, &problem) == nil && (problem.Detail != "" || problem.Title != "") {
		msg = problem.Detail
		if msg == "" {
			msg = problem.Title
		}
		for _, e := range problem.Errors {
			msg += "; " + e.Location + ": " + e.Message
		}
	}

	code := ragerr.CodeCLIRequestFailure
	if resp.StatusCode == http.StatusNotFound {
		code = ragerr.CodeServerEntityNotFound
	}
	return ragerr.New(code, "server returned "+resp.Status+": "+msg, ragerr.Field("status", resp.StatusCode))
}

// isDialError reports whether err is a failure to connect, as opposed to a
// failure after the connection was made.
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
