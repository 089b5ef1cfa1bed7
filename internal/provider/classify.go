// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package provider

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"syscall"

	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// ClassifyError maps an SDK error onto the provider error codes. status is
// the HTTP status the SDK reported, or 0 when the request never produced a
// response.
//
//   - caller canceled                -> provider.request.canceled
//   - deadline exceeded              -> provider.upstream.timeout
//   - 401/403, refused or failed dial -> provider.upstream.unavailable
//   - everything else                -> provider.upstream.failure
func ClassifyError(name string, status int, err error) error {
	if err == nil {
		return nil
	}
	field := ragerr.FieldProvider(name)

	switch {
	case stderrors.Is(err, context.Canceled):
		return ragerr.Wrap(err, ragerr.CodeProviderRequestCanceled, name+": request canceled", field)
	case stderrors.Is(err, context.DeadlineExceeded):
		return ragerr.Wrap(err, ragerr.CodeProviderUpstreamTimeout, name+": generation timed out", field)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ragerr.Wrap(err, ragerr.CodeProviderUpstreamUnavailable, name+": credentials rejected", field)
	case isDialError(err):
		return ragerr.Wrap(err, ragerr.CodeProviderUpstreamUnavailable, name+": endpoint unreachable", field)
	default:
		return ragerr.Wrap(err, ragerr.CodeProviderUpstreamFailure, name+": generation failed", field)
	}
}

// IsUnavailable reports whether err means the generator could not be used at
// all, so the caller should answer without it.
func IsUnavailable(err error) bool {
	return ragerr.IsUnavailable(err) || ragerr.IsTimeout(err)
}

func isDialError(err error) bool {
	if stderrors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if stderrors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return stderrors.As(err, &dnsErr)
}
