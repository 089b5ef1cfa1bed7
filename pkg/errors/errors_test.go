// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// New / Errorf
// ---------------------------------------------------------------------------

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := ragerr.New(
		ragerr.CodeStoreDocumentUpsertInvalid,
		"document has no id",
		ragerr.FieldCollection("trials"),
		ragerr.Field("position", 3),
	)

	require.Error(t, err)
	assert.Equal(t, ragerr.CodeStoreDocumentUpsertInvalid, ragerr.CodeOf(err))
	assert.True(t, ragerr.HasCode(err, ragerr.CodeStoreDocumentUpsertInvalid))

	fields := ragerr.FieldsOf(err)
	assert.Equal(t, "trials", fields["collection"])
	assert.Equal(t, 3, fields["position"])
}

func TestErrorfFormatsMessage(t *testing.T) {
	err := ragerr.Errorf(ragerr.CodeStoreQueryDimensionMismatch, "query vector has %d dimensions, want %d", 3, 384)
	require.Error(t, err)
	assert.Equal(t, ragerr.CodeStoreQueryDimensionMismatch, ragerr.CodeOf(err))
	assert.Contains(t, err.Error(), "query vector has 3 dimensions, want 384")
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := ragerr.Errorf(ragerr.CodeProviderUpstreamUnavailable, "dialing: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.True(t, ragerr.IsUnavailable(err))
}

// ---------------------------------------------------------------------------
// Wrap / Wrapf / With
// ---------------------------------------------------------------------------

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("no such collection")
	err := ragerr.Wrap(root, ragerr.CodeStoreCollectionNotFound, "counting", ragerr.FieldCollection("ghost"))

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.True(t, ragerr.IsNotFound(err))
	assert.Equal(t, "ghost", ragerr.FieldsOf(err)["collection"])
	assert.Contains(t, err.Error(), "counting")
	assert.Contains(t, err.Error(), "no such collection")
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, ragerr.Wrap(nil, ragerr.CodeServerInternalFailure, "ignored"))
	assert.NoError(t, ragerr.Wrapf(nil, ragerr.CodeServerInternalFailure, "ignored %s", "arg"))
	assert.NoError(t, ragerr.With(nil, ragerr.FieldProvider("x")))
}

func TestWithAddsContextWithoutChangingCode(t *testing.T) {
	base := ragerr.New(ragerr.CodeProviderUpstreamTimeout, "deadline exceeded")
	withCtx := ragerr.With(base, ragerr.FieldProvider("openai"))

	assert.Equal(t, ragerr.CodeProviderUpstreamTimeout, ragerr.CodeOf(withCtx))
	assert.Equal(t, "openai", ragerr.FieldsOf(withCtx)["provider"])
}

func TestWithOnPlainErrorDefaultsToInternalCode(t *testing.T) {
	enriched := ragerr.With(stderrors.New("something broke"), ragerr.FieldDocumentID("doc-1"))

	assert.Equal(t, ragerr.CodeServerInternalFailure, ragerr.CodeOf(enriched))
	assert.Equal(t, "doc-1", ragerr.FieldsOf(enriched)["document_id"])
}

func TestCodeOfReturnsInnermostCodedError(t *testing.T) {
	inner := ragerr.New(ragerr.CodeProviderUpstreamUnavailable, "401")
	outer := ragerr.Wrap(inner, ragerr.CodeRAGGenerationFailure, "generating answer")

	assert.Equal(t, ragerr.CodeProviderUpstreamUnavailable, ragerr.CodeOf(outer))
	assert.True(t, ragerr.IsUnavailable(outer))
}

func TestCodeOfPlainAndNil(t *testing.T) {
	assert.Equal(t, ragerr.Code(""), ragerr.CodeOf(nil))
	assert.Equal(t, ragerr.Code(""), ragerr.CodeOf(stderrors.New("plain")))
	assert.Nil(t, ragerr.FieldsOf(nil))
	assert.Nil(t, ragerr.FieldsOf(stderrors.New("plain")))
}

func TestFieldsWithEmptyKeyAreIgnored(t *testing.T) {
	err := ragerr.New(ragerr.CodeStoreInvalidInput, "oops",
		ragerr.Field("", "dropped"),
		ragerr.FieldCollection("kept"),
	)
	fields := ragerr.FieldsOf(err)
	assert.Equal(t, "kept", fields["collection"])
	assert.NotContains(t, fields, "")
}

func TestErrorIsWithWrappedChain(t *testing.T) {
	sentinel := stderrors.New("root cause")
	outer := ragerr.Wrap(fmt.Errorf("mid: %w", sentinel), ragerr.CodeServerInternalFailure, "handler")

	assert.ErrorIs(t, outer, sentinel)
}

// ---------------------------------------------------------------------------
// Classification helpers
// ---------------------------------------------------------------------------

func TestClassificationAndStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		code   ragerr.Code
		status int
		check  func(error) bool
	}{
		{name: "collection not found", code: ragerr.CodeStoreCollectionNotFound, status: 404, check: ragerr.IsNotFound},
		{name: "document not found", code: ragerr.CodeStoreDocumentNotFound, status: 404, check: ragerr.IsNotFound},
		{name: "server entity not found", code: ragerr.CodeServerEntityNotFound, status: 404, check: ragerr.IsNotFound},
		{name: "upsert invalid", code: ragerr.CodeStoreDocumentUpsertInvalid, status: 400, check: ragerr.IsInvalidInput},
		{name: "dimension mismatch", code: ragerr.CodeStoreQueryDimensionMismatch, status: 400, check: ragerr.IsInvalidInput},
		{name: "config value", code: ragerr.CodeConfigValidateInvalidValue, status: 400, check: ragerr.IsInvalidInput},
		{name: "config format", code: ragerr.CodeConfigParseInvalidFormat, status: 400, check: ragerr.IsInvalidInput},
		{name: "provider request", code: ragerr.CodeProviderRequestInvalid, status: 400, check: ragerr.IsInvalidInput},
		{name: "provider timeout", code: ragerr.CodeProviderUpstreamTimeout, status: 504, check: ragerr.IsTimeout},
		{name: "provider unavailable", code: ragerr.CodeProviderUpstreamUnavailable, status: 503, check: ragerr.IsUnavailable},
		{name: "server not running", code: ragerr.CodeCLIServerNotRunning, status: 503, check: ragerr.IsUnavailable},
		{name: "upstream failure", code: ragerr.CodeProviderUpstreamFailure, status: 502, check: ragerr.IsUpstreamFailure},
		{name: "internal", code: ragerr.CodeServerInternalFailure, status: 500, check: func(err error) bool { return !ragerr.IsNotFound(err) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ragerr.New(tt.code, "boom")
			assert.Equal(t, tt.status, ragerr.HTTPStatus(err))
			assert.True(t, tt.check(err))
		})
	}
}

func TestClassificationNegativeCases(t *testing.T) {
	for _, err := range []error{
		nil,
		stderrors.New("plain"),
		ragerr.New(ragerr.CodeRAGRetrievalFailure, "retrieval"),
	} {
		assert.False(t, ragerr.IsNotFound(err))
		assert.False(t, ragerr.IsInvalidInput(err))
		assert.False(t, ragerr.IsTimeout(err))
		assert.False(t, ragerr.IsUnavailable(err))
		assert.False(t, ragerr.IsUpstreamFailure(err))
	}
}

func TestHTTPStatusDefaultsToInternalServerError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ragerr.HTTPStatus(nil))
	assert.Equal(t, http.StatusInternalServerError, ragerr.HTTPStatus(stderrors.New("oops")))
}

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")
	joined := ragerr.Join(a, b)

	require.Error(t, joined)
	assert.ErrorIs(t, joined, a)
	assert.ErrorIs(t, joined, b)
	assert.Equal(t, ragerr.CodeServerInternalFailure, ragerr.CodeOf(joined))
}
