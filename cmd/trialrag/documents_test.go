// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/trialrag/internal/store"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

func TestParseDocuments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []store.NewDocument
	}{
		{
			name:  "mapping",
			input: seedYAML,
			want: []store.NewDocument{
				{ID: "nct-1", Content: "aspirin reduces fever", Metadata: store.Metadata{"phase": 3, "status": "recruiting"}},
				{ID: "nct-2", Content: "statins lower cholesterol", Metadata: store.Metadata{"phase": 2, "status": "completed"}},
			},
		},
		{
			name:  "bare list",
			input: "- content: one\n- id: b\n  content: two\n",
			want:  []store.NewDocument{{Content: "one"}, {ID: "b", Content: "two"}},
		},
		{
			name:  "json",
			input: `{"documents":[{"id":"j","content":"from json","metadata":{"active":true}}]}`,
			want:  []store.NewDocument{{ID: "j", Content: "from json", Metadata: store.Metadata{"active": true}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := parseDocuments([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, docs)
		})
	}
}

func TestParseDocuments_Invalid(t *testing.T) {
	for name, input := range map[string]string{
		"empty":         "",
		"scalar":        "just text",
		"no documents":  "documents: []",
		"blank content": "- id: x\n  content: '  '\n",
		"malformed":     "documents: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseDocuments([]byte(input))
			require.Error(t, err)
			assert.True(t, ragerr.HasCode(err, ragerr.CodeCLIInputInvalid), "got %v", err)
		})
	}
}

func TestLoadDocuments_Stdin(t *testing.T) {
	docs, err := loadDocuments("-", strings.NewReader("- content: piped\n"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "piped", docs[0].Content)

	_, err = loadDocuments("/does/not/exist.yaml", nil)
	require.Error(t, err)
}

func TestWithIDs(t *testing.T) {
	in := []store.NewDocument{{ID: "keep", Content: "a"}, {Content: "b"}}
	out := withIDs(in)

	assert.Equal(t, "keep", out[0].ID)
	assert.Len(t, out[1].ID, 36)
	assert.Empty(t, in[1].ID, "input is not modified")
}

func TestParseFilter(t *testing.T) {
	f, err := parseFilter([]string{"phase=3", "status=completed", "active=true", "ratio=0.5", "empty=", "eq=a=b"})
	require.NoError(t, err)
	assert.Equal(t, store.Filter{
		"phase":  3,
		"status": "completed",
		"active": true,
		"ratio":  0.5,
		"empty":  "",
		"eq":     "a=b",
	}, f)

	f, err = parseFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	_, err = parseFilter([]string{"=x"})
	require.Error(t, err)
}
