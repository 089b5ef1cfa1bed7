// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sigil-dev/trialrag/internal/store"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// loadDocuments reads documents from a YAML or JSON file, or from stdin when
// path is "-". The file holds either a bare list of documents or a mapping
// with a "documents" list.
func loadDocuments(path string, stdin io.Reader) ([]store.NewDocument, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLIInputInvalid, "reading documents from %s", path)
	}
	return parseDocuments(data)
}

func parseDocuments(data []byte) ([]store.NewDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeCLIInputInvalid, "parsing documents")
	}
	if len(root.Content) == 0 {
		return nil, ragerr.New(ragerr.CodeCLIInputInvalid, "document file is empty")
	}

	var docs []store.NewDocument
	node := root.Content[0]
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&docs); err != nil {
			return nil, ragerr.Wrapf(err, ragerr.CodeCLIInputInvalid, "decoding document list")
		}
	case yaml.MappingNode:
		var file struct {
			Documents []store.NewDocument `yaml:"documents"`
		}
		if err := node.Decode(&file); err != nil {
			return nil, ragerr.Wrapf(err, ragerr.CodeCLIInputInvalid, "decoding documents")
		}
		docs = file.Documents
	default:
		return nil, ragerr.New(ragerr.CodeCLIInputInvalid, "expected a list of documents or a mapping with a documents key")
	}

	if len(docs) == 0 {
		return nil, ragerr.New(ragerr.CodeCLIInputInvalid, "no documents found")
	}
	for i, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			return nil, ragerr.Errorf(ragerr.CodeCLIInputInvalid, "document %d (%q) has no content", i, d.ID)
		}
	}
	return docs, nil
}

// withIDs fills missing IDs with random UUIDs, matching what the server does
// for documents posted without one.
func withIDs(docs []store.NewDocument) []store.NewDocument {
	out := make([]store.NewDocument, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		out[i] = d
	}
	return out
}

// parseFilter turns key=value pairs into a metadata filter. Values are
// resolved as YAML scalars, so phase=3 matches a numeric 3 and
// active=true a boolean.
func parseFilter(pairs []string) (store.Filter, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	f := make(store.Filter, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, ragerr.Errorf(ragerr.CodeCLIInputInvalid, "filter %q: expected key=value", pair)
		}
		var val any
		if err := yaml.Unmarshal([]byte(raw), &val); err != nil || !isScalar(val) {
			val = raw
		}
		f[key] = val
	}
	return f, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, int, float64, bool:
		return true
	}
	return false
}
