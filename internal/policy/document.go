package policy

import (
	"encoding/json"
	"fmt"
)

const Version = "2012-10-17"

// Document is a complete bucket policy, as uploaded to the storage backend.
type Document struct {
	Version   string       `json:"Version"`
	Statement []*Statement `json:"Statement"`
}

func NewDocument(statements ...*Statement) *Document {
	if statements == nil {
		statements = []*Statement{}
	}
	return &Document{
		Version:   Version,
		Statement: statements,
	}
}

// JSON returns the indented JSON encoding of the document.
func (d *Document) JSON() (string, error) {
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to encode policy document: %w", err)
	}
	return string(data), nil
}

// ParseDocument decodes a policy document previously produced by [Document.JSON].
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("invalid policy document: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("unsupported policy version %q", doc.Version)
	}
	return doc, nil
}
