package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Change kinds accepted in the "changes" list.
const (
	KindReplace      = "replace"
	KindDelete       = "delete"
	KindInsertAfter  = "insert_after"
	KindInsertBefore = "insert_before"
	KindComment      = "comment"
)

// Change is one tracked-change request. Replace and Delete locate their
// target via Find; InsertAfter and InsertBefore locate theirs via Anchor.
type Change struct {
	Type    string `json:"type" yaml:"type"`
	Find    string `json:"find,omitempty" yaml:"find,omitempty"`
	Replace string `json:"replace,omitempty" yaml:"replace,omitempty"`
	Anchor  string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Comment is one anchored-comment request.
type Comment struct {
	Anchor string `json:"anchor" yaml:"anchor"`
	Text   string `json:"text" yaml:"text"`
}

// Manifest is a declarative batch of edits. Comments are applied before
// changes so their anchors resolve against the original visible text.
type Manifest struct {
	Author   string    `json:"author,omitempty" yaml:"author,omitempty"`
	Changes  []Change  `json:"changes,omitempty" yaml:"changes,omitempty"`
	Comments []Comment `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// Target returns the phrase a change locates: Find for replace/delete,
// Anchor for the insert kinds.
func (c Change) Target() string {
	switch c.Type {
	case KindInsertAfter, KindInsertBefore:
		return c.Anchor
	default:
		return c.Find
	}
}

// Validate reports why a change entry cannot be applied, or "" if it can.
// Invalid entries are per-operation failures, not hard errors.
func (c Change) Validate() string {
	switch c.Type {
	case KindReplace:
		if c.Find == "" {
			return "replace entry missing required field: find"
		}
	case KindDelete:
		if c.Find == "" {
			return "delete entry missing required field: find"
		}
	case KindInsertAfter, KindInsertBefore:
		if c.Anchor == "" {
			return fmt.Sprintf("%s entry missing required field: anchor", c.Type)
		}
		if c.Text == "" {
			return fmt.Sprintf("%s entry missing required field: text", c.Type)
		}
	case "":
		return "change entry missing required field: type"
	default:
		return fmt.Sprintf("unknown change type: %q", c.Type)
	}
	return ""
}

// Validate reports why a comment entry cannot be applied, or "" if it can.
func (m Comment) Validate() string {
	if m.Anchor == "" {
		return "comment entry missing required field: anchor"
	}
	if m.Text == "" {
		return "comment entry missing required field: text"
	}
	return ""
}

// Load reads a manifest from path. Files ending in .yaml/.yml are parsed as
// YAML; everything else as JSON. JSON field names match case-insensitively.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return Parse(data)
	}
}

// Read parses a JSON manifest from a stream (the stdin path).
func Read(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest from stream: %w", err)
	}
	return Parse(data)
}

// Parse parses a JSON manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}
	return &m, nil
}

func parseYAML(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}
	return &m, nil
}
