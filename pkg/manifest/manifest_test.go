package manifest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redline/pkg/manifest"
)

func TestParse(t *testing.T) {
	data := `{
		"author": "Alice",
		"changes": [
			{"type": "replace", "find": "old", "replace": "new"},
			{"type": "delete", "find": "gone"},
			{"type": "insert_after", "anchor": "spot", "text": " more"}
		],
		"comments": [
			{"anchor": "methodology", "text": "Needs a citation."}
		]
	}`

	m, err := manifest.Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "Alice", m.Author)
	require.Len(t, m.Changes, 3)
	require.Len(t, m.Comments, 1)
	assert.Equal(t, manifest.KindReplace, m.Changes[0].Type)
	assert.Equal(t, "spot", m.Changes[2].Anchor)
}

func TestParseCaseInsensitiveFields(t *testing.T) {
	m, err := manifest.Parse([]byte(`{"Author":"Bob","Changes":[{"Type":"delete","Find":"x"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Bob", m.Author)
	require.Len(t, m.Changes, 1)
	assert.Equal(t, "x", m.Changes[0].Find)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := manifest.Parse([]byte(`{`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse manifest JSON")
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.yaml")
	content := `author: Carol
changes:
  - type: replace
    find: colour
    replace: color
comments:
  - anchor: abstract
    text: Too long.
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := manifest.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Carol", m.Author)
	require.Len(t, m.Changes, 1)
	assert.Equal(t, "color", m.Changes[0].Replace)
	require.Len(t, m.Comments, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := manifest.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestRead(t *testing.T) {
	m, err := manifest.Read(strings.NewReader(`{"changes":[{"type":"delete","find":"x"}]}`))
	require.NoError(t, err)
	require.Len(t, m.Changes, 1)
}

func TestChangeTarget(t *testing.T) {
	assert.Equal(t, "a", manifest.Change{Type: manifest.KindReplace, Find: "a"}.Target())
	assert.Equal(t, "b", manifest.Change{Type: manifest.KindInsertAfter, Anchor: "b"}.Target())
	assert.Equal(t, "c", manifest.Change{Type: manifest.KindInsertBefore, Anchor: "c"}.Target())
}

func TestChangeValidate(t *testing.T) {
	tests := []struct {
		name   string
		change manifest.Change
		want   string
	}{
		{"valid replace", manifest.Change{Type: "replace", Find: "a", Replace: "b"}, ""},
		{"replace without find", manifest.Change{Type: "replace"}, "replace entry missing required field: find"},
		{"delete without find", manifest.Change{Type: "delete"}, "delete entry missing required field: find"},
		{"insert without anchor", manifest.Change{Type: "insert_after", Text: "x"}, "insert_after entry missing required field: anchor"},
		{"insert without text", manifest.Change{Type: "insert_before", Anchor: "x"}, "insert_before entry missing required field: text"},
		{"missing type", manifest.Change{Find: "a"}, "change entry missing required field: type"},
		{"unknown type", manifest.Change{Type: "merge"}, `unknown change type: "merge"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.change.Validate())
		})
	}
}

func TestCommentValidate(t *testing.T) {
	assert.Equal(t, "", manifest.Comment{Anchor: "a", Text: "b"}.Validate())
	assert.Equal(t, "comment entry missing required field: anchor", manifest.Comment{Text: "b"}.Validate())
	assert.Equal(t, "comment entry missing required field: text", manifest.Comment{Anchor: "a"}.Validate())
}
