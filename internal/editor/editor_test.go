package editor_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redline/internal/clock"
	"redline/internal/docx"
	"redline/internal/docx/docxtest"
	"redline/internal/editor"
	"redline/internal/extract"
	"redline/internal/runindex"
	"redline/pkg/manifest"
)

var testClock = clock.MustAt("2024-01-15T10:00:00Z")

func openDoc(t *testing.T, path string) *docx.Store {
	t.Helper()
	store, err := docx.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func visibleText(t *testing.T, store *docx.Store) string {
	t.Helper()
	doc, err := store.Document()
	require.NoError(t, err)
	return runindex.Build(docx.Body(doc)).Text()
}

func TestApplyManifest(t *testing.T) {
	path := docxtest.WriteDoc(t, docxtest.Paragraph("",
		docxtest.Run("The results demonstrate significant improvement in all metrics.", "")))
	store := openDoc(t, path)

	m := &manifest.Manifest{
		Author: "Alice",
		Changes: []manifest.Change{
			{Type: manifest.KindReplace, Find: "demonstrate", Replace: "show"},
			{Type: manifest.KindDelete, Find: " in all metrics"},
		},
		Comments: []manifest.Comment{
			{Anchor: "significant improvement", Text: "Quantify this."},
		},
	}

	out, err := editor.Apply(store, m, editor.Options{Clock: testClock})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, 2, out.ChangesAttempted)
	assert.Equal(t, 2, out.ChangesSucceeded)
	assert.Equal(t, 1, out.CommentsAttempted)
	assert.Equal(t, 1, out.CommentsSucceeded)
	assert.Equal(t, "Alice", out.Author)
	require.Len(t, out.Results, 3)

	// Comments precede changes in the result list.
	assert.Equal(t, manifest.KindComment, out.Results[0].Type)
	assert.Equal(t, `added comment 0 on "significant improvement"`, out.Results[0].Message)
	assert.Equal(t, `replaced "demonstrate" with "show"`, out.Results[1].Message)
	assert.Equal(t, `deleted " in all metrics"`, out.Results[2].Message)

	assert.True(t, store.Dirty())
	assert.Equal(t, "The results show significant improvement.", visibleText(t, store))
}

func TestApplyPartialFailure(t *testing.T) {
	path := docxtest.WriteDoc(t, docxtest.Paragraph("", docxtest.Run("Some text here.", "")))
	store := openDoc(t, path)

	m := &manifest.Manifest{
		Changes: []manifest.Change{
			{Type: manifest.KindReplace, Find: "absent phrase", Replace: "x"},
			{Type: manifest.KindReplace, Find: "text", Replace: "words"},
		},
	}

	out, err := editor.Apply(store, m, editor.Options{Clock: testClock})
	require.NoError(t, err, "per-entry failures are not hard errors")

	assert.False(t, out.Success)
	assert.Equal(t, 1, out.ChangesSucceeded)
	assert.False(t, out.Results[0].Success)
	assert.Equal(t, `target phrase not found: "absent phrase"`, out.Results[0].Message)
	assert.True(t, out.Results[1].Success)
	assert.Equal(t, "Some words here.", visibleText(t, store))
}

func TestApplyInvalidEntry(t *testing.T) {
	path := docxtest.WriteDoc(t, docxtest.Paragraph("", docxtest.Run("text", "")))
	store := openDoc(t, path)

	m := &manifest.Manifest{
		Changes:  []manifest.Change{{Type: manifest.KindReplace}},
		Comments: []manifest.Comment{{Anchor: "text"}},
	}

	out, err := editor.Apply(store, m, editor.Options{Clock: testClock})
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Equal(t, "comment entry missing required field: text", out.Results[0].Message)
	assert.Equal(t, "replace entry missing required field: find", out.Results[1].Message)
	assert.False(t, store.Dirty())
}

func TestAuthorPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		manifest string
		want     string
	}{
		{"flag wins", "Flag Author", "Manifest Author", "Flag Author"},
		{"manifest next", "", "Manifest Author", "Manifest Author"},
		{"default last", "", "", editor.DefaultAuthor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := docxtest.WriteDoc(t, docxtest.Paragraph("", docxtest.Run("hello world", "")))
			store := openDoc(t, path)

			m := &manifest.Manifest{
				Author:  tt.manifest,
				Changes: []manifest.Change{{Type: manifest.KindDelete, Find: "world"}},
			}
			out, err := editor.Apply(store, m, editor.Options{Author: tt.flag, Clock: testClock})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Author)

			doc, err := store.Document()
			require.NoError(t, err)
			var authors []string
			for _, del := range doc.FindElements("//w:del") {
				authors = append(authors, docx.Attr(del, "author"))
			}
			assert.Equal(t, []string{tt.want}, authors)
		})
	}
}

func TestDryRun(t *testing.T) {
	path := docxtest.WriteDoc(t, docxtest.Paragraph("", docxtest.Run("hello world", "")))
	store := openDoc(t, path)

	m := &manifest.Manifest{
		Changes:  []manifest.Change{{Type: manifest.KindReplace, Find: "world", Replace: "there"}},
		Comments: []manifest.Comment{{Anchor: "hello", Text: "hi"}},
	}

	out, err := editor.Apply(store, m, editor.Options{DryRun: true, Clock: testClock})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, `would add comment on "hello"`, out.Results[0].Message)
	assert.Equal(t, `would apply replace at first occurrence of "world"`, out.Results[1].Message)
	assert.False(t, store.Dirty(), "dry runs never touch the tree")
	assert.Equal(t, "hello world", visibleText(t, store))
}

func TestSequentialSemantics(t *testing.T) {
	// The second change matches text produced by the first.
	path := docxtest.WriteDoc(t, docxtest.Paragraph("", docxtest.Run("alpha beta", "")))
	store := openDoc(t, path)

	m := &manifest.Manifest{
		Changes: []manifest.Change{
			{Type: manifest.KindReplace, Find: "beta", Replace: "gamma"},
			{Type: manifest.KindInsertAfter, Anchor: "gamma", Text: " delta"},
		},
	}

	out, err := editor.Apply(store, m, editor.Options{Clock: testClock})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "alpha gamma delta", visibleText(t, store))
}

func TestCommentAnchorSurvivesReplace(t *testing.T) {
	// A comment placed on a word that a later change replaces keeps the
	// original word as its anchor after a round trip.
	path := docxtest.WriteDoc(t, docxtest.Paragraph("",
		docxtest.Run("We question the methodology used here.", "")))
	store := openDoc(t, path)

	m := &manifest.Manifest{
		Author: "Alice",
		Changes: []manifest.Change{
			{Type: manifest.KindReplace, Find: "methodology", Replace: "approach"},
		},
		Comments: []manifest.Comment{
			{Anchor: "methodology", Text: "Is this the right term?"},
		},
	}

	out, err := editor.Apply(store, m, editor.Options{Clock: testClock})
	require.NoError(t, err)
	require.True(t, out.Success)

	outPath := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, store.Save(outPath))

	store2 := openDoc(t, outPath)
	doc, err := extract.Extract(store2)
	require.NoError(t, err)

	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "methodology", doc.Comments[0].AnchorText)
	assert.Equal(t, "We question the approach used here.", doc.Paragraphs[0].Text)
}
