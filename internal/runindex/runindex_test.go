package runindex_test

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redline/internal/docx"
	"redline/internal/docx/docxtest"
	"redline/internal/runindex"
)

func body(t *testing.T, blocks ...string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(docxtest.DocumentXML(blocks...)))
	b := docx.Body(doc)
	require.NotNil(t, b)
	return b
}

func TestBuildVisibleText(t *testing.T) {
	tests := []struct {
		name   string
		blocks []string
		want   string
	}{
		{
			name:   "plain runs concatenate",
			blocks: []string{docxtest.Paragraph("", docxtest.Run("Hello ", ""), docxtest.Run("world", ""))},
			want:   "Hello world",
		},
		{
			name: "insertions are visible",
			blocks: []string{docxtest.Paragraph("",
				docxtest.Run("The ", ""),
				docxtest.Ins("1", "Alice", "2024-01-15T10:00:00Z", docxtest.Run("quick ", "")),
				docxtest.Run("fox", ""),
			)},
			want: "The quick fox",
		},
		{
			name: "deletions are excluded",
			blocks: []string{docxtest.Paragraph("",
				docxtest.Run("The ", ""),
				docxtest.Del("1", "Alice", "2024-01-15T10:00:00Z", docxtest.DelRun("slow ", "")),
				docxtest.Run("fox", ""),
			)},
			want: "The fox",
		},
		{
			name: "markers occupy nothing",
			blocks: []string{docxtest.Paragraph("",
				`<w:commentRangeStart w:id="0"/>`,
				docxtest.Run("anchored", ""),
				`<w:commentRangeEnd w:id="0"/>`,
			)},
			want: "anchored",
		},
		{
			name: "paragraphs concatenate without separator",
			blocks: []string{
				docxtest.Paragraph("", docxtest.Run("one", "")),
				docxtest.Paragraph("", docxtest.Run("two", "")),
			},
			want: "onetwo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := runindex.Build(body(t, tt.blocks...))
			assert.Equal(t, tt.want, ix.Text())
		})
	}
}

func TestFind(t *testing.T) {
	ix := runindex.Build(body(t,
		docxtest.Paragraph("", docxtest.Run("the cat sat on the mat", "")),
	))

	r, ok := ix.Find("the")
	require.True(t, ok)
	assert.Equal(t, runindex.Range{Start: 0, End: 3}, r, "first occurrence wins")

	r, ok = ix.Find("mat")
	require.True(t, ok)
	assert.Equal(t, runindex.Range{Start: 19, End: 22}, r)

	_, ok = ix.Find("dog")
	assert.False(t, ok)
}

func TestSegmentAt(t *testing.T) {
	ix := runindex.Build(body(t,
		docxtest.Paragraph("", docxtest.Run("abc", ""), docxtest.Run("def", "")),
	))

	seg, off, ok := ix.SegmentAt(0)
	require.True(t, ok)
	assert.Equal(t, "abc", seg.Data)
	assert.Equal(t, 0, off)

	seg, off, ok = ix.SegmentAt(4)
	require.True(t, ok)
	assert.Equal(t, "def", seg.Data)
	assert.Equal(t, 1, off)

	// Position equal to the stream length resolves past the last segment.
	seg, off, ok = ix.SegmentAt(6)
	require.True(t, ok)
	assert.Equal(t, "def", seg.Data)
	assert.Equal(t, 3, off)

	_, _, ok = ix.SegmentAt(7)
	assert.False(t, ok)
}

func TestSpansClipToRange(t *testing.T) {
	ix := runindex.Build(body(t,
		docxtest.Paragraph("", docxtest.Run("abc", ""), docxtest.Run("def", ""), docxtest.Run("ghi", "")),
	))

	spans := ix.Spans(runindex.Range{Start: 1, End: 8})
	require.Len(t, spans, 3)
	assert.Equal(t, 1, spans[0].From)
	assert.Equal(t, 3, spans[0].To)
	assert.Equal(t, 0, spans[1].From)
	assert.Equal(t, 3, spans[1].To)
	assert.Equal(t, 0, spans[2].From)
	assert.Equal(t, 2, spans[2].To)
}

func TestWithinOneParagraph(t *testing.T) {
	ix := runindex.Build(body(t,
		docxtest.Paragraph("", docxtest.Run("first", "")),
		docxtest.Paragraph("", docxtest.Run("second", "")),
	))

	assert.True(t, ix.WithinOneParagraph(runindex.Range{Start: 0, End: 5}))
	assert.False(t, ix.WithinOneParagraph(runindex.Range{Start: 3, End: 8}))
	assert.True(t, ix.WithinOneParagraph(runindex.Range{Start: 2, End: 2}), "zero-length ranges are trivially within one")
}

func TestParagraphBookkeeping(t *testing.T) {
	ix := runindex.Build(body(t,
		docxtest.Paragraph("Heading1", docxtest.Run("title", "")),
		docxtest.Paragraph("", docxtest.Run("body text", "")),
	))

	assert.Equal(t, 2, ix.ParagraphCount())
	assert.Equal(t, 0, ix.ParagraphIndexAt(2))
	assert.Equal(t, 1, ix.ParagraphIndexAt(7))
}

func TestEmptyBody(t *testing.T) {
	ix := runindex.Build(body(t))
	assert.Equal(t, "", ix.Text())
	assert.Equal(t, 0, ix.ParagraphCount())
	_, ok := ix.Find("anything")
	assert.False(t, ok)
	_, _, ok = ix.SegmentAt(0)
	assert.False(t, ok)
}
