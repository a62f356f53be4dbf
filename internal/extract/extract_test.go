package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redline/internal/docx"
	"redline/internal/docx/docxtest"
	"redline/internal/extract"
	"redline/pkg/docmodel"
)

const testDate = "2024-01-15T10:00:00Z"

func extractPath(t *testing.T, path string) *docmodel.Document {
	t.Helper()
	store, err := docx.Open(path)
	require.NoError(t, err)
	defer store.Close()
	doc, err := extract.Extract(store)
	require.NoError(t, err)
	return doc
}

func TestExtractParagraphs(t *testing.T) {
	path := docxtest.WriteDoc(t,
		docxtest.Paragraph("Heading1", docxtest.Run("Quarterly Report", "")),
		docxtest.Paragraph("", docxtest.Run("Plain body text.", "")),
	)
	doc := extractPath(t, path)

	require.Len(t, doc.Paragraphs, 2)
	assert.Equal(t, "Heading1", doc.Paragraphs[0].Style)
	assert.Equal(t, "Quarterly Report", doc.Paragraphs[0].Text)
	assert.Equal(t, "", doc.Paragraphs[1].Style)
	assert.Equal(t, 2, doc.Metadata.ParagraphCount)
	assert.Equal(t, 5, doc.Metadata.WordCount)
}

func TestExtractTrackedChanges(t *testing.T) {
	path := docxtest.WriteDoc(t,
		docxtest.Paragraph("",
			docxtest.Run("The ", ""),
			docxtest.Del("3", "Alice", testDate, docxtest.DelRun("old", "")),
			docxtest.Ins("4", "Alice", testDate, docxtest.Run("new", "")),
			docxtest.Run(" word.", ""),
		),
	)
	doc := extractPath(t, path)

	require.Len(t, doc.Paragraphs, 1)
	p := doc.Paragraphs[0]
	assert.Equal(t, "The new word.", p.Text)

	require.Len(t, p.TrackedChanges, 2)
	del, ins := p.TrackedChanges[0], p.TrackedChanges[1]
	assert.Equal(t, docmodel.ChangeDelete, del.Type)
	assert.Equal(t, "old", del.Text)
	assert.Equal(t, "3", del.ID)
	assert.Equal(t, docmodel.ChangeInsert, ins.Type)
	assert.Equal(t, "new", ins.Text)
	assert.Equal(t, "Alice", ins.Author)
	assert.Equal(t, testDate, ins.Date)

	// The inserted run is flagged in the run list.
	var inserted []string
	for _, r := range p.Runs {
		if r.Inserted {
			inserted = append(inserted, r.Text)
		}
	}
	assert.Equal(t, []string{"new"}, inserted)

	s := doc.Summarize()
	assert.Equal(t, 2, s.TotalTrackedChanges)
	assert.Equal(t, 1, s.Insertions)
	assert.Equal(t, 1, s.Deletions)
	assert.Equal(t, []string{"Alice"}, s.ChangeAuthors)
}

func TestExtractRunFormats(t *testing.T) {
	path := docxtest.WriteDoc(t,
		docxtest.Paragraph("",
			docxtest.Run("bold", "<w:b/>"),
			docxtest.Run("quiet", `<w:b w:val="0"/><w:u w:val="none"/>`),
			docxtest.Run("fancy", `<w:i/><w:u w:val="single"/><w:rFonts w:ascii="Georgia"/><w:sz w:val="28"/><w:color w:val="FF0000"/>`),
		),
	)
	doc := extractPath(t, path)

	runs := doc.Paragraphs[0].Runs
	require.Len(t, runs, 3)

	assert.True(t, runs[0].Format.Bold)
	assert.Nil(t, runs[0].Format.Underline)

	assert.False(t, runs[1].Format.Bold)
	require.NotNil(t, runs[1].Format.Underline)
	assert.False(t, *runs[1].Format.Underline, `val "none" is an explicit off`)

	f := runs[2].Format
	assert.True(t, f.Italic)
	assert.True(t, f.Underlined())
	assert.Equal(t, "Georgia", f.FontName)
	assert.Equal(t, "28", f.FontSize)
	assert.Equal(t, "FF0000", f.Color)
}

func TestExtractComments(t *testing.T) {
	path := docxtest.WriteFile(t, map[string]string{
		"word/document.xml": docxtest.DocumentXML(
			docxtest.Paragraph("",
				docxtest.Run("We question the ", ""),
				`<w:commentRangeStart w:id="0"/>`,
				docxtest.Run("methodology", ""),
				`<w:commentRangeEnd w:id="0"/>`,
				docxtest.Run(" used here.", ""),
			)),
		"word/comments.xml": docxtest.CommentsXML(
			docxtest.CommentEntry("0", "Bob", testDate, "Needs a citation."),
		),
	})
	doc := extractPath(t, path)

	require.Len(t, doc.Comments, 1)
	c := doc.Comments[0]
	assert.Equal(t, "0", c.ID)
	assert.Equal(t, "Bob", c.Author)
	assert.Equal(t, "methodology", c.AnchorText)
	assert.Equal(t, "Needs a citation.", c.Text)
	assert.Equal(t, 0, c.ParagraphIndex)
}

func TestCommentAnchorIncludesDeletedText(t *testing.T) {
	// A replace inside a commented range: the anchor keeps the deleted
	// original, not the replacement.
	path := docxtest.WriteFile(t, map[string]string{
		"word/document.xml": docxtest.DocumentXML(
			docxtest.Paragraph("",
				`<w:commentRangeStart w:id="0"/>`,
				docxtest.Del("1", "Alice", testDate, docxtest.DelRun("methodology", "")),
				docxtest.Ins("2", "Alice", testDate, docxtest.Run("approach", "")),
				`<w:commentRangeEnd w:id="0"/>`,
			)),
		"word/comments.xml": docxtest.CommentsXML(
			docxtest.CommentEntry("0", "Bob", testDate, "Term check."),
		),
	})
	doc := extractPath(t, path)

	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "methodology", doc.Comments[0].AnchorText)
	assert.Equal(t, "approach", doc.Paragraphs[0].Text)
}

func TestCommentWithoutAnchor(t *testing.T) {
	path := docxtest.WriteFile(t, map[string]string{
		"word/document.xml": docxtest.DocumentXML(docxtest.Paragraph("", docxtest.Run("text", ""))),
		"word/comments.xml": docxtest.CommentsXML(
			docxtest.CommentEntry("5", "Bob", testDate, "Orphaned."),
		),
	})
	doc := extractPath(t, path)

	require.Len(t, doc.Comments, 1)
	assert.Equal(t, -1, doc.Comments[0].ParagraphIndex)
	assert.Equal(t, "", doc.Comments[0].AnchorText)
}

func TestUnmatchedCommentRangeStart(t *testing.T) {
	path := docxtest.WriteDoc(t,
		docxtest.Paragraph("",
			`<w:commentRangeStart w:id="9"/>`,
			docxtest.Run("never closed", ""),
		),
	)
	store, err := docx.Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = extract.Extract(store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comment range 9 has no matching end marker")
}

func TestExtractTable(t *testing.T) {
	table := `<w:tbl>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Value</w:t></w:r></w:p></w:tc></w:tr>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Total</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>42</w:t></w:r></w:p></w:tc></w:tr>` +
		`</w:tbl>`
	path := docxtest.WriteDoc(t,
		docxtest.Paragraph("", docxtest.Run("before", "")),
		table,
	)
	doc := extractPath(t, path)

	require.Len(t, doc.Tables, 1)
	tbl := doc.Tables[0]
	assert.Equal(t, 2, tbl.Rows)
	assert.Equal(t, 2, tbl.Cols)
	assert.Equal(t, 1, tbl.ParagraphIndex)
	assert.Equal(t, [][]string{{"Name", "Value"}, {"Total", "42"}}, tbl.Cells)
}

func TestExtractMetadata(t *testing.T) {
	core := `<?xml version="1.0"?>` +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">` +
		`<dc:title>Annual Review</dc:title>` +
		`<dc:creator>Carol</dc:creator>` +
		`<cp:lastModifiedBy>Dave</cp:lastModifiedBy>` +
		`<dcterms:modified>2024-03-01T08:30:00Z</dcterms:modified>` +
		`<cp:revision>7</cp:revision>` +
		`</cp:coreProperties>`
	path := docxtest.WriteFile(t, map[string]string{
		"word/document.xml": docxtest.DocumentXML(docxtest.Paragraph("", docxtest.Run("x", ""))),
		"docProps/core.xml": core,
	})
	doc := extractPath(t, path)

	m := doc.Metadata
	assert.Equal(t, "Annual Review", m.Title)
	assert.Equal(t, "Carol", m.Author)
	assert.Equal(t, "Dave", m.LastModifiedBy)
	assert.Equal(t, "2024-03-01T08:30:00Z", m.Modified)
	assert.Equal(t, "7", m.Revision)
}

func TestExtractImages(t *testing.T) {
	path := docxtest.WriteFile(t, map[string]string{
		"word/document.xml":  docxtest.DocumentXML(docxtest.Paragraph("", docxtest.Run("x", ""))),
		"word/media/pic.png": "PNGDATA",
		"word/_rels/document.xml.rels": `<?xml version="1.0"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId5" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/pic.png"/>` +
			`</Relationships>`,
	})
	doc := extractPath(t, path)

	require.Len(t, doc.Images, 1)
	img := doc.Images[0]
	assert.Equal(t, "pic.png", img.FileName)
	assert.Equal(t, "image/png", img.MediaType)
	assert.Equal(t, 7, img.Bytes)
	assert.Equal(t, "rId5", img.RelID)
	assert.Len(t, img.SHA256, 64)
}
