package splice

import (
	"strings"

	"github.com/beevik/etree"

	"redline/internal/docx"
	"redline/internal/runindex"
)

// CommentWriter anchors comments: zero-width range markers in the main
// document plus a body entry in the comments part. IDs are allocated as the
// smallest non-negative integer not already used anywhere in the input.
type CommentWriter struct {
	store *docx.Store
	ids   *commentIDs
}

// NewCommentWriter scans the document and comments part for IDs in use.
func NewCommentWriter(store *docx.Store) (*CommentWriter, error) {
	doc, err := store.Document()
	if err != nil {
		return nil, err
	}
	comments, err := store.Comments()
	if err != nil {
		return nil, err
	}
	return &CommentWriter{store: store, ids: collectCommentIDs(doc, comments)}, nil
}

// Annotate brackets the range with comment markers and appends the comment
// body to the comments part, returning the allocated ID. Boundary runs are
// split the same way the splicer splits them; the markers themselves occupy
// no visible characters.
func (cw *CommentWriter) Annotate(ix *runindex.Index, r runindex.Range, author, date, body string) (string, error) {
	if !ix.WithinOneParagraph(r) {
		return "", ErrMultiParagraph
	}
	runs, err := isolateRange(ix, r)
	if err != nil {
		return "", err
	}

	id := cw.ids.alloc()

	start := etree.NewElement("w:commentRangeStart")
	start.CreateAttr("w:id", id)
	docx.InsertBeforeElement(liftToParagraph(runs[0]), start)

	end := etree.NewElement("w:commentRangeEnd")
	end.CreateAttr("w:id", id)
	docx.InsertAfterElement(liftToParagraph(runs[len(runs)-1]), end)

	refRun := etree.NewElement("w:r")
	refProps := refRun.CreateElement("w:rPr")
	refStyle := refProps.CreateElement("w:rStyle")
	refStyle.CreateAttr("w:val", "CommentReference")
	ref := refRun.CreateElement("w:commentReference")
	ref.CreateAttr("w:id", id)
	docx.InsertAfterElement(end, refRun)

	if err := cw.appendBody(id, author, date, body); err != nil {
		return "", err
	}
	return id, nil
}

// appendBody writes the w:comment entry. The body is one paragraph led by
// an annotation reference mark run.
func (cw *CommentWriter) appendBody(id, author, date, body string) error {
	comments, err := cw.store.EnsureComments()
	if err != nil {
		return err
	}
	c := comments.Root().CreateElement("w:comment")
	c.CreateAttr("w:id", id)
	c.CreateAttr("w:author", author)
	c.CreateAttr("w:initials", initials(author))
	c.CreateAttr("w:date", date)

	p := c.CreateElement("w:p")
	mark := p.CreateElement("w:r")
	markProps := mark.CreateElement("w:rPr")
	markStyle := markProps.CreateElement("w:rStyle")
	markStyle.CreateAttr("w:val", "CommentReference")
	mark.CreateElement("w:annotationRef")

	run := p.CreateElement("w:r")
	t := run.CreateElement("w:t")
	t.SetText(body)
	docx.PreserveSpace(t)

	cw.store.MarkDirty(docx.PartComments)
	return nil
}

// initials derives the w:initials attribute from an author name.
func initials(author string) string {
	var b strings.Builder
	for _, word := range strings.Fields(author) {
		r := []rune(word)
		if len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	if b.Len() == 0 {
		return "R"
	}
	return b.String()
}
