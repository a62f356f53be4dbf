// Package textconv renders a document as deterministic plain text so that
// version-control diff drivers can compare .docx files line by line. Every
// review-visible layer (body text, tracked changes, comments, tables,
// images) gets a stable textual projection.
package textconv

import (
	"fmt"
	"io"
	"strings"

	"redline/pkg/docmodel"
)

const anchorPreview = 60

// Write emits the five-section projection of doc to w. Sections appear in a
// fixed order and are separated by a single blank line; output is identical
// across runs on identical inputs.
func Write(w io.Writer, doc *docmodel.Document) error {
	var b strings.Builder
	writeMetadata(&b, doc)
	b.WriteString("\n")
	writeBody(&b, doc)
	b.WriteString("\n")
	writeTables(&b, doc)
	b.WriteString("\n")
	writeComments(&b, doc)
	b.WriteString("\n")
	writeImages(&b, doc)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMetadata(b *strings.Builder, doc *docmodel.Document) {
	b.WriteString("=== METADATA ===\n")
	m := doc.Metadata
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(b, "%s: %s\n", label, value)
		}
	}
	line("Title", m.Title)
	line("Author", m.Author)
	line("LastModifiedBy", m.LastModifiedBy)
	line("Modified", m.Modified)
	line("Revision", m.Revision)
	fmt.Fprintf(b, "Words: %d\n", m.WordCount)
	fmt.Fprintf(b, "Paragraphs: %d\n", m.ParagraphCount)
}

func writeBody(b *strings.Builder, doc *docmodel.Document) {
	b.WriteString("=== BODY ===\n")
	for _, p := range doc.Paragraphs {
		fmt.Fprintf(b, "\u00b6%d", p.Index)
		if p.Style != "" {
			fmt.Fprintf(b, " [%s]", p.Style)
		}
		b.WriteString(" ")
		b.WriteString(richText(p))
		for _, c := range doc.Comments {
			if c.ParagraphIndex == p.Index {
				fmt.Fprintf(b, " /* [%s] %s */", c.Author, oneLine(c.Text))
			}
		}
		b.WriteString("\n")
	}
}

// richText concatenates a paragraph's runs with inline review markers.
// Tracked deletions have no surviving run, so they are prepended to the
// line as [-text-]; insertions keep their position and are wrapped [+text+].
func richText(p docmodel.Paragraph) string {
	var b strings.Builder
	for _, tc := range p.TrackedChanges {
		if tc.Type == docmodel.ChangeDelete {
			fmt.Fprintf(&b, "[-%s-]", tc.Text)
		}
	}
	for _, r := range p.Runs {
		text := r.Text
		if r.Format.Strike {
			text = "[S]" + text + "[/S]"
		}
		if r.Format.Underlined() {
			text = "[U]" + text + "[/U]"
		}
		if r.Format.Italic {
			text = "[I]" + text + "[/I]"
		}
		if r.Format.Bold {
			text = "[B]" + text + "[/B]"
		}
		if r.Inserted {
			text = "[+" + text + "+]"
		}
		b.WriteString(text)
	}
	return b.String()
}

func writeTables(b *strings.Builder, doc *docmodel.Document) {
	b.WriteString("=== TABLES ===\n")
	for _, t := range doc.Tables {
		fmt.Fprintf(b, "Table %d (%d\u00d7%d) at \u00b6%d:\n", t.Index, t.Rows, t.Cols, t.ParagraphIndex)
		for _, row := range t.Cells {
			b.WriteString("| ")
			b.WriteString(strings.Join(row, " | "))
			b.WriteString(" |\n")
		}
	}
}

func writeComments(b *strings.Builder, doc *docmodel.Document) {
	b.WriteString("=== COMMENTS ===\n")
	for _, c := range doc.Comments {
		anchor := c.AnchorText
		if r := []rune(anchor); len(r) > anchorPreview {
			anchor = string(r[:anchorPreview]) + "..."
		}
		fmt.Fprintf(b, "#%s [%s] on %q (\u00b6%d): %s\n", c.ID, c.Author, anchor, c.ParagraphIndex, oneLine(c.Text))
	}
}

func writeImages(b *strings.Builder, doc *docmodel.Document) {
	b.WriteString("=== IMAGES ===\n")
	for _, img := range doc.Images {
		sum := img.SHA256
		if len(sum) > 12 {
			sum = sum[:12]
		}
		fmt.Fprintf(b, "[IMG] %s (%s, %d bytes, sha256:%s...)\n", img.FileName, img.MediaType, img.Bytes, sum)
	}
}

// oneLine keeps multi-paragraph comment bodies on a single output line.
func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
