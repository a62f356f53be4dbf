// Package docxtest builds throwaway .docx containers in memory so package
// tests need no binary fixtures checked in.
package docxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Run renders one w:r element. Props is the raw inner XML of w:rPr
// (for example `<w:b/>`); empty means no run properties.
func Run(text, props string) string {
	var b strings.Builder
	b.WriteString("<w:r>")
	if props != "" {
		b.WriteString("<w:rPr>" + props + "</w:rPr>")
	}
	space := ""
	if text != strings.TrimSpace(text) {
		space = ` xml:space="preserve"`
	}
	fmt.Fprintf(&b, "<w:t%s>%s</w:t>", space, escape(text))
	b.WriteString("</w:r>")
	return b.String()
}

// Paragraph renders one w:p element from pre-rendered inline children.
func Paragraph(style string, children ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	if style != "" {
		fmt.Fprintf(&b, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, style)
	}
	for _, c := range children {
		b.WriteString(c)
	}
	b.WriteString("</w:p>")
	return b.String()
}

// Ins wraps runs in a tracked insertion.
func Ins(id, author, date string, runs ...string) string {
	return fmt.Sprintf(`<w:ins w:id="%s" w:author="%s" w:date="%s">%s</w:ins>`,
		id, author, date, strings.Join(runs, ""))
}

// Del wraps runs in a tracked deletion; each run's text must already be
// rendered with DelRun.
func Del(id, author, date string, runs ...string) string {
	return fmt.Sprintf(`<w:del w:id="%s" w:author="%s" w:date="%s">%s</w:del>`,
		id, author, date, strings.Join(runs, ""))
}

// DelRun renders a run whose text carries the deleted-text tag.
func DelRun(text, props string) string {
	var b strings.Builder
	b.WriteString("<w:r>")
	if props != "" {
		b.WriteString("<w:rPr>" + props + "</w:rPr>")
	}
	fmt.Fprintf(&b, "<w:delText>%s</w:delText>", escape(text))
	b.WriteString("</w:r>")
	return b.String()
}

// DocumentXML renders a full main document part around body children.
func DocumentXML(blocks ...string) string {
	return xmlHeader +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		strings.Join(blocks, "") +
		`</w:body></w:document>`
}

// CommentsXML renders a comments part from pre-rendered w:comment elements.
func CommentsXML(comments ...string) string {
	return xmlHeader +
		`<w:comments xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		strings.Join(comments, "") +
		`</w:comments>`
}

// CommentEntry renders one w:comment element with a plain-text body.
func CommentEntry(id, author, date, body string) string {
	return fmt.Sprintf(`<w:comment w:id="%s" w:author="%s" w:date="%s"><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:comment>`,
		id, author, date, escape(body))
}

const defaultContentTypes = xmlHeader +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const defaultRootRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

// Build assembles a container from part name → content. Standard packaging
// parts are supplied when absent.
func Build(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	if _, ok := parts["[Content_Types].xml"]; !ok {
		parts["[Content_Types].xml"] = defaultContentTypes
	}
	if _, ok := parts["_rels/.rels"]; !ok {
		parts["_rels/.rels"] = defaultRootRels
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	// Content types first, then the rest in sorted order for stability.
	order := []string{"[Content_Types].xml", "_rels/.rels"}
	seen := map[string]bool{"[Content_Types].xml": true, "_rels/.rels": true}
	var rest []string
	for name := range parts {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("docxtest: create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			t.Fatalf("docxtest: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("docxtest: close zip: %v", err)
	}
	return buf.Bytes()
}

// WriteFile materializes a container in t.TempDir and returns its path.
func WriteFile(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	if err := os.WriteFile(path, Build(t, parts), 0o644); err != nil {
		t.Fatalf("docxtest: write file: %v", err)
	}
	return path
}

// WriteDoc is the common case: a container whose main document holds the
// given body blocks and no comments part.
func WriteDoc(t *testing.T, blocks ...string) string {
	t.Helper()
	return WriteFile(t, map[string]string{
		"word/document.xml": DocumentXML(blocks...),
	})
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
