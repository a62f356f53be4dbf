// Package extract pulls a document into the neutral read model: paragraphs
// with runs and tracked changes, anchored comments, tables, images, headers
// and footers, and package metadata. It is the read-only inverse of the
// edit path.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"

	"redline/internal/docx"
	"redline/pkg/docmodel"
)

const timeLayout = "2006-01-02T15:04:05Z"

// Extract walks the container once and builds the read model.
func Extract(store *docx.Store) (*docmodel.Document, error) {
	doc, err := store.Document()
	if err != nil {
		return nil, err
	}
	body := docx.Body(doc)

	out := &docmodel.Document{File: store.Path()}

	anchors, err := scanBody(body, out)
	if err != nil {
		return nil, err
	}
	if err := readComments(store, anchors, out); err != nil {
		return nil, err
	}
	if err := readImages(store, out); err != nil {
		return nil, err
	}
	if err := readHeadersFooters(store, body, out); err != nil {
		return nil, err
	}
	if err := readMetadata(store, out); err != nil {
		return nil, err
	}
	out.Metadata.WordCount = out.WordCount()
	out.Metadata.ParagraphCount = len(out.Paragraphs)
	return out, nil
}

// anchor accumulates the text a comment range brackets.
type anchor struct {
	paraIndex int
	text      strings.Builder
}

// scanBody builds the paragraph and table lists and resolves comment
// anchors. Anchor text is the content the range bracketed when the comment
// was made: plain and deleted run text counts, text inserted afterwards
// does not (a replace whose target carries a comment keeps the original
// word as its anchor).
func scanBody(body *etree.Element, out *docmodel.Document) (map[string]*anchor, error) {
	anchors := map[string]*anchor{}
	open := map[string]*anchor{}
	paraIndex := 0
	tableIndex := 0

	for _, block := range body.ChildElements() {
		switch {
		case docx.Is(block, "p"):
			p := extractParagraph(block, paraIndex, anchors, open)
			out.Paragraphs = append(out.Paragraphs, p)
			paraIndex++
		case docx.Is(block, "tbl"):
			out.Tables = append(out.Tables, extractTable(block, tableIndex, paraIndex))
			tableIndex++
		}
	}
	if len(open) > 0 {
		ids := make([]string, 0, len(open))
		for id := range open {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return nil, fmt.Errorf("corrupt document: comment range %s has no matching end marker", ids[0])
	}
	return anchors, nil
}

func extractParagraph(para *etree.Element, paraIndex int, anchors, open map[string]*anchor) docmodel.Paragraph {
	p := docmodel.Paragraph{
		Index:          paraIndex,
		Style:          paragraphStyle(para),
		TrackedChanges: []docmodel.TrackedChange{},
	}
	var visible strings.Builder

	appendOpen := func(text string) {
		for _, a := range open {
			a.text.WriteString(text)
		}
	}

	for _, child := range para.ChildElements() {
		switch {
		case docx.Is(child, "commentRangeStart"):
			id := docx.Attr(child, "id")
			a := &anchor{paraIndex: paraIndex}
			anchors[id] = a
			open[id] = a
		case docx.Is(child, "commentRangeEnd"):
			delete(open, docx.Attr(child, "id"))
		case docx.Is(child, "r"):
			text := runText(child, "t")
			if text != "" {
				p.Runs = append(p.Runs, docmodel.Run{Text: text, Format: runFormat(child)})
				visible.WriteString(text)
				appendOpen(text)
			}
		case docx.Is(child, "ins"), docx.Is(child, "moveTo"):
			text := containerText(child, "t")
			if text != "" {
				for _, r := range child.ChildElements() {
					if docx.Is(r, "r") {
						if rt := runText(r, "t"); rt != "" {
							p.Runs = append(p.Runs, docmodel.Run{Text: rt, Format: runFormat(r), Inserted: true})
						}
					}
				}
				visible.WriteString(text)
			}
			p.TrackedChanges = append(p.TrackedChanges, trackedChange(child, docmodel.ChangeInsert, text))
		case docx.Is(child, "del"), docx.Is(child, "moveFrom"):
			text := containerText(child, "delText")
			appendOpen(text)
			p.TrackedChanges = append(p.TrackedChanges, trackedChange(child, docmodel.ChangeDelete, text))
		case docx.Is(child, "hyperlink"):
			text := containerText(child, "t")
			if text != "" {
				for _, r := range child.ChildElements() {
					if docx.Is(r, "r") {
						if rt := runText(r, "t"); rt != "" {
							p.Runs = append(p.Runs, docmodel.Run{Text: rt, Format: runFormat(r)})
						}
					}
				}
				visible.WriteString(text)
				appendOpen(text)
			}
		}
	}
	p.Text = visible.String()
	return p
}

func trackedChange(el *etree.Element, kind, text string) docmodel.TrackedChange {
	return docmodel.TrackedChange{
		Type:   kind,
		Text:   text,
		Author: docx.Attr(el, "author"),
		Date:   normalizeDate(docx.Attr(el, "date")),
		ID:     docx.Attr(el, "id"),
	}
}

func paragraphStyle(para *etree.Element) string {
	for _, ch := range para.ChildElements() {
		if docx.Is(ch, "pPr") {
			for _, pr := range ch.ChildElements() {
				if docx.Is(pr, "pStyle") {
					return docx.Attr(pr, "val")
				}
			}
		}
	}
	return ""
}

// runText concatenates the text nodes of one run with the given tag
// (t for visible runs, delText inside deletions).
func runText(run *etree.Element, tag string) string {
	var b strings.Builder
	for _, ch := range run.ChildElements() {
		if docx.Is(ch, tag) {
			b.WriteString(ch.Text())
		}
	}
	return b.String()
}

// containerText concatenates the run text of a revision or hyperlink
// wrapper. Visible wrappers may nest (an insertion edited again), so the
// t walk recurses; delText never crosses container boundaries.
func containerText(el *etree.Element, tag string) string {
	var b strings.Builder
	for _, ch := range el.ChildElements() {
		switch {
		case docx.Is(ch, "r"):
			b.WriteString(runText(ch, tag))
		case tag == "t" && (docx.Is(ch, "ins") || docx.Is(ch, "moveTo") || docx.Is(ch, "hyperlink")):
			b.WriteString(containerText(ch, tag))
		}
	}
	return b.String()
}

func extractTable(tbl *etree.Element, tableIndex, paraIndex int) docmodel.Table {
	t := docmodel.Table{Index: tableIndex, ParagraphIndex: paraIndex}
	for _, row := range tbl.ChildElements() {
		if !docx.Is(row, "tr") {
			continue
		}
		var cells []string
		for _, cell := range row.ChildElements() {
			if !docx.Is(cell, "tc") {
				continue
			}
			var parts []string
			for _, p := range cell.ChildElements() {
				if docx.Is(p, "p") {
					if text := visibleParagraphText(p); text != "" {
						parts = append(parts, text)
					}
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		if len(cells) > t.Cols {
			t.Cols = len(cells)
		}
		t.Cells = append(t.Cells, cells)
		t.Rows++
	}
	return t
}

// visibleParagraphText mirrors the runindex visibility rules for contexts
// (table cells, headers) where only the text matters.
func visibleParagraphText(para *etree.Element) string {
	var b strings.Builder
	for _, child := range para.ChildElements() {
		switch {
		case docx.Is(child, "r"):
			b.WriteString(runText(child, "t"))
		case docx.Is(child, "ins"), docx.Is(child, "moveTo"), docx.Is(child, "hyperlink"):
			b.WriteString(containerText(child, "t"))
		}
	}
	return b.String()
}

func readComments(store *docx.Store, anchors map[string]*anchor, out *docmodel.Document) error {
	out.Comments = []docmodel.Comment{}
	comments, err := store.Comments()
	if err != nil {
		return err
	}
	if comments == nil {
		return nil
	}
	for _, c := range comments.Root().ChildElements() {
		if !docx.Is(c, "comment") {
			continue
		}
		id := docx.Attr(c, "id")
		entry := docmodel.Comment{
			ID:             id,
			Author:         docx.Attr(c, "author"),
			Date:           normalizeDate(docx.Attr(c, "date")),
			Text:           commentBody(c),
			ParagraphIndex: -1,
		}
		if a, ok := anchors[id]; ok {
			entry.AnchorText = a.text.String()
			entry.ParagraphIndex = a.paraIndex
		}
		out.Comments = append(out.Comments, entry)
	}
	return nil
}

// commentBody joins the comment's paragraph texts with newlines.
func commentBody(c *etree.Element) string {
	var paras []string
	for _, p := range c.ChildElements() {
		if docx.Is(p, "p") {
			paras = append(paras, visibleParagraphText(p))
		}
	}
	return strings.Join(paras, "\n")
}

var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".emf":  "image/x-emf",
	".wmf":  "image/x-wmf",
	".svg":  "image/svg+xml",
}

func readImages(store *docx.Store, out *docmodel.Document) error {
	rels, err := store.Relationships()
	if err != nil {
		return err
	}
	targetToRel := map[string]string{}
	for id, target := range rels {
		targetToRel[target] = id
	}
	for _, name := range store.MediaNames() {
		data, err := store.ReadPart(name)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		fileName := path.Base(name)
		ext := strings.ToLower(path.Ext(fileName))
		mediaType := mediaTypes[ext]
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		out.Images = append(out.Images, docmodel.Image{
			RelID:     targetToRel["media/"+fileName],
			FileName:  fileName,
			MediaType: mediaType,
			Bytes:     len(data),
			SHA256:    hex.EncodeToString(sum[:]),
		})
	}
	return nil
}

func readHeadersFooters(store *docx.Store, body *etree.Element, out *docmodel.Document) error {
	rels, err := store.Relationships()
	if err != nil {
		return err
	}
	var sectPr *etree.Element
	for _, ch := range body.ChildElements() {
		if docx.Is(ch, "sectPr") {
			sectPr = ch
		}
	}
	if sectPr == nil {
		return nil
	}
	for _, ref := range sectPr.ChildElements() {
		var kind string
		switch {
		case docx.Is(ref, "headerReference"):
			kind = "header"
		case docx.Is(ref, "footerReference"):
			kind = "footer"
		default:
			continue
		}
		scope := docx.Attr(ref, "type")
		if scope == "" {
			scope = "default"
		}
		target := rels[docx.Attr(ref, "id")]
		if target == "" {
			continue
		}
		partName := "word/" + target
		if !store.HasPart(partName) {
			continue
		}
		part, err := store.ReadPartXML(partName)
		if err != nil {
			return err
		}
		var paras []string
		for _, p := range part.Root().ChildElements() {
			if docx.Is(p, "p") {
				if text := visibleParagraphText(p); text != "" {
					paras = append(paras, text)
				}
			}
		}
		out.HeadersFooters = append(out.HeadersFooters, docmodel.HeaderFooter{
			Kind:  kind,
			Scope: scope,
			Text:  strings.Join(paras, "\n"),
		})
	}
	return nil
}

func readMetadata(store *docx.Store, out *docmodel.Document) error {
	if !store.HasPart(docx.PartCoreProps) {
		return nil
	}
	core, err := store.ReadPartXML(docx.PartCoreProps)
	if err != nil {
		return err
	}
	for _, ch := range core.Root().ChildElements() {
		switch ch.Tag {
		case "title":
			out.Metadata.Title = ch.Text()
		case "creator":
			out.Metadata.Author = ch.Text()
		case "lastModifiedBy":
			out.Metadata.LastModifiedBy = ch.Text()
		case "created":
			out.Metadata.Created = normalizeDate(ch.Text())
		case "modified":
			out.Metadata.Modified = normalizeDate(ch.Text())
		case "revision":
			out.Metadata.Revision = ch.Text()
		}
	}
	return nil
}

// normalizeDate reformats a timestamp as ISO-8601 UTC with second
// precision; unparseable values pass through verbatim.
func normalizeDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999999999Z0700", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(timeLayout)
		}
	}
	return s
}
