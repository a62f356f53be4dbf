// Package runindex flattens the visible text of a document body into one
// character stream and maps every position back to the run and text node
// that carries it. An index is a snapshot: any structural edit to the tree
// invalidates it, and callers rebuild before the next match.
package runindex

import (
	"sort"
	"strings"

	"github.com/beevik/etree"

	"redline/internal/docx"
)

// Segment is one contiguous slice of visible text owned by a single text
// node. Start is the segment's offset in the flattened stream.
type Segment struct {
	Para      *etree.Element // owning w:p
	ParaIndex int            // index among body paragraphs
	Child     *etree.Element // direct child of the paragraph holding the run
	Run       *etree.Element // the w:r carrying Text
	Text      *etree.Element // the w:t
	Start     int
	Data      string
}

// End returns the offset one past the segment's last character.
func (s Segment) End() int { return s.Start + len(s.Data) }

// Range is a half-open [Start, End) slice of the visible stream.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes the range covers.
func (r Range) Len() int { return r.End - r.Start }

// Span is a segment clipped to a range; From/To are byte offsets within
// Segment.Data.
type Span struct {
	Seg  Segment
	From int
	To   int
}

// Index is the flattened view of a body snapshot.
type Index struct {
	segments  []Segment
	text      string
	paraCount int
}

// Build walks the top-level paragraphs of a body once, left to right.
// Visible text is Run text plus InsertedRun/MoveToRun text; DeletedRun and
// MoveFromRun text is excluded, and comment range markers occupy nothing.
func Build(body *etree.Element) *Index {
	ix := &Index{}
	var sb strings.Builder
	for _, block := range body.ChildElements() {
		if !docx.Is(block, "p") {
			continue
		}
		ix.indexParagraph(block, ix.paraCount, &sb)
		ix.paraCount++
	}
	ix.text = sb.String()
	return ix
}

func (ix *Index) indexParagraph(para *etree.Element, paraIdx int, sb *strings.Builder) {
	for _, child := range para.ChildElements() {
		switch {
		case docx.Is(child, "r"):
			ix.indexRun(para, paraIdx, child, child, sb)
		case docx.Is(child, "ins"), docx.Is(child, "moveTo"), docx.Is(child, "hyperlink"):
			ix.indexContainer(para, paraIdx, child, child, sb)
		case docx.Is(child, "del"), docx.Is(child, "moveFrom"):
			// deleted text is not part of the visible stream
		default:
			// markers, bookmarks, properties: zero visible characters
		}
	}
}

// indexContainer walks a visible wrapper (w:ins, w:moveTo, w:hyperlink),
// recursing into nested visible wrappers. Nested deletions stay invisible.
func (ix *Index) indexContainer(para *etree.Element, paraIdx int, top, el *etree.Element, sb *strings.Builder) {
	for _, ch := range el.ChildElements() {
		switch {
		case docx.Is(ch, "r"):
			ix.indexRun(para, paraIdx, top, ch, sb)
		case docx.Is(ch, "ins"), docx.Is(ch, "moveTo"), docx.Is(ch, "hyperlink"):
			ix.indexContainer(para, paraIdx, top, ch, sb)
		}
	}
}

func (ix *Index) indexRun(para *etree.Element, paraIdx int, child, run *etree.Element, sb *strings.Builder) {
	for _, t := range run.ChildElements() {
		if !docx.Is(t, "t") {
			continue
		}
		data := t.Text()
		if data == "" {
			continue
		}
		ix.segments = append(ix.segments, Segment{
			Para:      para,
			ParaIndex: paraIdx,
			Child:     child,
			Run:       run,
			Text:      t,
			Start:     sb.Len(),
			Data:      data,
		})
		sb.WriteString(data)
	}
}

// Text returns the full visible stream.
func (ix *Index) Text() string { return ix.text }

// ParagraphCount returns the number of top-level body paragraphs.
func (ix *Index) ParagraphCount() int { return ix.paraCount }

// Find returns the first ordinal (byte-for-byte) occurrence of needle.
func (ix *Index) Find(needle string) (Range, bool) {
	at := strings.Index(ix.text, needle)
	if at < 0 {
		return Range{}, false
	}
	return Range{Start: at, End: at + len(needle)}, true
}

// SegmentAt returns the segment containing stream position p and p's offset
// within it. A position equal to the stream length resolves to one past the
// end of the last segment.
func (ix *Index) SegmentAt(p int) (Segment, int, bool) {
	if len(ix.segments) == 0 {
		return Segment{}, 0, false
	}
	if p >= len(ix.text) {
		last := ix.segments[len(ix.segments)-1]
		return last, len(last.Data), p == len(ix.text)
	}
	i := sort.Search(len(ix.segments), func(i int) bool {
		return ix.segments[i].End() > p
	})
	if i == len(ix.segments) {
		return Segment{}, 0, false
	}
	seg := ix.segments[i]
	return seg, p - seg.Start, true
}

// Spans returns the segments overlapped by r, each clipped to the range.
func (ix *Index) Spans(r Range) []Span {
	var out []Span
	for _, seg := range ix.segments {
		if seg.End() <= r.Start || seg.Start >= r.End {
			continue
		}
		from := 0
		if r.Start > seg.Start {
			from = r.Start - seg.Start
		}
		to := len(seg.Data)
		if r.End < seg.End() {
			to = r.End - seg.Start
		}
		out = append(out, Span{Seg: seg, From: from, To: to})
	}
	return out
}

// WithinOneParagraph reports whether every character of r lies in a single
// paragraph. Zero-length ranges are always within one.
func (ix *Index) WithinOneParagraph(r Range) bool {
	spans := ix.Spans(r)
	if len(spans) == 0 {
		return true
	}
	first := spans[0].Seg.ParaIndex
	for _, sp := range spans[1:] {
		if sp.Seg.ParaIndex != first {
			return false
		}
	}
	return true
}

// ParagraphIndexAt returns the index of the paragraph containing stream
// position p, or -1 when the stream is empty.
func (ix *Index) ParagraphIndexAt(p int) int {
	seg, _, ok := ix.SegmentAt(p)
	if !ok {
		return -1
	}
	return seg.ParaIndex
}
