// Package splice rewrites the main document tree so a located range becomes
// tracked-change markup. Boundary runs are split so the range corresponds to
// whole runs, then the runs are wrapped (w:del) or new runs are inserted
// next to them (w:ins). Source run properties are always cloned, never
// mutated. Every operation invalidates the index it was given.
package splice

import (
	"errors"

	"github.com/beevik/etree"

	"redline/internal/docx"
	"redline/internal/runindex"
)

// Per-operation failures the driver reports without aborting the manifest.
var (
	ErrEmptyRange     = errors.New("zero-length range")
	ErrMultiParagraph = errors.New("target spans multiple paragraphs")
	ErrNoTarget       = errors.New("range resolves to no visible content")
)

// Splicer applies one edit run's tracked changes. Author and Date become
// the w:author/w:date attributes of every revision it emits.
type Splicer struct {
	Author string
	Date   string
	Rev    *Revisions
}

// Replace wraps the range in a deletion and inserts a tracked insertion of
// newText immediately after it. The new run's properties are cloned from
// the first run of the range.
func (s *Splicer) Replace(ix *runindex.Index, r runindex.Range, newText string) error {
	if r.Len() == 0 {
		return ErrEmptyRange
	}
	if !ix.WithinOneParagraph(r) {
		return ErrMultiParagraph
	}
	runs, err := isolateRange(ix, r)
	if err != nil {
		return err
	}
	props := runProps(runs[0])
	del := s.wrapRevisions(runs, "del")
	ins := s.newRevision("ins")
	ins.AddChild(newRun(props, newText))
	// Directly after the deletion, even when that nests the insertion
	// inside an existing revision container; word order survives.
	docx.InsertAfterElement(del, ins)
	return nil
}

// Delete wraps the range in a deletion.
func (s *Splicer) Delete(ix *runindex.Index, r runindex.Range) error {
	if r.Len() == 0 {
		return ErrEmptyRange
	}
	if !ix.WithinOneParagraph(r) {
		return ErrMultiParagraph
	}
	runs, err := isolateRange(ix, r)
	if err != nil {
		return err
	}
	s.wrapRevisions(runs, "del")
	return nil
}

// InsertAfter leaves the range unchanged and inserts a tracked insertion of
// text immediately after it, cloning properties from the range's last run.
// A zero-length range is treated as a caret.
func (s *Splicer) InsertAfter(ix *runindex.Index, r runindex.Range, text string) error {
	if !ix.WithinOneParagraph(r) {
		return ErrMultiParagraph
	}
	propsAt := r.End
	if r.Len() > 0 {
		propsAt = r.End - 1
	}
	return s.insertAt(ix, r.End, propsAt, text)
}

// InsertBefore inserts a tracked insertion immediately before the range,
// cloning properties from the range's first run.
func (s *Splicer) InsertBefore(ix *runindex.Index, r runindex.Range, text string) error {
	if !ix.WithinOneParagraph(r) {
		return ErrMultiParagraph
	}
	return s.insertAt(ix, r.Start, r.Start, text)
}

// insertAt splices a w:ins holding one run at stream position p. propsAt
// names the position whose owning run donates the run properties.
func (s *Splicer) insertAt(ix *runindex.Index, p, propsAt int, text string) error {
	propsSeg, _, ok := ix.SegmentAt(propsAt)
	if !ok {
		return ErrNoTarget
	}
	props := runProps(propsSeg.Run)

	seg, off, ok := ix.SegmentAt(p)
	if !ok {
		return ErrNoTarget
	}
	if off == 0 && seg.ParaIndex != propsSeg.ParaIndex {
		// p sits on a paragraph boundary, so SegmentAt resolved it to the
		// next paragraph's first segment. The insertion belongs at the tail
		// of the donor's segment in its own paragraph.
		seg, off = propsSeg, len(propsSeg.Data)
	}
	ins := s.newRevision("ins")
	ins.AddChild(newRun(props, text))

	run, textEl := seg.Run, seg.Text
	if off == len(seg.Data) && off > 0 {
		// Caret past the last visible character: the insertion trails the
		// segment's run.
		if hasContentAfter(run, textEl) {
			splitAfter(run, textEl, off)
		}
		docx.InsertAfterElement(liftToParagraph(run), ins)
		return nil
	}
	if off > 0 {
		splitBefore(run, textEl, off)
	} else if hasContentBefore(run, textEl) {
		splitBefore(run, textEl, 0)
	}
	docx.InsertBeforeElement(liftToParagraph(run), ins)
	return nil
}

// isolateRange splits the boundary runs so r maps onto a whole-run
// subsequence, returned in document order. The caller's index is stale
// afterwards.
func isolateRange(ix *runindex.Index, r runindex.Range) ([]*etree.Element, error) {
	spans := ix.Spans(r)
	if len(spans) == 0 {
		return nil, ErrNoTarget
	}
	first := spans[0]
	last := spans[len(spans)-1]

	headShift := 0
	if first.From > 0 {
		splitBefore(first.Seg.Run, first.Seg.Text, first.From)
		if last.Seg.Text == first.Seg.Text {
			headShift = first.From
		}
	} else if hasContentBefore(first.Seg.Run, first.Seg.Text) {
		splitBefore(first.Seg.Run, first.Seg.Text, 0)
	}

	tailOff := last.To - headShift
	tailLen := len(last.Seg.Data) - headShift
	if tailOff < tailLen || hasContentAfter(last.Seg.Run, last.Seg.Text) {
		splitAfter(last.Seg.Run, last.Seg.Text, tailOff)
	}

	var runs []*etree.Element
	for _, sp := range spans {
		if len(runs) == 0 || runs[len(runs)-1] != sp.Seg.Run {
			runs = append(runs, sp.Seg.Run)
		}
	}
	return runs, nil
}

// wrapRevisions moves consecutive same-parent runs into revision containers
// and, for deletions, retags their text nodes as deleted text. It returns
// the last container created.
func (s *Splicer) wrapRevisions(runs []*etree.Element, kind string) *etree.Element {
	var groups [][]*etree.Element
	for _, run := range runs {
		n := len(groups)
		if n == 0 || groups[n-1][0].Parent() != run.Parent() {
			groups = append(groups, []*etree.Element{run})
		} else {
			groups[n-1] = append(groups[n-1], run)
		}
	}
	var wrapper *etree.Element
	for _, group := range groups {
		wrapper = s.newRevision(kind)
		docx.InsertBeforeElement(group[0], wrapper)
		for _, run := range group {
			run.Parent().RemoveChild(run)
			wrapper.AddChild(run)
		}
		if kind == "del" {
			retagDeletedText(wrapper)
		}
	}
	return wrapper
}

func (s *Splicer) newRevision(kind string) *etree.Element {
	el := etree.NewElement("w:" + kind)
	el.CreateAttr("w:id", s.Rev.Next())
	el.CreateAttr("w:author", s.Author)
	el.CreateAttr("w:date", s.Date)
	return el
}

// retagDeletedText renames every w:t under el to w:delText.
func retagDeletedText(el *etree.Element) {
	walkElements(el, func(e *etree.Element) {
		if docx.Is(e, "t") {
			e.Tag = "delText"
		}
	})
}

// newRun builds a w:r with a deep-copied properties element and one text
// node.
func newRun(props *etree.Element, text string) *etree.Element {
	r := etree.NewElement("w:r")
	if props != nil {
		r.AddChild(props.Copy())
	}
	t := r.CreateElement("w:t")
	t.SetText(text)
	docx.PreserveSpace(t)
	return r
}

// runProps returns the run's w:rPr element, or nil.
func runProps(run *etree.Element) *etree.Element {
	for _, ch := range run.ChildElements() {
		if docx.Is(ch, "rPr") {
			return ch
		}
	}
	return nil
}

// liftToParagraph climbs from el to the child of its paragraph, so sibling
// insertions land at paragraph level rather than inside a revision or
// hyperlink wrapper.
func liftToParagraph(el *etree.Element) *etree.Element {
	for p := el.Parent(); p != nil && !docx.Is(p, "p") && !docx.Is(p, "body"); p = el.Parent() {
		el = p
	}
	return el
}
