package splice

import (
	"github.com/beevik/etree"

	"redline/internal/docx"
)

// splitBefore moves everything preceding offset off of textEl out of run
// into a fresh clone inserted before it. The original run keeps the suffix,
// so handles into it and into later content stay valid. off may be 0, which
// moves only the content children preceding textEl.
func splitBefore(run, textEl *etree.Element, off int) {
	idx := childElementIndex(run, textEl)
	if idx < 0 {
		return
	}
	data := textEl.Text()

	clone := run.Copy()
	kids := clone.ChildElements()
	ct := kids[idx]
	if off > 0 {
		ct.SetText(data[:off])
		docx.PreserveSpace(ct)
		removeContentAfter(clone, ct)
	} else {
		removeContentFrom(clone, ct)
	}

	if off > 0 {
		textEl.SetText(data[off:])
		docx.PreserveSpace(textEl)
	}
	removeContentBefore(run, textEl)

	if hasContent(clone) {
		docx.InsertBeforeElement(run, clone)
	}
}

// splitAfter moves everything following offset off of textEl out of run
// into a fresh clone inserted after it. The original run keeps the prefix.
// off may equal the text length, which moves only the content children
// following textEl.
func splitAfter(run, textEl *etree.Element, off int) {
	idx := childElementIndex(run, textEl)
	if idx < 0 {
		return
	}
	data := textEl.Text()

	clone := run.Copy()
	kids := clone.ChildElements()
	ct := kids[idx]
	if off < len(data) {
		ct.SetText(data[off:])
		docx.PreserveSpace(ct)
		removeContentBefore(clone, ct)
	} else {
		removeContentThrough(clone, ct)
	}

	if off < len(data) {
		textEl.SetText(data[:off])
		docx.PreserveSpace(textEl)
	}
	removeContentAfter(run, textEl)

	if hasContent(clone) {
		docx.InsertAfterElement(run, clone)
	}
}

// childElementIndex returns textEl's position among run's child elements.
func childElementIndex(run, textEl *etree.Element) int {
	for i, ch := range run.ChildElements() {
		if ch == textEl {
			return i
		}
	}
	return -1
}

// isContent reports whether a run child carries content. Run properties are
// the only child shared by both halves of a split.
func isContent(e *etree.Element) bool {
	return !docx.Is(e, "rPr")
}

func hasContent(run *etree.Element) bool {
	for _, ch := range run.ChildElements() {
		if isContent(ch) {
			return true
		}
	}
	return false
}

func hasContentBefore(run, ref *etree.Element) bool {
	for _, ch := range run.ChildElements() {
		if ch == ref {
			return false
		}
		if isContent(ch) {
			return true
		}
	}
	return false
}

func hasContentAfter(run, ref *etree.Element) bool {
	seen := false
	for _, ch := range run.ChildElements() {
		if ch == ref {
			seen = true
			continue
		}
		if seen && isContent(ch) {
			return true
		}
	}
	return false
}

func removeContentBefore(run, ref *etree.Element) {
	for _, ch := range run.ChildElements() {
		if ch == ref {
			return
		}
		if isContent(ch) {
			run.RemoveChild(ch)
		}
	}
}

func removeContentAfter(run, ref *etree.Element) {
	seen := false
	for _, ch := range run.ChildElements() {
		if ch == ref {
			seen = true
			continue
		}
		if seen && isContent(ch) {
			run.RemoveChild(ch)
		}
	}
}

// removeContentFrom removes ref and every content child after it.
func removeContentFrom(run, ref *etree.Element) {
	seen := false
	for _, ch := range run.ChildElements() {
		if ch == ref {
			seen = true
		}
		if seen && isContent(ch) {
			run.RemoveChild(ch)
		}
	}
}

// removeContentThrough removes every content child up to and including ref.
func removeContentThrough(run, ref *etree.Element) {
	for _, ch := range run.ChildElements() {
		stop := ch == ref
		if isContent(ch) {
			run.RemoveChild(ch)
		}
		if stop {
			return
		}
	}
}
