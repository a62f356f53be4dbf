package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// WordprocessingML namespaces used when emitting new elements.
const (
	NSWordprocessingML = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NSRelationships    = "http://schemas.openxmlformats.org/package/2006/relationships"
)

// Is reports whether e is a WordprocessingML element with the given local
// name. Matching ignores the namespace prefix, the way the streaming readers
// in this ecosystem match on Name.Local: producers are free to bind the
// wordprocessingml namespace to any prefix.
func Is(e *etree.Element, local string) bool {
	return e != nil && e.Tag == local
}

// Attr returns the value of the attribute with the given local name,
// ignoring its namespace prefix, or "" if absent.
func Attr(e *etree.Element, local string) string {
	for _, a := range e.Attr {
		if a.Key == local {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether an attribute with the given local name exists.
func HasAttr(e *etree.Element, local string) bool {
	for _, a := range e.Attr {
		if a.Key == local {
			return true
		}
	}
	return false
}

// Body returns the w:body element of a parsed main document part.
func Body(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}
	for _, ch := range root.ChildElements() {
		if Is(ch, "body") {
			return ch
		}
	}
	return nil
}

// PreserveSpace marks a w:t (or w:delText) element so leading or trailing
// whitespace in its text survives consumers that trim by default.
func PreserveSpace(e *etree.Element) {
	text := e.Text()
	if text != strings.TrimSpace(text) {
		e.CreateAttr("xml:space", "preserve")
	}
}

// InsertAfterElement places newEl as a sibling immediately following ref.
func InsertAfterElement(ref, newEl *etree.Element) {
	parent := ref.Parent()
	parent.InsertChildAt(ref.Index()+1, newEl)
}

// InsertBeforeElement places newEl as a sibling immediately preceding ref.
func InsertBeforeElement(ref, newEl *etree.Element) {
	parent := ref.Parent()
	parent.InsertChildAt(ref.Index(), newEl)
}
