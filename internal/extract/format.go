package extract

import (
	"github.com/beevik/etree"

	"redline/internal/docx"
	"redline/pkg/docmodel"
)

// runFormat reads the w:rPr of a run into the neutral formatting record.
func runFormat(run *etree.Element) docmodel.RunFormat {
	var f docmodel.RunFormat
	var props *etree.Element
	for _, ch := range run.ChildElements() {
		if docx.Is(ch, "rPr") {
			props = ch
			break
		}
	}
	if props == nil {
		return f
	}
	for _, pr := range props.ChildElements() {
		switch {
		case docx.Is(pr, "b"):
			f.Bold = boolProp(pr)
		case docx.Is(pr, "i"):
			f.Italic = boolProp(pr)
		case docx.Is(pr, "strike"):
			f.Strike = boolProp(pr)
		case docx.Is(pr, "u"):
			// Tri-state: val "none" is an explicit off, any other value
			// (or no val) is on. Absence of w:u leaves the field nil.
			on := docx.Attr(pr, "val") != "none"
			f.Underline = &on
		case docx.Is(pr, "rFonts"):
			f.FontName = fontName(pr)
		case docx.Is(pr, "sz"):
			f.FontSize = docx.Attr(pr, "val") // half-points, verbatim
		case docx.Is(pr, "color"):
			f.Color = docx.Attr(pr, "val")
		case docx.Is(pr, "highlight"):
			f.Highlight = docx.Attr(pr, "val")
		}
	}
	return f
}

// boolProp interprets a toggle property: present means on unless the val
// attribute says otherwise.
func boolProp(pr *etree.Element) bool {
	switch docx.Attr(pr, "val") {
	case "0", "false", "none", "off":
		return false
	default:
		return true
	}
}

// fontName picks a face from the three rFonts slots: the Ascii slot wins,
// else HighAnsi, else ComplexScript.
func fontName(pr *etree.Element) string {
	if v := docx.Attr(pr, "ascii"); v != "" {
		return v
	}
	if v := docx.Attr(pr, "hAnsi"); v != "" {
		return v
	}
	return docx.Attr(pr, "cs")
}
