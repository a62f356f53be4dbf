package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"redline/pkg/docmodel"
)

// View states for the browser.
const (
	ViewList = iota
	ViewDetail
	ViewQuitting
)

// Item kinds.
const (
	KindChange  = "change"
	KindComment = "comment"
)

// ReviewItem represents one tracked change or comment for the list.
type ReviewItem struct {
	Kind      string
	Line      string // single-line display
	Author    string
	Date      string
	Body      string
	Anchor    string // comment anchor text, empty for changes
	Paragraph int
}

func (r ReviewItem) Title() string       { return r.Line }
func (r ReviewItem) Description() string { return "" }
func (r ReviewItem) FilterValue() string { return r.Line }

// model is the Bubbletea model for the review browser.
type model struct {
	list       list.Model
	items      []ReviewItem
	ActiveView int
	file       string
	summary    docmodel.Summary
	height     int
	width      int
}

// reviewItems flattens a document's tracked changes and comments into
// list entries, changes first.
func reviewItems(doc *docmodel.Document) []ReviewItem {
	var items []ReviewItem
	for _, p := range doc.Paragraphs {
		for _, tc := range p.TrackedChanges {
			verb := "+"
			if tc.Type == docmodel.ChangeDelete {
				verb = "-"
			}
			items = append(items, ReviewItem{
				Kind:      KindChange,
				Line:      fmt.Sprintf("[%s] %s  (%s)", verb, truncate(tc.Text, 50), tc.Author),
				Author:    tc.Author,
				Date:      tc.Date,
				Body:      tc.Text,
				Paragraph: p.Index,
			})
		}
	}
	for _, c := range doc.Comments {
		items = append(items, ReviewItem{
			Kind:      KindComment,
			Line:      fmt.Sprintf("[c] %s  (%s)", truncate(c.Text, 50), c.Author),
			Author:    c.Author,
			Date:      c.Date,
			Body:      c.Text,
			Anchor:    c.AnchorText,
			Paragraph: c.ParagraphIndex,
		})
	}
	return items
}

// InitialModel creates the initial browser model.
func InitialModel(file string, doc *docmodel.Document, height int) model {
	items := reviewItems(doc)
	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = it
	}
	listHeight := max(height-8, 5)
	defaultWidth := 80
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	l := list.New(listItems, delegate, defaultWidth, listHeight)
	l.Title = file

	return model{
		list:    l,
		items:   items,
		file:    file,
		summary: doc.Summarize(),
		height:  height,
		width:   defaultWidth,
	}
}

// selected returns the currently highlighted item, if any.
func (m model) selected() (ReviewItem, bool) {
	it, ok := m.list.SelectedItem().(ReviewItem)
	return it, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// max returns the maximum of two ints.
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
