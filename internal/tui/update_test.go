package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redline/pkg/docmodel"
)

func browserModel() model {
	doc := &docmodel.Document{
		Paragraphs: []docmodel.Paragraph{
			{
				Index: 0,
				Text:  "The quick brown fox",
				TrackedChanges: []docmodel.TrackedChange{
					{Type: docmodel.ChangeInsert, Text: "quick ", Author: "Alice", Date: "2024-01-15T10:00:00Z", ID: "1"},
					{Type: docmodel.ChangeDelete, Text: "slow ", Author: "Alice", Date: "2024-01-15T10:00:00Z", ID: "2"},
				},
			},
		},
		Comments: []docmodel.Comment{
			{ID: "0", Author: "Bob", Text: "Is this right?", AnchorText: "brown fox", ParagraphIndex: 0},
		},
	}
	return InitialModel("sample.docx", doc, 24)
}

func key(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitialModelItems(t *testing.T) {
	m := browserModel()
	require.Len(t, m.items, 3)
	assert.Equal(t, KindChange, m.items[0].Kind)
	assert.Equal(t, KindChange, m.items[1].Kind)
	assert.Equal(t, KindComment, m.items[2].Kind)
	assert.Equal(t, "brown fox", m.items[2].Anchor)
}

func TestUpdateEnterOpensDetail(t *testing.T) {
	m := browserModel()
	require.Equal(t, ViewList, m.ActiveView)

	m, _ = Update(m, key("enter"))
	assert.Equal(t, ViewDetail, m.ActiveView)

	m, _ = Update(m, key("enter"))
	assert.Equal(t, ViewList, m.ActiveView)
}

func TestUpdateQuit(t *testing.T) {
	m := browserModel()
	m, cmd := Update(m, key("q"))
	assert.Equal(t, ViewQuitting, m.ActiveView)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestUpdateWindowResize(t *testing.T) {
	m := browserModel()
	m, _ = Update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}
