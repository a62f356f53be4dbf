package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ModelView renders the browser model's view as a string.
func ModelView(m model) string {
	switch m.ActiveView {
	case ViewQuitting:
		return quittingView()
	case ViewDetail:
		return detailView(m)
	default:
		return listView(m)
	}
}

func quittingView() string {
	return "Goodbye!\n"
}

func listView(m model) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	header := headerStyle.Render(fmt.Sprintf(
		"%d tracked changes (%d insertions, %d deletions), %d comments",
		m.summary.TotalTrackedChanges, m.summary.Insertions, m.summary.Deletions, m.summary.TotalComments,
	))

	body := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#555555")).
		Padding(1).
		Render(m.list.View())

	footer := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).
		Render("Enter: details  q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func detailView(m model) string {
	it, ok := m.selected()
	if !ok {
		return listView(m)
	}

	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	width := max(m.width-8, 20)

	kind := "Insertion"
	switch {
	case it.Kind == KindComment:
		kind = "Comment"
	case len(it.Line) > 0 && it.Line[1] == '-':
		kind = "Deletion"
	}

	content := fmt.Sprintf(
		"%s %s\n%s %s\n%s %s\n%s ¶%d\n\n%s",
		labelStyle.Render("Kind:"), kind,
		labelStyle.Render("Author:"), it.Author,
		labelStyle.Render("Date:"), it.Date,
		labelStyle.Render("Paragraph:"), it.Paragraph,
		wrapText(it.Body, width),
	)
	if it.Anchor != "" {
		content += "\n\n" + labelStyle.Render("Anchored on: ") + wrapText(it.Anchor, width)
	}
	content += "\n\nPress Enter or Esc to go back, q to quit."

	return lipgloss.NewStyle().Padding(1).BorderStyle(lipgloss.RoundedBorder()).Render(content)
}
