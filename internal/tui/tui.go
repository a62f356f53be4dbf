// Package tui is an interactive browser over a document's review layer:
// tracked changes and comments in a scrollable list with a detail view.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"redline/internal/docx"
	"redline/internal/extract"
)

// wrapText wraps input text to lines no longer than maxWidth display cells.
// It wraps on word boundaries to avoid breaking words when possible.
func wrapText(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}

	var lines []string
	for _, paragraph := range strings.Split(s, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var lineBuilder strings.Builder
		lineWidth := 0
		spaceWidth := runewidth.StringWidth(" ")
		for i, word := range words {
			wordWidth := runewidth.StringWidth(word)
			addedWidth := wordWidth
			if lineWidth > 0 {
				addedWidth += spaceWidth
			}
			if lineWidth+addedWidth > maxWidth {
				lines = append(lines, lineBuilder.String())
				lineBuilder.Reset()
				lineBuilder.WriteString(word)
				lineWidth = wordWidth
			} else {
				if lineWidth > 0 {
					lineBuilder.WriteString(" ")
					lineWidth += spaceWidth
				}
				lineBuilder.WriteString(word)
				lineWidth += wordWidth
			}
			if i == len(words)-1 {
				lines = append(lines, lineBuilder.String())
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Init initializes the browser model and returns any initial commands to run.
func (m model) Init() tea.Cmd {
	return nil
}

// Run opens the document at path and launches the review browser.
func Run(path string) error {
	store, err := docx.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := extract.Extract(store)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	m := InitialModel(path, doc, 24)
	p := tea.NewProgram(&teaModelAdapter{m})

	_, err = p.Run()
	return err
}

// teaModelAdapter adapts our model to the tea.Model interface using Update and ModelView.
type teaModelAdapter struct {
	m model
}

func (a *teaModelAdapter) Init() tea.Cmd {
	return a.m.Init()
}

func (a *teaModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m2, cmd := Update(a.m, msg)
	a.m = m2
	return a, cmd
}

func (a *teaModelAdapter) View() string {
	return ModelView(a.m)
}
