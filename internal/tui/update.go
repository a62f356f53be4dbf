package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all Bubbletea update logic for the review browser.
func Update(m model, msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyMsg(m, msg)
	case tea.WindowSizeMsg:
		return handleWindowResize(m, msg)
	default:
		if m.ActiveView == ViewList {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func handleKeyMsg(m model, msg tea.KeyMsg) (model, tea.Cmd) {
	k := msg.String()

	switch m.ActiveView {
	case ViewQuitting:
		return m, nil

	case ViewDetail:
		switch k {
		case "ctrl+c", "q":
			m.ActiveView = ViewQuitting
			return m, tea.Quit
		case "enter", "esc", " ":
			m.ActiveView = ViewList
			return m, nil
		}
		return m, nil

	default: // ViewList
		switch k {
		case "ctrl+c", "q":
			m.ActiveView = ViewQuitting
			return m, tea.Quit
		case "enter":
			if _, ok := m.selected(); ok {
				m.ActiveView = ViewDetail
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
}

func handleWindowResize(m model, msg tea.WindowSizeMsg) (model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.list.SetSize(msg.Width-4, max(msg.Height-8, 5))
	return m, nil
}
