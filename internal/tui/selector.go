// Package tui asks for the options that were not given on the command line.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	generr "shireesh.com/stackgen/internal/errors"
)

// Choice is one selectable entry. An empty Value means "none".
type Choice struct {
	Value string
	Label string
}

type model struct {
	title    string
	choices  []Choice
	cursor   int
	selected bool
	aborted  bool
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			m.selected = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.aborted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	var s strings.Builder
	s.WriteString(m.title + "\n\n")
	for i, choice := range m.choices {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		s.WriteString(cursor + " " + choice.Label + "\n")
	}
	if m.selected {
		s.WriteString("\n")
	}
	return s.String()
}

// Select shows choices as a list and returns the value of the one picked.
func Select(title string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", generr.New(generr.EUsage, "nothing to choose from")
	}
	p := tea.NewProgram(model{title: title, choices: choices})
	m, err := p.Run()
	if err != nil {
		return "", generr.Wrap(generr.EIO, "run selector", err)
	}
	return result(m.(model))
}

func result(m model) (string, error) {
	if m.aborted || !m.selected {
		return "", generr.New(generr.EUsage, "selection aborted")
	}
	return m.choices[m.cursor].Value, nil
}
