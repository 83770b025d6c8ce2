package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/widget"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(widget.Render(m.summary))
	b.WriteString("\n")

	renderedTabs := make([]string, len(tabs))
	for i, t := range tabs {
		if m.state == constants.SessionState(i) {
			renderedTabs[i] = activeTabStyle.Render(t)
		} else {
			renderedTabs[i] = inactiveTabStyle.Render(t)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...))
	b.WriteString("\n")

	switch m.state {
	case constants.StateHabits:
		b.WriteString(m.habitsModel.View())
	case constants.StateMood:
		b.WriteString(m.moodsModel.View())
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m))
	return b.String()
}
