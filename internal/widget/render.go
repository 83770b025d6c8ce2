package widget

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 28

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	cheerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().Bold(true)
)

func bar(percent int) string {
	p := progress.New(progress.WithSolidFill("205"), progress.WithWidth(barWidth), progress.WithoutPercentage())
	return p.ViewAs(float64(percent) / 100)
}

// Render draws s as a terminal card.
func Render(s Summary) string {
	var b strings.Builder

	b.WriteString(cheerStyle.Render(s.Cheer))
	b.WriteString("\n")
	b.WriteString(bar(s.OverallPercent))
	b.WriteString(" ")
	b.WriteString(mutedStyle.Render(s.Count()))
	b.WriteString("\n\n")

	b.WriteString(s.Card.Emoji + " " + titleStyle.Render(s.Card.Title))
	b.WriteString("\n")
	if s.Card.Selected {
		b.WriteString(bar(s.Card.Percent))
		b.WriteString(" ")
	}
	b.WriteString(mutedStyle.Render(s.Card.Progress))

	return cardStyle.Render(b.String())
}
