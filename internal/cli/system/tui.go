package system

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	ctx.PerformAutomaticBackup()

	m := tui.NewModel(ctx.Repo)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
