package system

import (
	"fmt"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/widget"
)

type WidgetCmd struct {
	Plus    bool `help:"Add the selected habit's default increment first."`
	Refresh bool `help:"Only rewrite the widget snapshot file."`
}

func (c *WidgetCmd) Run(ctx *cli.Context) error {
	if c.Plus {
		applied, err := widget.Plus(ctx.Repo)
		if err != nil {
			return err
		}
		if !applied {
			fmt.Println("No habit selected. Use 'settings --widget-habit' to choose one.")
		}
	}

	if c.Refresh {
		if err := ctx.Widget.RefreshAll(); err != nil {
			return fmt.Errorf("failed to refresh widget: %w", err)
		}
		fmt.Printf("✓ Widget snapshot written to %s\n", ctx.Widget.Path())
		return nil
	}

	summary, err := widget.Load(ctx.Repo)
	if err != nil {
		return err
	}
	fmt.Println(widget.Render(summary))
	return nil
}
