package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nestflow/nestflow/pkg/pipeline"
)

// viewCommand creates the view command for interactive graph exploration.
func (c *CLI) viewCommand() *cobra.Command {
	flags := layoutFlags{}

	cmd := &cobra.Command{
		Use:   "view [graph.json]",
		Short: "Explore a nested graph interactively",
		Long: `Explore a nested graph interactively.

The view command opens a terminal browser for the containment tree. Containers
can be collapsed and expanded; every toggle recomputes the layout and the
footer shows the resulting drawing dimensions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.resolveOptions(cmd, flags)
			if err != nil {
				return err
			}
			return c.runView(args[0], opts)
		},
	}

	flags.register(cmd)
	return cmd
}

// runView loads the graph and hands it to the bubbletea browser.
func (c *CLI) runView(input string, opts pipeline.Options) error {
	g, err := pipeline.LoadGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	if err := opts.ValidateForLayout(); err != nil {
		return err
	}

	model, err := NewGraphViewModel(g, opts.LayoutOptions())
	if err != nil {
		return fmt.Errorf("prepare view: %w", err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
