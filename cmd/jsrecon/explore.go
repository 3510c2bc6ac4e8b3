package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/imoan723/JSRecon-Buddy/pkg/explore"
	"github.com/spf13/cobra"
)

var exploreCmd = &cobra.Command{
	Use:   "explore <export.json>",
	Short: "Interactively browse an exported scan report",
	Long: `Launch an interactive TUI over a JSON report produced by
"jsrecon scan --format json".

Three panes: categories, findings, and occurrence detail. Navigate with
tab and j/k, filter with /, quit with q.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplore,
}

func runExplore(cmd *cobra.Command, args []string) error {
	model, err := explore.New(args[0])
	if err != nil {
		return fmt.Errorf("loading report: %w", err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running explore TUI: %w", err)
	}
	return nil
}
