package ui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the TUI on out while job runs and returns the job's error.
func Run(ctx context.Context, title string, out io.Writer, job Job) error {
	m := NewModel(ctx, title, job)
	prog := tea.NewProgram(m, tea.WithOutput(out))
	final, err := prog.Run()
	m.cancel()
	if err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	if fm, ok := final.(Model); ok {
		return fm.Err()
	}
	return nil
}
