// Package tui is an interactive schedule explorer built on BubbleTea. It
// shows the task table with float and critical flags, and previews the
// impact of slipping the selected task one day at a time.
package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/critpath/internal/schedule"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// NewProgram creates a BubbleTea program over s.
// The program uses the alternate screen buffer for a clean TUI experience.
func NewProgram(name string, s *schedule.Schedule, opts ...tea.ProgramOption) *Program {
	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
	}
	allOpts = append(allOpts, opts...)
	return tea.NewProgram(NewAppModel(name, s), allOpts...)
}

// Run creates and runs a TUI program, blocking until it exits.
func Run(name string, s *schedule.Schedule) error {
	if _, err := NewProgram(name, s).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// WithOutput returns a program option that directs TUI output to the given writer.
func WithOutput(w io.Writer) tea.ProgramOption {
	return tea.WithOutput(w)
}

// WithInput returns a program option that reads keys from r.
func WithInput(r io.Reader) tea.ProgramOption {
	return tea.WithInput(r)
}
