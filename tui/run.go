package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// ErrNotTerminal is returned by Run when stdout is not an interactive terminal
var ErrNotTerminal = errors.New("interactive mode requires a terminal")

// Run starts the interactive browser and blocks until the user quits or ctx
// is cancelled. The controller is closed on return.
func Run(ctx context.Context, cfg Config) error {
	defer cfg.Controller.Close()

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return ErrNotTerminal
	}

	model := New(ctx, cfg)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
