// Package tui is the interactive page builder: cards can be dragged with the mouse and
// rearranged from the keyboard.
package tui

import (
	"context"

	"biolink-cli/internal/builder"

	tea "github.com/charmbracelet/bubbletea"
)

func Run(ctx context.Context, b *builder.Builder, opts Options) error {
	themeOnce.Do(applyThemePreference)
	applyColorProfilePreference()

	m := New(ctx, b, opts)
	_, err := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	).Run()
	// A drag still open when the program exits is cancelled so the overlay never outlives it.
	b.AbortDrag()
	return err
}
