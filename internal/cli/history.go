package cli

import (
	"context"
	"errors"
	"time"

	"biolink-cli/internal/builder"
	"biolink-cli/internal/model"

	"github.com/spf13/cobra"
)

func newUndoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuilder(cmd, app, func(ctx context.Context, b *builder.Builder) (any, error) {
				if !b.Undo(ctx) {
					return nil, errors.New("nothing to undo")
				}
				return map[string]any{"data": sortedPage(b.Page()), "meta": mutationMeta(b, true)}, nil
			})
		},
	}
}

func newRedoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Redo the last undone change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuilder(cmd, app, func(ctx context.Context, b *builder.Builder) (any, error) {
				if !b.Redo(ctx) {
					return nil, errors.New("nothing to redo")
				}
				return map[string]any{"data": sortedPage(b.Page()), "meta": mutationMeta(b, true)}, nil
			})
		},
	}
}

type historyEntry struct {
	Title    string `json:"title" yaml:"title"`
	Elements int    `json:"elements" yaml:"elements"`
	Valid    bool   `json:"valid" yaml:"valid"`
}

type historyView struct {
	CanUndo    bool           `json:"canUndo" yaml:"canUndo"`
	CanRedo    bool           `json:"canRedo" yaml:"canRedo"`
	LastAction string         `json:"lastAction,omitempty" yaml:"lastAction,omitempty"`
	LastPush   *time.Time     `json:"lastPush,omitempty" yaml:"lastPush,omitempty"`
	Past       []historyEntry `json:"past" yaml:"past"`
	Future     []historyEntry `json:"future" yaml:"future"`
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the undo and redo stacks (past oldest first, future next first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuilder(cmd, app, func(ctx context.Context, b *builder.Builder) (any, error) {
				st := b.History().Export()
				v := historyView{
					CanUndo:    b.History().CanUndo(),
					CanRedo:    b.History().CanRedo(),
					LastAction: st.LastAction,
					Past:       summarizeEntries(st.Past),
					Future:     summarizeEntries(st.Future),
				}
				if !st.LastPush.IsZero() {
					t := st.LastPush.UTC()
					v.LastPush = &t
				}
				return map[string]any{"data": v}, nil
			})
		},
	}
}

func summarizeEntries(pages []*model.Page) []historyEntry {
	out := make([]historyEntry, 0, len(pages))
	for _, p := range pages {
		if p == nil {
			out = append(out, historyEntry{})
			continue
		}
		out = append(out, historyEntry{Title: p.Title, Elements: len(p.Elements), Valid: p.Validate() == nil})
	}
	return out
}
