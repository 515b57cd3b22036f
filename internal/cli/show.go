package cli

import (
	"context"

	"biolink-cli/internal/builder"
	"biolink-cli/internal/model"

	"github.com/spf13/cobra"
)

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [page-id]",
		Short: "Show a page with its elements in order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				app.PageID = args[0]
			}
			page, err := loadPage(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": sortedPage(page)})
		},
	}
}

func newTitleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "title <text>",
		Short: "Rename the page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuilder(cmd, app, func(ctx context.Context, b *builder.Builder) (any, error) {
				changed, err := b.SetTitle(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": sortedPage(b.Page()), "meta": mutationMeta(b, changed)}, nil
			})
		},
	}
}

func newTemplatesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the element templates that can be added or dropped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, map[string]any{"data": model.DefaultTemplates()})
		},
	}
}
