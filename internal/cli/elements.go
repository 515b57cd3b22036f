package cli

import (
	"context"
	"errors"
	"reflect"

	"biolink-cli/internal/builder"
	"biolink-cli/internal/mutate"

	"github.com/spf13/cobra"
)

func newAddCmd(app *App) *cobra.Command {
	var at int
	cmd := &cobra.Command{
		Use:   "add <template>",
		Short: "Add an element from a template (id or type, see `biolink templates`)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuilder(cmd, app, func(ctx context.Context, b *builder.Builder) (any, error) {
				el, err := b.AddElement(ctx, args[0], at)
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": el, "meta": mutationMeta(b, true)}, nil
			})
		},
	}
	cmd.Flags().IntVar(&at, "at", -1, "Insert at this index (default: append)")
	return cmd
}

func newUpdateCmd(app *App) *cobra.Command {
	var (
		title, subtitle, text, url, imageURL string
		textColor, bgColor                   string
		radius                               int
	)
	cmd := &cobra.Command{
		Use:   "update <element-id>",
		Short: "Edit an element's content or style",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch mutate.ElementPatch
			f := cmd.Flags()
			if f.Changed("title") {
				patch.Title = &title
			}
			if f.Changed("subtitle") {
				patch.Subtitle = &subtitle
			}
			if f.Changed("text") {
				patch.Text = &text
			}
			if f.Changed("url") {
				patch.URL = &url
			}
			if f.Changed("image-url") {
				patch.ImageURL = &imageURL
			}
			if f.Changed("color") {
				patch.TextColor = &textColor
			}
			if f.Changed("bg-color") {
				patch.BackgroundColor = &bgColor
			}
			if f.Changed("radius") {
				patch.Radius = &radius
			}
			if patch.Empty() {
				return writeErr(cmd, errors.New("nothing to update (pass at least one of --title --subtitle --text --url --image-url --color --bg-color --radius)"))
			}
			return withBuilder(cmd, app, func(ctx context.Context, b *builder.Builder) (any, error) {
				before, _ := b.Page().FindElement(args[0])
				el, err := b.UpdateElement(ctx, args[0], patch)
				if err != nil {
					return nil, err
				}
				changed := before == nil || !reflect.DeepEqual(*before, *el)
				return map[string]any{"data": el, "meta": mutationMeta(b, changed)}, nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title (profile, link, image alt)")
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "Subtitle (profile)")
	cmd.Flags().StringVar(&text, "text", "", "Body text (text)")
	cmd.Flags().StringVar(&url, "url", "", "Target URL (link)")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "Image URL (profile, image)")
	cmd.Flags().StringVar(&textColor, "color", "", "Text color (#rgb or #rrggbb)")
	cmd.Flags().StringVar(&bgColor, "bg-color", "", "Background color (#rgb or #rrggbb)")
	cmd.Flags().IntVar(&radius, "radius", 0, "Corner radius (0-64)")
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <element-id>",
		Short: "Delete an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuilder(cmd, app, func(ctx context.Context, b *builder.Builder) (any, error) {
				if err := b.DeleteElement(ctx, args[0]); err != nil {
					return nil, err
				}
				return map[string]any{"data": map[string]any{"deleted": args[0]}, "meta": mutationMeta(b, true)}, nil
			})
		},
	}
}

func newMoveCmd(app *App) *cobra.Command {
	var to int
	cmd := &cobra.Command{
		Use:   "move <element-id>",
		Short: "Move an element so it ends up at index --to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBuilder(cmd, app, func(ctx context.Context, b *builder.Builder) (any, error) {
				changed, err := b.ReorderElement(ctx, args[0], to)
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": sortedPage(b.Page()), "meta": mutationMeta(b, changed)}, nil
			})
		},
	}
	cmd.Flags().IntVar(&to, "to", 0, "Final index of the element")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
