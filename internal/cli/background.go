package cli

import (
	"context"

	"biolink-cli/internal/builder"
	"biolink-cli/internal/model"

	"github.com/spf13/cobra"
)

func newBackgroundCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "background",
		Short: "Set the page background",
	}

	set := func(cmd *cobra.Command, bg model.Background) error {
		return withBuilder(cmd, app, func(ctx context.Context, b *builder.Builder) (any, error) {
			changed, err := b.SetBackground(ctx, bg)
			if err != nil {
				return nil, err
			}
			return map[string]any{"data": b.Page().Background, "meta": mutationMeta(b, changed)}, nil
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "solid <color>",
		Short: "Solid color background (#rgb or #rrggbb)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return set(cmd, model.Background{Kind: model.BackgroundSolid, Color: args[0]})
		},
	})

	var angle int
	gradient := &cobra.Command{
		Use:   "gradient <from> <to>",
		Short: "Linear gradient background",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return set(cmd, model.Background{
				Kind:     model.BackgroundGradient,
				Gradient: &model.Gradient{From: args[0], To: args[1], Angle: angle},
			})
		},
	}
	gradient.Flags().IntVar(&angle, "angle", 180, "Gradient angle in degrees")
	cmd.AddCommand(gradient)

	cmd.AddCommand(&cobra.Command{
		Use:   "image <url>",
		Short: "Image background",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return set(cmd, model.Background{Kind: model.BackgroundImage, ImageURL: args[0]})
		},
	})
	return cmd
}
