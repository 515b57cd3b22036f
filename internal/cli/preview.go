package cli

import (
	"fmt"

	"biolink-cli/internal/publish"
	"biolink-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newPreviewCmd(app *App) *cobra.Command {
	var (
		width int
		raw   bool
		meta  bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the page as markdown in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := loadPage(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			md, err := publish.RenderMarkdown(page, publish.RenderOptions{IncludeMeta: meta})
			if err != nil {
				return writeErr(cmd, err)
			}
			if raw {
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMarkdown(md, width))
			return err
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the markdown source instead of rendering it")
	cmd.Flags().BoolVar(&meta, "meta", false, "Include page metadata")
	return cmd
}

func newPublishCmd(app *App) *cobra.Command {
	var (
		to        string
		overwrite bool
		meta      bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write the page as <to>/<page-id>.md",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := loadPage(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := publish.WritePage(page, to, publish.WriteOptions{IncludeMeta: meta, Overwrite: overwrite})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&meta, "meta", false, "Include page metadata")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
