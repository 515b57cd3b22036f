package cli

import (
	"fmt"
	"strings"

	"biolink-cli/internal/docs"
	"biolink-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show help topics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{"data": docs.Topics()})
			}
			md, ok := docs.Get(args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown topic: %s (available: %s)", args[0], strings.Join(docs.Topics(), ", ")))
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMarkdown(md, 80))
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the markdown source")
	return cmd
}
