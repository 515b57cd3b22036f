package cli

import (
	"errors"

	"biolink-cli/internal/store"

	"github.com/spf13/cobra"
)

func newPagesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List pages (most recently updated first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			pages, err := st.ListPages(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			current, _, err := st.CurrentPage(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if pages == nil {
				pages = []store.PageSummary{}
			}
			return writeOut(cmd, app, map[string]any{
				"data": pages,
				"meta": map[string]any{"current": current},
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "use <page-id>",
		Short: "Make a page current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			page, err := st.LoadPage(cmd.Context(), args[0])
			if errors.Is(err, store.ErrPageNotFound) {
				return writeErr(cmd, errNotFound("page", args[0]))
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := st.SetCurrentPage(cmd.Context(), page.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"current": page.ID}})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <page-id>",
		Short: "Delete a page and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			if err := st.DeletePage(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, store.ErrPageNotFound) {
					return writeErr(cmd, errNotFound("page", args[0]))
				}
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": args[0]}})
		},
	})
	return cmd
}
