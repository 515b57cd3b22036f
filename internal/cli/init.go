package cli

import (
	"strings"
	"time"

	"biolink-cli/internal/model"
	"biolink-cli/internal/mutate"
	"biolink-cli/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	var empty bool
	cmd := &cobra.Command{
		Use:   "init [title]",
		Short: "Create a page and make it current",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := "My links"
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				title = strings.TrimSpace(args[0])
			}

			st, err := openStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			pageID, err := store.NewID("page")
			if err != nil {
				return writeErr(cmd, err)
			}
			now := time.Now().UTC()
			page := &model.Page{
				ID:         pageID,
				Title:      title,
				Background: model.Background{Kind: model.BackgroundSolid, Color: "#ffffff"},
				Elements:   []model.Element{},
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if !empty {
				// New pages start with a profile card carrying the page title.
				tpl, _ := model.FindTemplate(string(model.ElementProfile))
				tpl.Defaults.Title = title
				elID, err := store.NewID("el")
				if err != nil {
					return writeErr(cmd, err)
				}
				if _, err := mutate.AddElement(page, tpl, elID, 0, now); err != nil {
					return writeErr(cmd, err)
				}
			}

			if err := st.SavePage(cmd.Context(), page); err != nil {
				return writeErr(cmd, err)
			}
			if err := st.SetCurrentPage(cmd.Context(), page.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": page,
				"meta": map[string]any{"db": st.Path()},
			})
		},
	}
	cmd.Flags().BoolVar(&empty, "empty", false, "Start without a profile card")
	return cmd
}
