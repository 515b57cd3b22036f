package cli

import (
	"fmt"
	"os"
	"strings"

	"biolink-cli/internal/config"
	"biolink-cli/internal/format"
	"biolink-cli/internal/observability"
	"biolink-cli/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	DBPath     string
	PageID     string
	ConfigFile string
	LogLevel   string
	PrettyJSON bool
	Format     string

	cfg *config.Config
	log *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "biolink",
		Short:        "biolink page builder (local-first) CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start a page and open the interactive builder
  biolink init "Ada Lovelace"
  biolink

  # Scriptable edits
  biolink add link --at 1
  biolink update el-abc123 --title "My blog" --url https://ada.dev
  biolink drop el-abc123 --target-index 2 --mouse-y 290 --rect-top 200 --rect-height 100

  # Direct page lookup (shortcut for: biolink show <page-id>)
  biolink page-abc123
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup()
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		observability.Sync()
	}

	cmd.PersistentFlags().StringVar(&app.DBPath, "db", envOr("BIOLINK_DB", ""), "Path to the SQLite store (default: ~/.biolink/biolink.sqlite)")
	cmd.PersistentFlags().StringVar(&app.PageID, "page", envOr("BIOLINK_PAGE", ""), "Page id (default: the current page)")
	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", envOr("BIOLINK_CONFIG", ""), "Config file (default: ~/.biolink/config.yaml when present)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("BIOLINK_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("BIOLINK_FORMAT", "json"), "Output format (json|yaml)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newPagesCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newTitleCmd(app))
	cmd.AddCommand(newTemplatesCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newUpdateCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newDropCmd(app))
	cmd.AddCommand(newBackgroundCmd(app))
	cmd.AddCommand(newUndoCmd(app))
	cmd.AddCommand(newRedoCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newPreviewCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// setup loads configuration and the logger. Flags win over the config file.
func (app *App) setup() error {
	cfg, err := config.Load(app.ConfigFile)
	if err != nil {
		return err
	}
	if app.DBPath != "" {
		cfg.Store.Path = app.DBPath
	}
	if app.LogLevel != "" {
		cfg.Logger.Level = app.LogLevel
	}
	switch app.Format {
	case "", "json", "yaml", "yml":
	default:
		return fmt.Errorf("unknown format: %s (want json|yaml)", app.Format)
	}
	observability.InitializeLogger(cfg.Logger)
	app.cfg = cfg
	app.log = observability.GetLogger()
	return nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	ws, err := openWorkspace(cmd.Context(), app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer ws.Close()
	return tui.Run(cmd.Context(), ws.builder, tui.Options{Logger: app.log})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
