package cli

import (
	"context"
	"errors"
	"strings"

	"biolink-cli/internal/builder"
	"biolink-cli/internal/model"
	"biolink-cli/internal/session"
	"biolink-cli/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// workspace is one open store plus a builder around the selected page.
type workspace struct {
	store   *store.Store
	builder *builder.Builder
}

func (w *workspace) Close() {
	if w.builder != nil {
		w.builder.Close()
	}
	if w.store != nil {
		_ = w.store.Close()
	}
}

func openStore(ctx context.Context, app *App) (*store.Store, error) {
	path, err := app.cfg.StorePath()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, path, app.log)
}

// resolvePageID picks --page, then the store's current page.
func resolvePageID(ctx context.Context, app *App, st *store.Store) (string, error) {
	if id := strings.TrimSpace(app.PageID); id != "" {
		return id, nil
	}
	id, ok, err := st.CurrentPage(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errNoPage
	}
	return id, nil
}

// openWorkspace loads the selected page and its persisted history into a builder that
// saves both back after every committed change.
func openWorkspace(ctx context.Context, app *App) (*workspace, error) {
	st, err := openStore(ctx, app)
	if err != nil {
		return nil, err
	}
	ws := &workspace{store: st}

	pageID, err := resolvePageID(ctx, app, st)
	if err != nil {
		ws.Close()
		return nil, err
	}
	page, err := st.LoadPage(ctx, pageID)
	if err != nil {
		ws.Close()
		if errors.Is(err, store.ErrPageNotFound) {
			return nil, errNotFound("page", pageID)
		}
		return nil, err
	}
	hist, err := st.LoadHistory(ctx, pageID)
	if err != nil {
		ws.Close()
		return nil, err
	}

	opts := builder.OptionsFromConfig(app.cfg)
	opts.Logger = app.log
	opts.Persister = st
	opts.SessionObserver = sessionLogger(app.log)
	b, err := builder.New(page, opts)
	if err != nil {
		ws.Close()
		return nil, err
	}
	b.ImportHistory(hist)
	ws.builder = b
	return ws, nil
}

// sessionLogger traces drag session transitions at debug level.
func sessionLogger(log *zap.Logger) func(session.State) {
	log = log.Named("drag")
	return func(st session.State) {
		log.Debug("session transition",
			zap.Uint64("version", st.Version.Version),
			zap.String("operation_id", st.Version.OperationID),
			zap.Bool("dragging", st.IsDragging),
			zap.Bool("overlay", st.IsTemporaryReorganization),
			zap.Int("abandoned", len(st.AbandonedOperations)))
	}
}

// withBuilder runs fn against the selected page and writes its result.
func withBuilder(cmd *cobra.Command, app *App, fn func(ctx context.Context, b *builder.Builder) (any, error)) error {
	ws, err := openWorkspace(cmd.Context(), app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer ws.Close()

	out, err := fn(cmd.Context(), ws.builder)
	if err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, out)
}

// loadPage reads the selected page without opening a builder.
func loadPage(ctx context.Context, app *App) (*model.Page, error) {
	st, err := openStore(ctx, app)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	pageID, err := resolvePageID(ctx, app, st)
	if err != nil {
		return nil, err
	}
	page, err := st.LoadPage(ctx, pageID)
	if errors.Is(err, store.ErrPageNotFound) {
		return nil, errNotFound("page", pageID)
	}
	return page, err
}

// sortedPage returns p with its elements in committed order, for output.
func sortedPage(p *model.Page) *model.Page {
	out := p.Clone()
	out.Elements = p.SortedElements()
	return out
}

func mutationMeta(b *builder.Builder, changed bool) map[string]any {
	past, future := b.History().Len()
	return map[string]any{"changed": changed, "undo": past, "redo": future}
}
