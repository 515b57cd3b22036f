// Package builder is the page editing service. It owns the live page and wires the
// drag engine, the drag session and the undo history around it.
package builder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"biolink-cli/internal/clock"
	"biolink-cli/internal/config"
	"biolink-cli/internal/dnd"
	"biolink-cli/internal/history"
	"biolink-cli/internal/model"
	"biolink-cli/internal/mutate"
	"biolink-cli/internal/session"
	"biolink-cli/internal/store"

	"go.uber.org/zap"
)

// Action tags passed to the history store. Element-scoped tags carry the element ID so
// rapid edits to one element coalesce without swallowing edits to another.
const (
	TagAddElement     = "addElement"
	TagReorderElement = "reorderElement"
	TagBackground     = "background"
	TagTitle          = "title"
)

func TagUpdateElement(id string) string { return "updateElement:" + id }
func TagDeleteElement(id string) string { return "deleteElement:" + id }

// Persister stores the page and its history after each committed change.
type Persister interface {
	SavePage(ctx context.Context, p *model.Page) error
	SaveHistory(ctx context.Context, pageID string, st history.State) error
}

type Options struct {
	Logger    *zap.Logger
	Clock     clock.Clock
	Persister Persister
	// NewID mints element IDs. Defaults to store.NewID.
	NewID func(prefix string) (string, error)

	HistoryLimit     int
	BatchingDelay    time.Duration
	ThrottleInterval time.Duration
	WatchdogTimeout  time.Duration
	AbandonedCap     int
	AbandonedKeep    int

	// SessionObserver receives every drag session transition.
	SessionObserver func(session.State)
}

// OptionsFromConfig copies the tunables out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return Options{
		HistoryLimit:     cfg.History.Limit,
		BatchingDelay:    cfg.History.BatchingDelay,
		ThrottleInterval: cfg.DnD.ThrottleInterval,
		WatchdogTimeout:  cfg.Session.WatchdogTimeout,
		AbandonedCap:     cfg.Session.AbandonedCap,
		AbandonedKeep:    cfg.Session.AbandonedKeep,
	}
}

// Builder serializes page edits behind one lock. Drag session calls are made without
// that lock held, since the session reads the page back through Elements.
type Builder struct {
	mu        sync.Mutex
	page      *model.Page
	log       *zap.Logger
	clock     clock.Clock
	persister Persister
	newID     func(prefix string) (string, error)

	hist    *history.Store
	sess    *session.Manager
	tracker *dnd.Tracker

	throttleInterval time.Duration
	drag             dragState
}

type dragState struct {
	opID      string
	draggedID string
	throttle  *dnd.Throttle
	last      dnd.Result
	hasLast   bool
}

func New(page *model.Page, opts Options) (*Builder, error) {
	if page == nil {
		return nil, errors.New("builder: nil page")
	}
	live := page.Clone()
	live.Normalize()
	if err := live.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.NewID == nil {
		opts.NewID = store.NewID
	}
	if opts.ThrottleInterval < 0 {
		opts.ThrottleInterval = 0
	}
	log := opts.Logger.Named("builder").With(zap.String("page_id", live.ID))
	b := &Builder{
		page:             live,
		log:              log,
		clock:            opts.Clock,
		persister:        opts.Persister,
		newID:            opts.NewID,
		throttleInterval: opts.ThrottleInterval,
		tracker:          dnd.NewTracker(dnd.Calculate),
	}
	b.hist = history.New(history.Options{
		Logger:        opts.Logger,
		Clock:         opts.Clock,
		Limit:         opts.HistoryLimit,
		BatchingDelay: opts.BatchingDelay,
	})
	b.sess = session.NewManager(session.ElementsFunc(b.Elements), session.Options{
		Logger:          opts.Logger,
		Clock:           opts.Clock,
		WatchdogTimeout: opts.WatchdogTimeout,
		AbandonedCap:    opts.AbandonedCap,
		AbandonedKeep:   opts.AbandonedKeep,
		Observer:        opts.SessionObserver,
	})
	return b, nil
}

// Close cancels any open drag and stops its watchdog.
func (b *Builder) Close() {
	b.sess.Close()
}

// Page returns a copy of the live page.
func (b *Builder) Page() *model.Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page.Clone()
}

// Elements returns the committed elements in position order.
func (b *Builder) Elements() []model.Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page.SortedElements()
}

func (b *Builder) History() *history.Store { return b.hist }

func (b *Builder) Session() *session.Manager { return b.sess }

// ImportHistory restores previously persisted stacks.
func (b *Builder) ImportHistory(st history.State) {
	b.hist.Import(st)
}

// apply runs fn on a copy of the live page. When fn reports a change, the previous live
// page is pushed to history under tag and the copy becomes live.
func (b *Builder) apply(ctx context.Context, tag string, fn func(p *model.Page, now time.Time) (bool, error)) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	work := b.page.Clone()
	changed, err := fn(work, b.clock.Now())
	if err != nil || !changed {
		return false, err
	}
	if err := work.Validate(); err != nil {
		b.log.Error("mutation produced an invalid page; discarded", zap.String("action", tag), zap.Error(err))
		return false, err
	}
	b.hist.Push(b.page, tag)
	b.page = work
	b.log.Debug("page changed", zap.String("action", tag))
	b.persistLocked(ctx)
	return true, nil
}

func (b *Builder) persistLocked(ctx context.Context) {
	if b.persister == nil {
		return
	}
	if err := b.persister.SavePage(ctx, b.page); err != nil {
		b.log.Warn("save page failed", zap.Error(err))
		return
	}
	if err := b.persister.SaveHistory(ctx, b.page.ID, b.hist.Export()); err != nil {
		b.log.Warn("save history failed", zap.Error(err))
	}
}

// AddElement inserts a new element built from the template with the given ID or type at
// committed index at (negative appends).
func (b *Builder) AddElement(ctx context.Context, templateKey string, at int) (*model.Element, error) {
	tpl, ok := model.FindTemplate(strings.TrimSpace(templateKey))
	if !ok {
		return nil, mutate.NotFoundError{Kind: "template", ID: templateKey}
	}
	id, err := b.newID("el")
	if err != nil {
		return nil, err
	}
	var added model.Element
	_, err = b.apply(ctx, TagAddElement, func(p *model.Page, now time.Time) (bool, error) {
		res, err := mutate.AddElement(p, tpl, id, at, now)
		if err != nil {
			return false, err
		}
		added = res.Element.Clone()
		return res.Changed, nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

func (b *Builder) UpdateElement(ctx context.Context, id string, patch mutate.ElementPatch) (*model.Element, error) {
	var updated model.Element
	_, err := b.apply(ctx, TagUpdateElement(id), func(p *model.Page, now time.Time) (bool, error) {
		res, err := mutate.UpdateElement(p, id, patch, now)
		if err != nil {
			return false, err
		}
		if res.Element != nil {
			updated = res.Element.Clone()
		}
		return res.Changed, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (b *Builder) DeleteElement(ctx context.Context, id string) error {
	_, err := b.apply(ctx, TagDeleteElement(id), func(p *model.Page, now time.Time) (bool, error) {
		res, err := mutate.DeleteElement(p, id, now)
		return res.Changed, err
	})
	return err
}

// ReorderElement moves id to insertAt, an index into the committed order with the element
// itself removed.
func (b *Builder) ReorderElement(ctx context.Context, id string, insertAt int) (bool, error) {
	return b.apply(ctx, TagReorderElement, func(p *model.Page, now time.Time) (bool, error) {
		res, err := mutate.MoveElement(p, id, insertAt, now)
		return res.Changed, err
	})
}

func (b *Builder) SetBackground(ctx context.Context, bg model.Background) (bool, error) {
	return b.apply(ctx, TagBackground, func(p *model.Page, now time.Time) (bool, error) {
		return mutate.SetBackground(p, bg, now)
	})
}

func (b *Builder) SetTitle(ctx context.Context, title string) (bool, error) {
	return b.apply(ctx, TagTitle, func(p *model.Page, now time.Time) (bool, error) {
		return mutate.SetTitle(p, title, now)
	})
}

func (b *Builder) Undo(ctx context.Context) bool {
	return b.travel(ctx, "undo", b.hist.Undo)
}

func (b *Builder) Redo(ctx context.Context) bool {
	return b.travel(ctx, "redo", b.hist.Redo)
}

func (b *Builder) travel(ctx context.Context, dir string, step func(*model.Page) (*model.Page, bool)) bool {
	if b.sess.IsDragging() {
		b.log.Info(dir + " ignored while dragging")
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	next, ok := step(b.page)
	if !ok {
		return false
	}
	b.page = next
	b.log.Debug(dir+" applied", zap.String("title", next.Title))
	b.persistLocked(ctx)
	return true
}
