// Package history keeps linear undo/redo stacks of whole-page snapshots. Rapid edits
// that share an action tag are coalesced into one entry.
package history

import (
	"sync"
	"time"

	"biolink-cli/internal/clock"
	"biolink-cli/internal/model"

	"go.uber.org/zap"
)

const (
	DefaultLimit         = 50
	DefaultBatchingDelay = 500 * time.Millisecond
)

type Options struct {
	Logger        *zap.Logger
	Clock         clock.Clock
	Limit         int
	BatchingDelay time.Duration
	// Snapshot and Fallback copy pages on Push. They default to CloneSnapshot and
	// JSONSnapshot.
	Snapshot Snapshotter
	Fallback Snapshotter
}

// State is the exportable content of a Store.
type State struct {
	Past       []*model.Page `json:"past" yaml:"past"`
	Future     []*model.Page `json:"future" yaml:"future"`
	LastAction string        `json:"lastAction,omitempty" yaml:"lastAction,omitempty"`
	LastPush   time.Time     `json:"lastPush,omitempty" yaml:"lastPush,omitempty"`
}

// Store owns every pushed snapshot. It never holds the live document: Undo and Redo
// take the caller's current page and hand back the page that replaces it.
type Store struct {
	mu       sync.Mutex
	log      *zap.Logger
	clock    clock.Clock
	limit    int
	delay    time.Duration
	snap     Snapshotter
	fallback Snapshotter

	// past is oldest first; future is next-to-redo first.
	past       []*model.Page
	future     []*model.Page
	lastAction string
	lastPush   time.Time
}

func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.BatchingDelay < 0 {
		opts.BatchingDelay = 0
	}
	if opts.Snapshot == nil {
		opts.Snapshot = CloneSnapshot
	}
	if opts.Fallback == nil {
		opts.Fallback = JSONSnapshot
	}
	return &Store{
		log:      opts.Logger.Named("history"),
		clock:    opts.Clock,
		limit:    opts.Limit,
		delay:    opts.BatchingDelay,
		snap:     opts.Snapshot,
		fallback: opts.Fallback,
	}
}

// Push records snapshot as the newest undo entry. When actionType is non-empty and
// matches the previous push made less than the batching delay ago, the newest entry is
// replaced instead. The redo stack is always cleared. Push reports whether an entry
// was recorded; a snapshot neither copier accepts is dropped.
func (s *Store) Push(snapshot *model.Page, actionType string) bool {
	entry, err := s.snap.Snapshot(snapshot)
	if err != nil {
		s.log.Warn("snapshot copy failed; using fallback copy", zap.String("action", actionType), zap.Error(err))
		entry, err = s.fallback.Snapshot(snapshot)
		if err != nil {
			s.log.Error("history push dropped", zap.String("action", actionType), zap.Error(err))
			return false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	coalesce := actionType != "" &&
		actionType == s.lastAction &&
		len(s.past) > 0 &&
		now.Sub(s.lastPush) < s.delay
	if coalesce {
		s.past[len(s.past)-1] = entry
		s.log.Debug("history entry coalesced", zap.String("action", actionType), zap.Int("depth", len(s.past)))
	} else {
		s.past = append(s.past, entry)
	}
	s.past = trimOldest(s.past, s.limit)
	s.future = nil
	s.lastAction = actionType
	s.lastPush = now
	return true
}

// Undo returns the newest restorable snapshot and moves current onto the redo stack.
// Malformed entries met on the way are discarded. It reports false, and leaves the
// stacks alone apart from discarded entries, when nothing can be restored or current
// is nil.
func (s *Store) Undo(current *model.Page) (*model.Page, bool) {
	if current == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.past) > 0 {
		top := s.past[len(s.past)-1]
		s.past = s.past[:len(s.past)-1]
		page, err := restore(top)
		if err != nil {
			s.log.Warn("discarding malformed undo entry", zap.Int("remaining", len(s.past)), zap.Error(err))
			continue
		}
		s.future = append([]*model.Page{current.Clone()}, s.future...)
		s.resetBatchLocked()
		return page, true
	}
	return nil, false
}

// Redo is the mirror of Undo over the redo stack.
func (s *Store) Redo(current *model.Page) (*model.Page, bool) {
	if current == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.future) > 0 {
		next := s.future[0]
		s.future = s.future[1:]
		page, err := restore(next)
		if err != nil {
			s.log.Warn("discarding malformed redo entry", zap.Int("remaining", len(s.future)), zap.Error(err))
			continue
		}
		s.past = trimOldest(append(s.past, current.Clone()), s.limit)
		s.resetBatchLocked()
		return page, true
	}
	return nil, false
}

// resetBatchLocked stops the next push from coalescing into an entry that undo or redo
// just moved.
func (s *Store) resetBatchLocked() {
	s.lastAction = ""
	s.lastPush = time.Time{}
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.past) > 0
}

func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.future) > 0
}

// Len returns the depths of the undo and redo stacks.
func (s *Store) Len() (past, future int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.past), len(s.future)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.past = nil
	s.future = nil
	s.resetBatchLocked()
}

// Export copies the stacks and coalescing state for persistence.
func (s *Store) Export() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Past:       clonePages(s.past),
		Future:     clonePages(s.future),
		LastAction: s.lastAction,
		LastPush:   s.lastPush,
	}
}

// Import replaces the store's content with st. Entries are kept even if malformed;
// Undo and Redo skip them when reached.
func (s *Store) Import(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.past = trimOldest(clonePages(st.Past), s.limit)
	s.future = clonePages(st.Future)
	s.lastAction = st.LastAction
	s.lastPush = st.LastPush
}

func trimOldest(pages []*model.Page, limit int) []*model.Page {
	if len(pages) <= limit {
		return pages
	}
	return append([]*model.Page(nil), pages[len(pages)-limit:]...)
}

func clonePages(pages []*model.Page) []*model.Page {
	if len(pages) == 0 {
		return nil
	}
	out := make([]*model.Page, len(pages))
	for i, p := range pages {
		out[i] = p.Clone()
	}
	return out
}
