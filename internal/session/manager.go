// Package session tracks the lifecycle of a single drag gesture: which item is being
// dragged, where it would land, and the visual-only order shown while it moves.
package session

import (
	"sort"
	"sync"
	"time"

	"biolink-cli/internal/clock"
	"biolink-cli/internal/dnd"
	"biolink-cli/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultWatchdogTimeout = 30 * time.Second
	DefaultAbandonedCap    = 10
	DefaultAbandonedKeep   = 5
)

// ElementSource supplies the committed elements of the page being edited.
type ElementSource interface {
	Elements() []model.Element
}

// ElementsFunc adapts a function to ElementSource.
type ElementsFunc func() []model.Element

func (f ElementsFunc) Elements() []model.Element { return f() }

type Options struct {
	Logger          *zap.Logger
	Clock           clock.Clock
	WatchdogTimeout time.Duration
	// The abandoned list is trimmed to the AbandonedKeep newest IDs once it grows
	// past AbandonedCap.
	AbandonedCap  int
	AbandonedKeep int
	// Observer, when set, receives a snapshot after every state change. It is called
	// without the manager's lock held.
	Observer func(State)
}

// Manager owns one drag session record. Every mutation goes through update, which
// applies the change under the lock and bumps the version, so a late callback can
// never interleave with a half-applied transition.
type Manager struct {
	mu       sync.Mutex
	state    State
	src      ElementSource
	log      *zap.Logger
	clock    clock.Clock
	timeout  time.Duration
	absCap   int
	absKeep  int
	observer func(State)

	watchdog     clock.Timer
	watchdogOpID string
}

func NewManager(src ElementSource, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.WatchdogTimeout <= 0 {
		opts.WatchdogTimeout = DefaultWatchdogTimeout
	}
	if opts.AbandonedCap <= 0 {
		opts.AbandonedCap = DefaultAbandonedCap
	}
	if opts.AbandonedKeep <= 0 || opts.AbandonedKeep > opts.AbandonedCap {
		opts.AbandonedKeep = min(DefaultAbandonedKeep, opts.AbandonedCap)
	}
	if src == nil {
		src = ElementsFunc(func() []model.Element { return nil })
	}
	m := &Manager{
		src:      src,
		log:      opts.Logger.Named("session"),
		clock:    opts.Clock,
		timeout:  opts.WatchdogTimeout,
		absCap:   opts.AbandonedCap,
		absKeep:  opts.AbandonedKeep,
		observer: opts.Observer,
	}
	m.state.Version = StateVersion{Timestamp: m.clock.Now()}
	return m
}

// update is the single write path for the session record: mutate works on a copy of
// the current state which then replaces it with a bumped version. Caller holds mu.
func (m *Manager) update(opID, reason string, mutate func(s *State)) State {
	next := m.state.clone()
	mutate(&next)
	now := m.clock.Now()
	next.Version = StateVersion{
		Version:     m.state.Version.Version + 1,
		Timestamp:   now,
		OperationID: opID,
	}
	next.Metrics.MemoryUsageBytes = approximateSize(&next)
	m.state = next
	m.log.Debug("state updated",
		zap.String("reason", reason),
		zap.String("operation_id", opID),
		zap.Uint64("version", next.Version.Version),
		zap.Bool("dragging", next.IsDragging))
	return next.clone()
}

func (m *Manager) notify(st State, changed bool) {
	if changed && m.observer != nil {
		m.observer(st)
	}
}

// StartDragOperation opens a new session for item and returns its operation ID. An
// already open session is replaced; its watchdog is disarmed.
func (m *Manager) StartDragOperation(item model.DraggedItem) string {
	if item == nil {
		m.log.Warn("start drag ignored: nil item")
		return ""
	}
	opID := uuid.NewString()

	m.mu.Lock()
	if m.state.IsDragging {
		m.log.Info("replacing open drag session", zap.String("previous_operation_id", m.state.OperationID), zap.String("operation_id", opID))
	}
	m.disarmLocked()
	now := m.clock.Now()
	st := m.update(opID, "start", func(s *State) {
		clearTransient(s)
		s.IsDragging = true
		s.OperationID = opID
		s.StartedAt = now
		s.LastUpdate = now
		switch it := item.(type) {
		case model.ElementItem:
			e := it.Element.Clone()
			s.DraggedElement = &e
		case model.TemplateItem:
			t := it.Template
			s.DraggedTemplate = &t
		}
	})
	m.armLocked(opID)
	m.mu.Unlock()

	m.log.Info("drag started", zap.String("operation_id", opID), zap.String("item_id", item.ItemID()))
	m.notify(st, true)
	return opID
}

// UpdateDragPosition records the current drop target. It is a no-op without an open
// session.
func (m *Manager) UpdateDragPosition(index int, position dnd.Position) {
	began := time.Now()

	m.mu.Lock()
	if !m.state.IsDragging || m.state.OperationID == "" {
		m.mu.Unlock()
		return
	}
	now := m.clock.Now()
	st := m.update(m.state.OperationID, "position", func(s *State) {
		i := index
		p := position
		s.DragOverIndex = &i
		s.InsertionPosition = &p
		s.LastUpdate = now
		m.recordSample(s, time.Since(began), now)
	})
	m.mu.Unlock()
	m.notify(st, true)
}

func (m *Manager) recordSample(s *State, took time.Duration, now time.Time) {
	pm := &s.Metrics
	pm.CalculationCount++
	pm.LastCalculationTime = took
	n := time.Duration(pm.CalculationCount)
	pm.AverageCalculationTime = (pm.AverageCalculationTime*(n-1) + took) / n

	elapsed := now.Sub(s.StartedAt).Seconds()
	rate := float64(pm.CalculationCount)
	if elapsed > 0 {
		rate = float64(pm.CalculationCount) / elapsed
	}
	pm.CalculationsPerSecond = min(rate, maxCalculationsPerSecond)
}

// ApplyTemporaryReorganization shows the dragged element at targetIndex (an index into
// the order with the dragged element removed) without touching committed positions.
func (m *Manager) ApplyTemporaryReorganization(draggedID string, targetIndex int, operationID string) bool {
	// Read the source before locking: it may take its own lock.
	committed := sortedIDs(m.src.Elements())

	m.mu.Lock()
	if !m.liveLocked(operationID) {
		m.mu.Unlock()
		m.rejectStale("apply temporary reorganization", operationID)
		return false
	}
	from := indexOf(committed, draggedID)
	if from < 0 {
		m.mu.Unlock()
		m.log.Debug("temporary reorganization ignored: unknown element", zap.String("element_id", draggedID))
		return false
	}
	order := moveID(committed, from, targetIndex)
	st := m.update(operationID, "temporary-reorganization", func(s *State) {
		s.TemporaryOrder = order
		s.IsTemporaryReorganization = true
	})
	m.mu.Unlock()
	m.notify(st, true)
	return true
}

// RevertTemporaryReorganization drops the visual overlay. An empty operationID reverts
// unconditionally; otherwise it must name the live session.
func (m *Manager) RevertTemporaryReorganization(operationID string) bool {
	m.mu.Lock()
	if operationID != "" && operationID != m.state.OperationID {
		m.mu.Unlock()
		m.rejectStale("revert temporary reorganization", operationID)
		return false
	}
	if !m.state.IsTemporaryReorganization {
		m.mu.Unlock()
		return false
	}
	st := m.update(m.state.OperationID, "revert-temporary-reorganization", func(s *State) {
		s.TemporaryOrder = nil
		s.IsTemporaryReorganization = false
	})
	m.mu.Unlock()
	m.notify(st, true)
	return true
}

// CurrentElementOrder is the one order renderers should draw: the overlay while one is
// active, the committed order otherwise.
func (m *Manager) CurrentElementOrder() []model.Element {
	m.mu.Lock()
	overlay := append([]string(nil), m.state.TemporaryOrder...)
	active := m.state.IsTemporaryReorganization
	m.mu.Unlock()

	committed := sortByPosition(m.src.Elements())
	if !active {
		return committed
	}
	byID := make(map[string]model.Element, len(committed))
	for _, e := range committed {
		byID[e.ID] = e
	}
	out := make([]model.Element, 0, len(committed))
	for _, id := range overlay {
		if e, ok := byID[id]; ok {
			out = append(out, e)
			delete(byID, id)
		}
	}
	// Elements added after the overlay was computed keep their committed order at the end.
	for _, e := range committed {
		if _, ok := byID[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// EndDragOperation closes the live session. success=false reverts the overlay first.
// A stale operationID is logged and ignored.
func (m *Manager) EndDragOperation(operationID string, success bool) bool {
	m.mu.Lock()
	if !m.liveLocked(operationID) {
		m.mu.Unlock()
		m.rejectStale("end drag", operationID)
		return false
	}
	var states []State
	if !success && m.state.IsTemporaryReorganization {
		states = append(states, m.update(operationID, "revert-on-failure", func(s *State) {
			s.TemporaryOrder = nil
			s.IsTemporaryReorganization = false
		}))
	}
	m.disarmLocked()
	reason := "end-committed"
	if !success {
		reason = "end-reverted"
	}
	states = append(states, m.update(operationID, reason, clearTransient))
	m.mu.Unlock()

	m.log.Info("drag ended", zap.String("operation_id", operationID), zap.Bool("success", success))
	for _, st := range states {
		m.notify(st, true)
	}
	return true
}

// CancelDragOperation terminates the session like a failed end. An empty operationID
// cancels whatever session is open (unmount path).
func (m *Manager) CancelDragOperation(operationID string) bool {
	m.mu.Lock()
	if !m.state.IsDragging {
		m.mu.Unlock()
		return false
	}
	if operationID != "" && operationID != m.state.OperationID {
		m.mu.Unlock()
		m.rejectStale("cancel drag", operationID)
		return false
	}
	opID := m.state.OperationID
	m.disarmLocked()
	st := m.update(opID, "cancel", clearTransient)
	m.mu.Unlock()

	m.log.Info("drag cancelled", zap.String("operation_id", opID))
	m.notify(st, true)
	return true
}

// Close disarms the watchdog and cancels any open session.
func (m *Manager) Close() {
	m.CancelDragOperation("")
	m.mu.Lock()
	m.disarmLocked()
	m.mu.Unlock()
}

func (m *Manager) armLocked(opID string) {
	m.watchdogOpID = opID
	m.watchdog = m.clock.AfterFunc(m.timeout, func() { m.abandon(opID) })
}

func (m *Manager) disarmLocked() {
	if m.watchdog != nil {
		m.watchdog.Stop()
	}
	m.watchdog = nil
	m.watchdogOpID = ""
}

// abandon runs when a session's watchdog fires before it was ended.
func (m *Manager) abandon(opID string) {
	m.mu.Lock()
	if m.watchdogOpID == opID {
		m.watchdog = nil
		m.watchdogOpID = ""
	}
	if !m.state.IsDragging || m.state.OperationID != opID {
		m.mu.Unlock()
		return
	}
	st := m.update(opID, "abandoned", func(s *State) {
		clearTransient(s)
		s.AbandonedOperations = append(s.AbandonedOperations, opID)
		if len(s.AbandonedOperations) > m.absCap {
			s.AbandonedOperations = append([]string(nil), s.AbandonedOperations[len(s.AbandonedOperations)-m.absKeep:]...)
		}
	})
	m.mu.Unlock()

	m.log.Warn("drag session abandoned; watchdog cancelled it",
		zap.String("operation_id", opID),
		zap.Duration("timeout", m.timeout))
	m.notify(st, true)
}

func (m *Manager) liveLocked(operationID string) bool {
	return m.state.IsDragging && operationID != "" && operationID == m.state.OperationID
}

func (m *Manager) rejectStale(op, operationID string) {
	m.mu.Lock()
	live := m.state.OperationID
	m.mu.Unlock()
	m.log.Info("stale drag operation ignored",
		zap.String("op", op),
		zap.String("operation_id", operationID),
		zap.String("live_operation_id", live))
}

// Snapshot returns a copy of the session record.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *Manager) IsDragging() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsDragging
}

func (m *Manager) OperationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.OperationID
}

func (m *Manager) AbandonedOperations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.state.AbandonedOperations...)
}

func (m *Manager) Metrics() PerformanceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Metrics
}

func sortByPosition(els []model.Element) []model.Element {
	out := append([]model.Element(nil), els...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortedIDs(els []model.Element) []string {
	sorted := sortByPosition(els)
	ids := make([]string, len(sorted))
	for i, e := range sorted {
		ids[i] = e.ID
	}
	return ids
}

func indexOf(ids []string, id string) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}
	return -1
}

// moveID removes ids[from] and reinserts it at insertAt, clamped to the shortened list.
func moveID(ids []string, from, insertAt int) []string {
	moved := ids[from]
	rest := make([]string, 0, len(ids))
	rest = append(rest, ids[:from]...)
	rest = append(rest, ids[from+1:]...)
	insertAt = max(0, min(insertAt, len(rest)))
	out := make([]string, 0, len(ids))
	out = append(out, rest[:insertAt]...)
	out = append(out, moved)
	out = append(out, rest[insertAt:]...)
	return out
}
