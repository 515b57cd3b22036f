package builder

import (
	"context"
	"errors"

	"biolink-cli/internal/dnd"
	"biolink-cli/internal/model"
	"biolink-cli/internal/mutate"
	"biolink-cli/internal/session"

	"go.uber.org/zap"
)

var ErrNoDrag = errors.New("no drag in progress")

// DropResult describes a committed drop.
type DropResult struct {
	OperationID string           `json:"operationId" yaml:"operationId"`
	Calculation dnd.Result       `json:"calculation" yaml:"calculation"`
	Element     *model.Element   `json:"element,omitempty" yaml:"element,omitempty"`
	Changed     bool             `json:"changed" yaml:"changed"`
	Tracker     dnd.TrackerStats `json:"tracker" yaml:"tracker"`
}

// DragStats is a read-only view of the drag instrumentation. Throttle counts cover the
// open drag only; session and tracker figures survive until the next drag starts.
type DragStats struct {
	Session   session.PerformanceMetrics `json:"session" yaml:"session"`
	Tracker   dnd.TrackerStats           `json:"tracker" yaml:"tracker"`
	Executed  int                        `json:"executed" yaml:"executed"`
	Throttled int                        `json:"throttled" yaml:"throttled"`
	Abandoned []string                   `json:"abandoned,omitempty" yaml:"abandoned,omitempty"`
}

// BeginDrag opens a drag session for item and returns its operation ID.
func (b *Builder) BeginDrag(item model.DraggedItem) string {
	draggedID := ""
	if it, ok := item.(model.ElementItem); ok {
		draggedID = it.Element.ID
		b.mu.Lock()
		from := b.page.IndexOf(draggedID)
		b.mu.Unlock()
		if from < 0 {
			b.log.Warn("begin drag ignored: element not on page", zap.String("element_id", draggedID))
			return ""
		}
	}
	opID := b.sess.StartDragOperation(item)
	if opID == "" {
		return ""
	}
	b.tracker.Reset()
	b.mu.Lock()
	b.drag = dragState{
		opID:      opID,
		draggedID: draggedID,
		throttle:  dnd.NewThrottle(dnd.Calculate, dnd.ThrottleOptions{Interval: b.throttleInterval, Clock: b.clock}),
	}
	b.mu.Unlock()
	return opID
}

// syncDragLocked drops drag state left over from an operation the session no longer
// holds (ended elsewhere or abandoned by the watchdog).
func (b *Builder) syncDragLocked(opID string) bool {
	if b.drag.opID == "" || b.drag.opID != opID {
		b.drag = dragState{}
		return false
	}
	return true
}

// fromLocked is the dragged element's current committed index, -1 for templates or
// when the element has left the page. Edits made during the drag shift it.
func (b *Builder) fromLocked() int {
	if b.drag.draggedID == "" {
		return -1
	}
	return b.page.IndexOf(b.drag.draggedID)
}

// DraggedIndex is the committed index of the element being dragged, or dnd.NoIndex for
// templates and when no drag is open.
func (b *Builder) DraggedIndex() dnd.Index {
	opID := b.sess.OperationID()
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.syncDragLocked(opID) {
		return dnd.NoIndex
	}
	if from := b.fromLocked(); from >= 0 {
		return dnd.At(from)
	}
	return dnd.NoIndex
}

// DragOver feeds one pointer sample into the throttled calculator and pushes the
// outcome into the drag session. targetIndex is the committed index of the element under
// the pointer and rect its on-screen extent.
func (b *Builder) DragOver(mouseY float64, rect model.ElementRect, draggedIndex dnd.Index, targetIndex int) (dnd.Result, bool) {
	opID := b.sess.OperationID()
	b.mu.Lock()
	live := b.syncDragLocked(opID)
	throttle, draggedID, from := b.drag.throttle, b.drag.draggedID, b.fromLocked()
	b.mu.Unlock()
	if !live {
		return dnd.Result{}, false
	}

	r := throttle.Calculate(mouseY, rect, draggedIndex, targetIndex)
	b.tracker.Record(r)
	b.mu.Lock()
	if b.drag.opID == opID {
		b.drag.last = r
		b.drag.hasLast = true
	}
	b.mu.Unlock()

	b.sess.UpdateDragPosition(r.InsertionIndex, r.Position)
	if from >= 0 {
		b.sess.ApplyTemporaryReorganization(draggedID, mutate.AfterRemoval(from, r.InsertionIndex), opID)
	} else if draggedID != "" {
		b.log.Warn("dragged element left the page", zap.String("element_id", draggedID), zap.String("operation_id", opID))
	}
	return r, true
}

// Drop commits the last computed insertion point: a dragged element is reordered, a
// dragged template becomes a new element. The session is ended either way.
func (b *Builder) Drop(ctx context.Context) (DropResult, error) {
	st := b.sess.Snapshot()
	if !st.IsDragging {
		return DropResult{}, ErrNoDrag
	}
	opID := st.OperationID
	b.mu.Lock()
	b.syncDragLocked(opID)
	last, hasLast, from := b.drag.last, b.drag.hasLast, b.fromLocked()
	b.mu.Unlock()

	res := DropResult{OperationID: opID, Calculation: last}
	if !hasLast {
		b.log.Info("drop without a target; reverting", zap.String("operation_id", opID))
		b.endDrag(opID, false)
		res.Tracker = b.tracker.Stats()
		return res, nil
	}

	var err error
	switch {
	case st.DraggedElement != nil:
		res.Changed, err = b.ReorderElement(ctx, st.DraggedElement.ID, mutate.AfterRemoval(from, last.InsertionIndex))
		if err == nil {
			if el, ok := b.Page().FindElement(st.DraggedElement.ID); ok {
				e := el.Clone()
				res.Element = &e
			}
		}
	case st.DraggedTemplate != nil:
		res.Element, err = b.AddElement(ctx, st.DraggedTemplate.ID, last.InsertionIndex)
		res.Changed = err == nil
	}
	res.Tracker = b.tracker.Stats()
	if err != nil {
		b.endDrag(opID, false)
		return res, err
	}
	b.endDrag(opID, true)
	return res, nil
}

// AbortDrag cancels the open drag, restoring the committed order.
func (b *Builder) AbortDrag() bool {
	ok := b.sess.CancelDragOperation("")
	b.mu.Lock()
	b.drag = dragState{}
	b.mu.Unlock()
	return ok
}

func (b *Builder) endDrag(opID string, success bool) {
	b.sess.EndDragOperation(opID, success)
	b.mu.Lock()
	b.drag = dragState{}
	b.mu.Unlock()
}

func (b *Builder) DragStats() DragStats {
	ds := DragStats{
		Session:   b.sess.Metrics(),
		Tracker:   b.tracker.Stats(),
		Abandoned: b.sess.AbandonedOperations(),
	}
	opID := b.sess.OperationID()
	b.mu.Lock()
	var throttle *dnd.Throttle
	if b.syncDragLocked(opID) {
		throttle = b.drag.throttle
	}
	b.mu.Unlock()
	if throttle != nil {
		ds.Executed, ds.Throttled = throttle.Counts()
	}
	return ds
}
