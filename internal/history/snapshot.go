package history

import (
	"encoding/json"
	"fmt"

	"biolink-cli/internal/model"
)

// Snapshotter turns a live page into an independent copy fit for the history stacks.
type Snapshotter interface {
	Snapshot(p *model.Page) (*model.Page, error)
}

// SnapshotFunc adapts a function to Snapshotter.
type SnapshotFunc func(p *model.Page) (*model.Page, error)

func (f SnapshotFunc) Snapshot(p *model.Page) (*model.Page, error) { return f(p) }

// CloneSnapshot is the precise copy: a structural clone that must validate as is.
var CloneSnapshot = SnapshotFunc(func(p *model.Page) (*model.Page, error) {
	if p == nil {
		return nil, model.InvalidPageError{Reason: "nil page"}
	}
	out := p.Clone()
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
})

// JSONSnapshot is the lenient copy used when CloneSnapshot refuses a page. It goes
// through the wire format and renumbers positions, so a page whose positions drifted
// still gets recorded.
var JSONSnapshot = SnapshotFunc(func(p *model.Page) (*model.Page, error) {
	if p == nil {
		return nil, model.InvalidPageError{Reason: "nil page"}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	var out model.Page
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	out.Normalize()
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
})

// restore copies a stored entry back out. A malformed entry reports an error.
func restore(p *model.Page) (*model.Page, error) {
	return CloneSnapshot.Snapshot(p)
}
