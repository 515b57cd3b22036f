package dnd

import (
	"sync"

	"biolink-cli/internal/model"
)

const trackerCapacity = 10

// Tracker records the most recent calculation results so callers can ask whether the
// insertion point has settled. Recording never changes what Calculate returns.
type Tracker struct {
	mu      sync.Mutex
	calc    Calculator
	results []Result
}

type TrackerStats struct {
	Samples               int          `json:"samples" yaml:"samples"`
	AverageConfidence     float64      `json:"averageConfidence" yaml:"averageConfidence"`
	ZoneDistribution      map[Zone]int `json:"zoneDistribution" yaml:"zoneDistribution"`
	HeuristicUsageRate    float64      `json:"heuristicUsageRate" yaml:"heuristicUsageRate"`
	PositionStabilityRate float64      `json:"positionStabilityRate" yaml:"positionStabilityRate"`
	LastInsertionIndex    int          `json:"lastInsertionIndex" yaml:"lastInsertionIndex"`
	LastInsertionPosition Position     `json:"lastInsertionPosition,omitempty" yaml:"lastInsertionPosition,omitempty"`
}

// NewTracker wraps calc; a nil calc uses Calculate.
func NewTracker(calc Calculator) *Tracker {
	if calc == nil {
		calc = Calculate
	}
	return &Tracker{calc: calc, results: make([]Result, 0, trackerCapacity)}
}

func (t *Tracker) Calculate(mouseY float64, rect model.ElementRect, draggedIndex Index, targetIndex int) Result {
	r := t.calc(mouseY, rect, draggedIndex, targetIndex)
	t.Record(r)
	return r
}

func (t *Tracker) Record(r Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.results) == trackerCapacity {
		copy(t.results, t.results[1:])
		t.results = t.results[:trackerCapacity-1]
	}
	t.results = append(t.results, r)
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results = t.results[:0]
}

// History returns the recorded results, oldest first.
func (t *Tracker) History() []Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Result(nil), t.results...)
}

// lastLocked returns the newest n results; n <= 0 means all.
func (t *Tracker) lastLocked(n int) []Result {
	if n <= 0 || n > len(t.results) {
		return t.results
	}
	return t.results[len(t.results)-n:]
}

// AverageConfidence averages the confidence of the newest n results (n <= 0: all).
func (t *Tracker) AverageConfidence(n int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	rs := t.lastLocked(n)
	if len(rs) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rs {
		sum += r.Confidence
	}
	return sum / float64(len(rs))
}

// IsStable reports whether the newest n results agree on insertion index and side.
// Fewer than n recorded results is never stable.
func (t *Tracker) IsStable(n int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || len(t.results) < n {
		return false
	}
	rs := t.lastLocked(n)
	first := rs[0]
	for _, r := range rs[1:] {
		if r.InsertionIndex != first.InsertionIndex || r.Position != first.Position {
			return false
		}
	}
	return true
}

func (t *Tracker) Stats() TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := TrackerStats{
		Samples:          len(t.results),
		ZoneDistribution: map[Zone]int{ZoneTop: 0, ZoneMiddle: 0, ZoneBottom: 0},
	}
	if len(t.results) == 0 {
		return st
	}
	sum := 0.0
	heuristic := 0
	for _, r := range t.results {
		sum += r.Confidence
		st.ZoneDistribution[r.Zone]++
		if r.UsedDirectionHeuristic {
			heuristic++
		}
	}
	st.AverageConfidence = sum / float64(len(t.results))
	st.HeuristicUsageRate = float64(heuristic) / float64(len(t.results))

	if len(t.results) > 1 {
		same := 0
		for i := 1; i < len(t.results); i++ {
			a, b := t.results[i-1], t.results[i]
			if a.InsertionIndex == b.InsertionIndex && a.Position == b.Position {
				same++
			}
		}
		st.PositionStabilityRate = float64(same) / float64(len(t.results)-1)
	} else {
		st.PositionStabilityRate = 1
	}
	last := t.results[len(t.results)-1]
	st.LastInsertionIndex = last.InsertionIndex
	st.LastInsertionPosition = last.Position
	return st
}
