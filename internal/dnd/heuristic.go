package dnd

import (
	"math"

	"biolink-cli/internal/model"
)

// Index is an optional list index. Template drags have no original index, so the
// direction heuristic cannot apply to them.
type Index struct {
	Value int
	Valid bool
}

func At(i int) Index { return Index{Value: i, Valid: true} }

var NoIndex = Index{}

// ShouldUseDirectionHeuristic reports whether a middle-zone hit can be resolved from the
// direction of travel: both indices must be known and differ.
func ShouldUseDirectionHeuristic(zone Zone, draggedIndex Index, targetIndex int) bool {
	return zone == ZoneMiddle && draggedIndex.Valid && draggedIndex.Value != targetIndex
}

type HeuristicResult struct {
	Position       Position
	InsertionIndex int
	Confidence     float64
}

// DirectionHeuristic picks the insertion side from the direction of travel: an item
// dragged downward lands below the target, an item dragged upward lands above it.
// Confidence grows from ConfidenceLow towards ConfidenceMedium as the pointer moves away
// from the target's vertical center.
func DirectionHeuristic(draggedIndex, targetIndex int, mouseY float64, rect model.ElementRect) HeuristicResult {
	res := HeuristicResult{Position: PositionTop, InsertionIndex: targetIndex}
	if draggedIndex < targetIndex {
		res = HeuristicResult{Position: PositionBottom, InsertionIndex: targetIndex + 1}
	}

	ratio := 0.0
	if half := rect.Height / 2; half > 0 && !math.IsNaN(mouseY) {
		centerY := rect.Top + half
		ratio = math.Min(1, math.Abs(mouseY-centerY)/half)
	}
	res.Confidence = math.Max(ConfidenceLow, ConfidenceMedium*ratio)
	return res
}
