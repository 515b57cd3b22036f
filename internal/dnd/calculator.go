package dnd

import "biolink-cli/internal/model"

type Result struct {
	InsertionIndex         int      `json:"insertionIndex" yaml:"insertionIndex"`
	Position               Position `json:"position" yaml:"position"`
	Confidence             float64  `json:"confidence" yaml:"confidence"`
	Zone                   Zone     `json:"zone" yaml:"zone"`
	UsedDirectionHeuristic bool     `json:"usedDirectionHeuristic" yaml:"usedDirectionHeuristic"`
}

// ShowIndicator reports whether the result is certain enough to draw a precise
// insertion line.
func (r Result) ShowIndicator() bool {
	return r.Confidence > ConfidenceMinimum
}

// Calculator is the signature shared by Calculate and its wrappers.
type Calculator func(mouseY float64, rect model.ElementRect, draggedIndex Index, targetIndex int) Result

// Calculate decides where the dragged item lands relative to the element at targetIndex.
// InsertionIndex is expressed in the coordinates of the list before the dragged item is
// removed. It never fails: bad geometry and unknown indices degrade to an "insert above"
// answer at ConfidenceMinimum.
func Calculate(mouseY float64, rect model.ElementRect, draggedIndex Index, targetIndex int) Result {
	if degenerate(rect) {
		return Result{
			InsertionIndex: targetIndex,
			Position:       PositionTop,
			Confidence:     ConfidenceMinimum,
			Zone:           ZoneTop,
		}
	}

	zone := Classify(mouseY, rect)
	switch zone {
	case ZoneTop:
		return Result{InsertionIndex: targetIndex, Position: PositionTop, Confidence: ConfidenceHigh, Zone: zone}
	case ZoneBottom:
		return Result{InsertionIndex: targetIndex + 1, Position: PositionBottom, Confidence: ConfidenceHigh, Zone: zone}
	}

	if ShouldUseDirectionHeuristic(zone, draggedIndex, targetIndex) {
		h := DirectionHeuristic(draggedIndex.Value, targetIndex, mouseY, rect)
		return Result{
			InsertionIndex:         h.InsertionIndex,
			Position:               h.Position,
			Confidence:             h.Confidence,
			Zone:                   zone,
			UsedDirectionHeuristic: true,
		}
	}

	// Middle zone over the item itself (or with no known origin): insert above.
	return Result{InsertionIndex: targetIndex, Position: PositionTop, Confidence: ConfidenceMinimum, Zone: zone}
}
