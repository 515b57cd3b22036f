// Package dnd computes where a dragged element should land in an ordered list of
// elements, given the pointer position over a drop target.
package dnd

import (
	"math"

	"biolink-cli/internal/model"
)

type Zone string

const (
	ZoneTop    Zone = "top"
	ZoneMiddle Zone = "middle"
	ZoneBottom Zone = "bottom"
)

// Position is the side of the target the dragged item is inserted on.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

const (
	// Outer zones are closed intervals: [0, TopZoneEnd] and [BottomZoneStart, 1].
	TopZoneEnd      = 0.30
	BottomZoneStart = 0.70
)

const (
	ConfidenceHigh    = 1.0
	ConfidenceMedium  = 0.8
	ConfidenceLow     = 0.6
	ConfidenceMinimum = 0.4
)

func degenerate(rect model.ElementRect) bool {
	return !(rect.Height > 0) || math.IsInf(rect.Height, 0) || math.IsNaN(rect.Top)
}

// relativeY returns the pointer offset into rect as a fraction of its height, pinned
// to [0, 1]. Pointers outside the rect (fast drags) stick to the nearest edge.
func relativeY(mouseY float64, rect model.ElementRect) float64 {
	if math.IsNaN(mouseY) {
		return 0
	}
	r := (mouseY - rect.Top) / rect.Height
	if math.IsNaN(r) {
		return 0
	}
	return math.Max(0, math.Min(1, r))
}

// Classify maps a pointer Y coordinate onto one of the three vertical bands of rect.
// A rect without positive height always classifies as ZoneTop.
func Classify(mouseY float64, rect model.ElementRect) Zone {
	if degenerate(rect) {
		return ZoneTop
	}
	r := relativeY(mouseY, rect)
	switch {
	case r <= TopZoneEnd:
		return ZoneTop
	case r >= BottomZoneStart:
		return ZoneBottom
	default:
		return ZoneMiddle
	}
}
