package session

import (
	"time"
	"unsafe"

	"biolink-cli/internal/dnd"
	"biolink-cli/internal/model"
)

type StateVersion struct {
	Version     uint64    `json:"version" yaml:"version"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	OperationID string    `json:"operationId,omitempty" yaml:"operationId,omitempty"`
}

// PerformanceMetrics are advisory counters; nothing reads them for correctness.
type PerformanceMetrics struct {
	CalculationCount       int           `json:"calculationCount" yaml:"calculationCount"`
	LastCalculationTime    time.Duration `json:"lastCalculationTime" yaml:"lastCalculationTime"`
	AverageCalculationTime time.Duration `json:"averageCalculationTime" yaml:"averageCalculationTime"`
	CalculationsPerSecond  float64       `json:"calculationsPerSecond" yaml:"calculationsPerSecond"`
	MemoryUsageBytes       int           `json:"memoryUsageBytes" yaml:"memoryUsageBytes"`
}

const maxCalculationsPerSecond = 60

// State is the drag session record. When IsDragging is false every transient field
// (dragged item, over index, insertion side, temporary order, operation ID) is empty.
type State struct {
	IsDragging        bool            `json:"isDragging" yaml:"isDragging"`
	DraggedElement    *model.Element  `json:"draggedElement,omitempty" yaml:"draggedElement,omitempty"`
	DraggedTemplate   *model.Template `json:"draggedTemplate,omitempty" yaml:"draggedTemplate,omitempty"`
	DragOverIndex     *int            `json:"dragOverIndex,omitempty" yaml:"dragOverIndex,omitempty"`
	InsertionPosition *dnd.Position   `json:"insertionPosition,omitempty" yaml:"insertionPosition,omitempty"`

	// TemporaryOrder is a visual-only permutation of element IDs. It is set if and
	// only if IsTemporaryReorganization is true.
	TemporaryOrder            []string `json:"temporaryOrder,omitempty" yaml:"temporaryOrder,omitempty"`
	IsTemporaryReorganization bool     `json:"isTemporaryReorganization" yaml:"isTemporaryReorganization"`

	OperationID string    `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	StartedAt   time.Time `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	LastUpdate  time.Time `json:"lastUpdate,omitempty" yaml:"lastUpdate,omitempty"`

	Version             StateVersion       `json:"version" yaml:"version"`
	Metrics             PerformanceMetrics `json:"metrics" yaml:"metrics"`
	AbandonedOperations []string           `json:"abandonedOperations,omitempty" yaml:"abandonedOperations,omitempty"`
}

func (s State) clone() State {
	out := s
	if s.DraggedElement != nil {
		e := s.DraggedElement.Clone()
		out.DraggedElement = &e
	}
	if s.DraggedTemplate != nil {
		t := *s.DraggedTemplate
		out.DraggedTemplate = &t
	}
	if s.DragOverIndex != nil {
		i := *s.DragOverIndex
		out.DragOverIndex = &i
	}
	if s.InsertionPosition != nil {
		p := *s.InsertionPosition
		out.InsertionPosition = &p
	}
	out.TemporaryOrder = append([]string(nil), s.TemporaryOrder...)
	out.AbandonedOperations = append([]string(nil), s.AbandonedOperations...)
	return out
}

func clearTransient(s *State) {
	s.IsDragging = false
	s.DraggedElement = nil
	s.DraggedTemplate = nil
	s.DragOverIndex = nil
	s.InsertionPosition = nil
	s.TemporaryOrder = nil
	s.IsTemporaryReorganization = false
	s.OperationID = ""
	s.StartedAt = time.Time{}
}

// approximateSize estimates the bytes held by the record, strings included.
func approximateSize(s *State) int {
	n := int(unsafe.Sizeof(*s))
	n += len(s.OperationID) + len(s.Version.OperationID)
	for _, id := range s.TemporaryOrder {
		n += int(unsafe.Sizeof(id)) + len(id)
	}
	for _, id := range s.AbandonedOperations {
		n += int(unsafe.Sizeof(id)) + len(id)
	}
	if s.DraggedElement != nil {
		n += int(unsafe.Sizeof(*s.DraggedElement)) + len(s.DraggedElement.ID)
	}
	if s.DraggedTemplate != nil {
		n += int(unsafe.Sizeof(*s.DraggedTemplate)) + len(s.DraggedTemplate.ID)
	}
	return n
}
