package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type ElementType string

const (
	ElementProfile ElementType = "profile"
	ElementLink    ElementType = "link"
	ElementText    ElementType = "text"
	ElementSocial  ElementType = "social"
	ElementImage   ElementType = "image"
	ElementDivider ElementType = "divider"
)

func (t ElementType) Valid() bool {
	switch t {
	case ElementProfile, ElementLink, ElementText, ElementSocial, ElementImage, ElementDivider:
		return true
	default:
		return false
	}
}

type BackgroundKind string

const (
	BackgroundSolid    BackgroundKind = "solid"
	BackgroundGradient BackgroundKind = "gradient"
	BackgroundImage    BackgroundKind = "image"
)

type Gradient struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Angle int    `json:"angle" yaml:"angle"`
}

type Background struct {
	Kind     BackgroundKind `json:"kind" yaml:"kind"`
	Color    string         `json:"color,omitempty" yaml:"color,omitempty"`
	Gradient *Gradient      `json:"gradient,omitempty" yaml:"gradient,omitempty"`
	ImageURL string         `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// SocialLink is one button of a social element.
type SocialLink struct {
	Network string `json:"network" yaml:"network"`
	URL     string `json:"url" yaml:"url"`
}

// ElementContent is the union of fields used by the different element types.
// Unused fields stay empty.
type ElementContent struct {
	Title    string       `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle string       `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Text     string       `json:"text,omitempty" yaml:"text,omitempty"`
	URL      string       `json:"url,omitempty" yaml:"url,omitempty"`
	ImageURL string       `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Socials  []SocialLink `json:"socials,omitempty" yaml:"socials,omitempty"`
}

type ElementStyle struct {
	TextColor       string `json:"textColor,omitempty" yaml:"textColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	Radius          int    `json:"radius,omitempty" yaml:"radius,omitempty"`
}

type Element struct {
	ID       string         `json:"id" yaml:"id"`
	Type     ElementType    `json:"type" yaml:"type"`
	Position int            `json:"position" yaml:"position"`
	Content  ElementContent `json:"content" yaml:"content"`
	Style    ElementStyle   `json:"style" yaml:"style"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Clone returns a copy that shares no slices with e.
func (e Element) Clone() Element {
	out := e
	if e.Content.Socials != nil {
		out.Content.Socials = append([]SocialLink(nil), e.Content.Socials...)
	}
	return out
}

type Page struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Background Background `json:"background" yaml:"background"`
	Elements   []Element  `json:"elements" yaml:"elements"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Clone returns a structural deep copy of p. Timestamps are plain values so they
// survive the copy unchanged (including their location).
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := *p
	if p.Background.Gradient != nil {
		g := *p.Background.Gradient
		out.Background.Gradient = &g
	}
	if p.Elements != nil {
		out.Elements = make([]Element, len(p.Elements))
		for i := range p.Elements {
			out.Elements[i] = p.Elements[i].Clone()
		}
	}
	return &out
}

// FindElement returns a pointer into p.Elements.
func (p *Page) FindElement(id string) (*Element, bool) {
	id = strings.TrimSpace(id)
	for i := range p.Elements {
		if p.Elements[i].ID == id {
			return &p.Elements[i], true
		}
	}
	return nil, false
}

// SortedElements returns copies of the elements ordered by committed position, then ID.
func (p *Page) SortedElements() []Element {
	out := make([]Element, len(p.Elements))
	copy(out, p.Elements)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Normalize sorts the elements by position and rewrites positions densely from 0.
func (p *Page) Normalize() {
	sorted := p.SortedElements()
	for i := range sorted {
		sorted[i].Position = i
	}
	p.Elements = sorted
}

// IndexOf returns the index of id in committed order, or -1.
func (p *Page) IndexOf(id string) int {
	for i, e := range p.SortedElements() {
		if e.ID == id {
			return i
		}
	}
	return -1
}

type InvalidPageError struct {
	PageID string
	Reason string
}

func (e InvalidPageError) Error() string {
	if e.PageID == "" {
		return "invalid page: " + e.Reason
	}
	return fmt.Sprintf("invalid page %s: %s", e.PageID, e.Reason)
}

// Validate checks the structural invariants every stored or restored page must hold:
// unique element IDs and dense, unique positions.
func (p *Page) Validate() error {
	if p == nil {
		return InvalidPageError{Reason: "nil page"}
	}
	if strings.TrimSpace(p.ID) == "" {
		return InvalidPageError{Reason: "missing id"}
	}
	seenIDs := make(map[string]bool, len(p.Elements))
	seenPos := make(map[int]bool, len(p.Elements))
	for _, e := range p.Elements {
		if strings.TrimSpace(e.ID) == "" {
			return InvalidPageError{PageID: p.ID, Reason: "element with empty id"}
		}
		if seenIDs[e.ID] {
			return InvalidPageError{PageID: p.ID, Reason: "duplicate element id " + e.ID}
		}
		seenIDs[e.ID] = true
		if !e.Type.Valid() {
			return InvalidPageError{PageID: p.ID, Reason: fmt.Sprintf("element %s has unknown type %q", e.ID, e.Type)}
		}
		if e.Position < 0 || e.Position >= len(p.Elements) || seenPos[e.Position] {
			return InvalidPageError{PageID: p.ID, Reason: fmt.Sprintf("element %s has non-dense position %d", e.ID, e.Position)}
		}
		seenPos[e.Position] = true
	}
	switch p.Background.Kind {
	case "", BackgroundSolid, BackgroundImage:
	case BackgroundGradient:
		if p.Background.Gradient == nil {
			return InvalidPageError{PageID: p.ID, Reason: "gradient background without gradient"}
		}
	default:
		return InvalidPageError{PageID: p.ID, Reason: fmt.Sprintf("unknown background kind %q", p.Background.Kind)}
	}
	return nil
}
