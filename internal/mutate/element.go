// Package mutate applies single edits to a page document. Functions change the page in
// place and report whether anything changed; callers own history and persistence.
package mutate

import (
	"strings"
	"time"

	"biolink-cli/internal/model"
)

type Result struct {
	Element *model.Element
	Changed bool
}

// AddElement materializes tpl as a new element with the given id at index at in
// committed order. at < 0 or past the end appends.
func AddElement(p *model.Page, tpl model.Template, id string, at int, now time.Time) (Result, error) {
	id = strings.TrimSpace(id)
	if p == nil {
		return Result{}, nil
	}
	if id == "" {
		return Result{}, InvalidValueError{Field: "element id", Reason: "empty"}
	}
	if !tpl.Type.Valid() {
		return Result{}, InvalidValueError{Field: "element type", Value: string(tpl.Type), Reason: "unknown"}
	}
	if _, ok := p.FindElement(id); ok {
		return Result{}, InvalidValueError{Field: "element id", Value: id, Reason: "already exists"}
	}

	order := p.SortedElements()
	if at < 0 || at > len(order) {
		at = len(order)
	}
	el := model.Element{
		ID:        id,
		Type:      tpl.Type,
		Content:   cloneContent(tpl.Defaults),
		CreatedAt: now,
		UpdatedAt: now,
	}
	next := make([]model.Element, 0, len(order)+1)
	next = append(next, order[:at]...)
	next = append(next, el)
	next = append(next, order[at:]...)
	renumber(next)
	p.Elements = next
	p.UpdatedAt = now

	added, _ := p.FindElement(id)
	return Result{Element: added, Changed: true}, nil
}

// ElementPatch holds optional field updates. Nil fields are left alone.
type ElementPatch struct {
	Title    *string
	Subtitle *string
	Text     *string
	URL      *string
	ImageURL *string

	TextColor       *string
	BackgroundColor *string
	Radius          *int
}

func (p ElementPatch) Empty() bool {
	return p.Title == nil && p.Subtitle == nil && p.Text == nil && p.URL == nil && p.ImageURL == nil &&
		p.TextColor == nil && p.BackgroundColor == nil && p.Radius == nil
}

func UpdateElement(p *model.Page, id string, patch ElementPatch, now time.Time) (Result, error) {
	id = strings.TrimSpace(id)
	if p == nil || id == "" {
		return Result{}, nil
	}
	el, ok := p.FindElement(id)
	if !ok {
		return Result{}, NotFoundError{Kind: "element", ID: id}
	}
	if err := validatePatch(patch); err != nil {
		return Result{}, err
	}

	changed := false
	set := func(dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	set(&el.Content.Title, patch.Title)
	set(&el.Content.Subtitle, patch.Subtitle)
	set(&el.Content.Text, patch.Text)
	set(&el.Content.URL, patch.URL)
	set(&el.Content.ImageURL, patch.ImageURL)
	set(&el.Style.TextColor, patch.TextColor)
	set(&el.Style.BackgroundColor, patch.BackgroundColor)
	if patch.Radius != nil && el.Style.Radius != *patch.Radius {
		el.Style.Radius = *patch.Radius
		changed = true
	}
	if changed {
		el.UpdatedAt = now
		p.UpdatedAt = now
	}
	return Result{Element: el, Changed: changed}, nil
}

func validatePatch(patch ElementPatch) error {
	for field, v := range map[string]*string{"text color": patch.TextColor, "background color": patch.BackgroundColor} {
		if v != nil && *v != "" && !ValidColor(*v) {
			return InvalidValueError{Field: field, Value: *v, Reason: "expected #rgb or #rrggbb"}
		}
	}
	for field, v := range map[string]*string{"url": patch.URL, "image url": patch.ImageURL} {
		if v != nil && *v != "" && !ValidURL(*v) {
			return InvalidValueError{Field: field, Value: *v, Reason: "expected an absolute http(s) URL"}
		}
	}
	if patch.Radius != nil && (*patch.Radius < 0 || *patch.Radius > 64) {
		return InvalidValueError{Field: "radius", Reason: "must be between 0 and 64"}
	}
	return nil
}

// DeleteElement removes id and closes the gap in positions.
func DeleteElement(p *model.Page, id string, now time.Time) (Result, error) {
	id = strings.TrimSpace(id)
	if p == nil || id == "" {
		return Result{}, nil
	}
	idx := p.IndexOf(id)
	if idx < 0 {
		return Result{}, NotFoundError{Kind: "element", ID: id}
	}
	order := p.SortedElements()
	removed := order[idx].Clone()
	next := append(order[:idx:idx], order[idx+1:]...)
	renumber(next)
	p.Elements = next
	p.UpdatedAt = now
	return Result{Element: &removed, Changed: true}, nil
}

// MoveElement places id at insertAt, an index into the committed order with the
// element itself removed. Out-of-range indexes clamp.
func MoveElement(p *model.Page, id string, insertAt int, now time.Time) (Result, error) {
	id = strings.TrimSpace(id)
	if p == nil || id == "" {
		return Result{}, nil
	}
	from := p.IndexOf(id)
	if from < 0 {
		return Result{}, NotFoundError{Kind: "element", ID: id}
	}
	order := p.SortedElements()
	moved := order[from]
	rest := append(order[:from:from], order[from+1:]...)
	insertAt = max(0, min(insertAt, len(rest)))
	if insertAt == from {
		el, _ := p.FindElement(id)
		return Result{Element: el, Changed: false}, nil
	}
	next := make([]model.Element, 0, len(order))
	next = append(next, rest[:insertAt]...)
	next = append(next, moved)
	next = append(next, rest[insertAt:]...)
	renumber(next)
	for i := range next {
		if next[i].ID == id {
			next[i].UpdatedAt = now
		}
	}
	p.Elements = next
	p.UpdatedAt = now
	el, _ := p.FindElement(id)
	return Result{Element: el, Changed: true}, nil
}

// AfterRemoval converts an insertion index counted with the dragged element still in
// the list into one counted with it removed.
func AfterRemoval(from, insertionIndex int) int {
	if from >= 0 && insertionIndex > from {
		return insertionIndex - 1
	}
	return insertionIndex
}

func renumber(els []model.Element) {
	for i := range els {
		els[i].Position = i
	}
}

func cloneContent(c model.ElementContent) model.ElementContent {
	if c.Socials != nil {
		c.Socials = append([]model.SocialLink(nil), c.Socials...)
	}
	return c
}
