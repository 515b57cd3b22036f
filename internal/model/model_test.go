package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePage() *Page {
	loc := time.FixedZone("X", 3*3600)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, loc)
	return &Page{
		ID:    "page-1",
		Title: "Me",
		Background: Background{
			Kind:     BackgroundGradient,
			Gradient: &Gradient{From: "#000", To: "#fff", Angle: 90},
		},
		Elements: []Element{
			{ID: "b", Type: ElementLink, Position: 1, CreatedAt: ts},
			{ID: "a", Type: ElementSocial, Position: 0, CreatedAt: ts, Content: ElementContent{
				Socials: []SocialLink{{Network: "x", URL: "https://x.com/me"}},
			}},
		},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestPageClone_IsDeepAndKeepsTimes(t *testing.T) {
	p := samplePage()
	c := p.Clone()

	require.Equal(t, p, c)
	assert.True(t, c.CreatedAt.Equal(p.CreatedAt))
	assert.Equal(t, p.CreatedAt.Location().String(), c.CreatedAt.Location().String())

	c.Elements[1].Content.Socials[0].URL = "changed"
	c.Background.Gradient.Angle = 10
	c.Elements[0].ID = "zzz"

	assert.Equal(t, "https://x.com/me", p.Elements[1].Content.Socials[0].URL)
	assert.Equal(t, 90, p.Background.Gradient.Angle)
	assert.Equal(t, "b", p.Elements[0].ID)
}

func TestPageClone_Nil(t *testing.T) {
	var p *Page
	assert.Nil(t, p.Clone())
}

func TestSortedElementsAndNormalize(t *testing.T) {
	p := samplePage()
	sorted := p.SortedElements()
	require.Len(t, sorted, 2)
	assert.Equal(t, "a", sorted[0].ID)
	assert.Equal(t, "b", sorted[1].ID)
	// Source slice untouched.
	assert.Equal(t, "b", p.Elements[0].ID)

	p.Elements[0].Position = 7
	p.Elements[1].Position = 3
	p.Normalize()
	assert.Equal(t, "a", p.Elements[0].ID)
	assert.Equal(t, 0, p.Elements[0].Position)
	assert.Equal(t, 1, p.Elements[1].Position)
	assert.Equal(t, 1, p.IndexOf("b"))
	assert.Equal(t, -1, p.IndexOf("nope"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Page)
		ok     bool
	}{
		{name: "valid", mutate: func(p *Page) {}, ok: true},
		{name: "missing id", mutate: func(p *Page) { p.ID = "" }},
		{name: "duplicate element", mutate: func(p *Page) { p.Elements[1].ID = "b" }},
		{name: "gap in positions", mutate: func(p *Page) { p.Elements[1].Position = 5 }},
		{name: "duplicate position", mutate: func(p *Page) { p.Elements[1].Position = 1 }},
		{name: "unknown type", mutate: func(p *Page) { p.Elements[0].Type = "video" }},
		{name: "gradient missing", mutate: func(p *Page) { p.Background.Gradient = nil }},
		{name: "unknown background", mutate: func(p *Page) { p.Background.Kind = "pattern" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := samplePage()
			tc.mutate(p)
			err := p.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			var ip InvalidPageError
			assert.ErrorAs(t, err, &ip)
		})
	}
}

func TestDraggedItemKinds(t *testing.T) {
	var items []DraggedItem
	items = append(items, ElementItem{Element: Element{ID: "el-1"}})
	tpl, ok := FindTemplate("link")
	require.True(t, ok)
	items = append(items, TemplateItem{Template: tpl})

	assert.Equal(t, "el-1", items[0].ItemID())
	assert.Equal(t, "tpl-link", items[1].ItemID())

	_, ok = FindTemplate("tpl-divider")
	assert.True(t, ok)
	_, ok = FindTemplate("video")
	assert.False(t, ok)
}

func TestNewElementRect(t *testing.T) {
	r := NewElementRect(100, 40)
	assert.Equal(t, 140.0, r.Bottom)
}
