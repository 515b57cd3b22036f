package tui

import (
	"strings"

	"biolink-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// Screen geometry. Row 0 is the header, row 1 the template palette. Below that, cards
// alternate with one-row gaps (gap, card, gap, card, ..., gap); the insertion line is
// drawn in a gap so the cards never shift under the pointer.
const (
	headerRow   = 0
	paletteRow  = 1
	listTop     = 2
	cardHeight  = 3
	cardStride  = cardHeight + 1
	minCardW    = 20
	defaultW    = 60
	palettePfx  = "add "
	indicatorCh = "━"
)

func cardTop(slot int) int { return listTop + slot*cardStride + 1 }

func cardRect(slot int) model.ElementRect {
	return model.NewElementRect(float64(cardTop(slot)), cardHeight)
}

// cardAt returns the display slot of the card covering screen row y.
func cardAt(y, n int) (int, bool) {
	if y < listTop {
		return -1, false
	}
	off := y - listTop
	slot := off / cardStride
	if off%cardStride == 0 || slot >= n {
		return -1, false
	}
	return slot, true
}

// pointerY maps a cell row to the middle of that row, so the three rows of a card fall
// into the top, middle and bottom zones.
func pointerY(row int) float64 { return float64(row) + 0.5 }

type span struct{ start, end int }

func paletteSpans(templates []model.Template) []span {
	out := make([]span, 0, len(templates))
	x := xansi.StringWidth(palettePfx)
	for _, t := range templates {
		w := xansi.StringWidth(t.Label) + 2
		out = append(out, span{start: x, end: x + w})
		x += w + 1
	}
	return out
}

func paletteAt(templates []model.Template, x int) (int, bool) {
	for i, s := range paletteSpans(templates) {
		if x >= s.start && x < s.end {
			return i, true
		}
	}
	return -1, false
}

func renderPalette(templates []model.Template, selected int, dragging string) string {
	chip := lipgloss.NewStyle().Padding(0, 1).Background(colorControlBg).Foreground(colorSurfaceFg)
	active := chip.Background(colorAccent).Foreground(colorAccentFg)
	parts := make([]string, 0, len(templates))
	for i, t := range templates {
		st := chip
		if i == selected || t.ID == dragging {
			st = active
		}
		parts = append(parts, st.Render(t.Label))
	}
	return styleMuted().Render(palettePfx) + strings.Join(parts, " ")
}

type cardState int

const (
	cardPlain cardState = iota
	cardSelected
	cardDragged
)

func renderCard(e model.Element, width int, state cardState) string {
	inner := width - 2
	if inner < minCardW {
		inner = minCardW
	}
	text := string(e.Type) + " · " + summary(e)
	text = xansi.Truncate(text, inner-2, "…")

	st := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCardBorder).
		Padding(0, 1).
		Width(inner)
	switch state {
	case cardSelected:
		st = st.BorderForeground(colorSelectedBorder).Bold(true)
	case cardDragged:
		st = st.BorderForeground(colorAccent).Foreground(colorAccent)
	}
	return st.Render(text)
}

func renderIndicator(width int) string {
	if width < minCardW {
		width = minCardW
	}
	return lipgloss.NewStyle().Foreground(colorIndicator).Render(strings.Repeat(indicatorCh, width))
}

// summary is the single-line label of an element card.
func summary(e model.Element) string {
	c := e.Content
	var s string
	switch e.Type {
	case model.ElementProfile:
		s = c.Title
		if c.Subtitle != "" {
			s += " · " + c.Subtitle
		}
	case model.ElementLink:
		s = c.Title
		if c.URL != "" {
			s += " → " + c.URL
		}
	case model.ElementText:
		s = c.Text
	case model.ElementSocial:
		nets := make([]string, 0, len(c.Socials))
		for _, sl := range c.Socials {
			nets = append(nets, sl.Network)
		}
		s = strings.Join(nets, ", ")
	case model.ElementImage:
		s = c.ImageURL
	case model.ElementDivider:
		s = "────"
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return e.ID
	}
	return s
}
