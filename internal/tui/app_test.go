package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"biolink-cli/internal/builder"
	"biolink-cli/internal/clock"
	"biolink-cli/internal/model"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func newTestModel(t *testing.T) (Model, *builder.Builder, *clock.Fake) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)

	fc := clock.NewFake(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	n := 0
	page := &model.Page{
		ID:    "page-1",
		Title: "Ada",
		Elements: []model.Element{
			{ID: "a", Type: model.ElementProfile, Position: 0, Content: model.ElementContent{Title: "Ada"}},
			{ID: "b", Type: model.ElementLink, Position: 1, Content: model.ElementContent{Title: "Blog", URL: "https://ada.dev"}},
			{ID: "c", Type: model.ElementText, Position: 2, Content: model.ElementContent{Text: "hello"}},
			{ID: "d", Type: model.ElementDivider, Position: 3},
		},
	}
	b, err := builder.New(page, builder.Options{
		Clock: fc,
		NewID: func(prefix string) (string, error) {
			n++
			return fmt.Sprintf("%s-%d", prefix, n), nil
		},
	})
	if err != nil {
		t.Fatalf("builder.New: %v", err)
	}
	t.Cleanup(b.Close)

	m := New(context.Background(), b, Options{})
	m = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 40})
	return m, b, fc
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return mm
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func motion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func ids(els []model.Element) string {
	out := make([]string, 0, len(els))
	for _, e := range els {
		out = append(out, e.ID)
	}
	return strings.Join(out, ",")
}

func TestCardGeometry(t *testing.T) {
	if got := cardTop(0); got != 3 {
		t.Fatalf("cardTop(0)=%d", got)
	}
	if got := cardTop(2); got != 11 {
		t.Fatalf("cardTop(2)=%d", got)
	}
	tests := []struct {
		row  int
		slot int
		ok   bool
	}{
		{row: 1, slot: -1, ok: false},
		{row: 2, slot: -1, ok: false},
		{row: 3, slot: 0, ok: true},
		{row: 5, slot: 0, ok: true},
		{row: 6, slot: -1, ok: false},
		{row: 7, slot: 1, ok: true},
		{row: 19, slot: 3, ok: true},
		{row: 23, slot: -1, ok: false},
	}
	for _, tt := range tests {
		slot, ok := cardAt(tt.row, 4)
		if slot != tt.slot || ok != tt.ok {
			t.Fatalf("cardAt(%d)=(%d,%v), want (%d,%v)", tt.row, slot, ok, tt.slot, tt.ok)
		}
	}
}

func TestMouseDragReordersElement(t *testing.T) {
	m, b, _ := newTestModel(t)

	m = update(t, m, press(5, cardTop(0)+1))
	if m.drag == nil {
		t.Fatalf("expected drag to start")
	}
	if !b.Session().IsDragging() {
		t.Fatalf("expected session to be dragging")
	}

	// Bottom row of the third card: insert below c.
	m = update(t, m, motion(5, cardTop(2)+2))
	if got := ids(b.Session().CurrentElementOrder()); got != "b,c,a,d" {
		t.Fatalf("overlay order=%s", got)
	}
	if got := ids(b.Elements()); got != "a,b,c,d" {
		t.Fatalf("committed order changed during drag: %s", got)
	}
	if !strings.Contains(m.View(), indicatorCh+indicatorCh+indicatorCh) {
		t.Fatalf("expected insertion line in view:\n%s", m.View())
	}

	m = update(t, m, release(5, cardTop(2)+2))
	if m.drag != nil {
		t.Fatalf("expected drag to end")
	}
	if got := ids(b.Elements()); got != "b,c,a,d" {
		t.Fatalf("committed order=%s", got)
	}
	if m.selected != 2 {
		t.Fatalf("selected=%d, want 2", m.selected)
	}
	if strings.Contains(m.View(), indicatorCh) {
		t.Fatalf("insertion line left after drop")
	}
}

func TestMouseDragTemplateFromPalette(t *testing.T) {
	m, b, _ := newTestModel(t)

	spans := paletteSpans(m.templates)
	m = update(t, m, press(spans[1].start, paletteRow))
	if m.drag == nil || m.drag.template != "tpl-link" {
		t.Fatalf("expected template drag, got %+v", m.drag)
	}

	// Top row of the second card: insert above b.
	m = update(t, m, motion(5, cardTop(1)))
	m = update(t, m, release(5, cardTop(1)))

	if got := ids(b.Elements()); got != "a,el-1,b,c,d" {
		t.Fatalf("order=%s", got)
	}
	if m.selected != 1 {
		t.Fatalf("selected=%d, want 1", m.selected)
	}
}

func TestEscAbortsDrag(t *testing.T) {
	m, b, _ := newTestModel(t)

	m = update(t, m, press(5, cardTop(0)+1))
	m = update(t, m, motion(5, cardTop(2)+2))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.drag != nil || b.Session().IsDragging() {
		t.Fatalf("expected drag to be cancelled")
	}
	if got := ids(b.Session().CurrentElementOrder()); got != "a,b,c,d" {
		t.Fatalf("order after abort=%s", got)
	}
	if past, _ := b.History().Len(); past != 0 {
		t.Fatalf("abort pushed history: %d", past)
	}
}

func TestReleaseWithoutTargetLeavesOrder(t *testing.T) {
	m, b, _ := newTestModel(t)

	m = update(t, m, press(5, cardTop(1)))
	m = update(t, m, release(5, cardTop(1)))
	if got := ids(b.Elements()); got != "a,b,c,d" {
		t.Fatalf("order=%s", got)
	}
	if m.statusErr {
		t.Fatalf("unexpected error status %q", m.status)
	}
}

func TestKeysIgnoredWhileDragging(t *testing.T) {
	m, b, _ := newTestModel(t)

	m = update(t, m, runes("j"))
	m = update(t, m, runes("J"))
	if got := ids(b.Elements()); got != "a,c,b,d" {
		t.Fatalf("order=%s", got)
	}

	m = update(t, m, press(5, cardTop(0)+1))
	m = update(t, m, runes("u"))
	if got := ids(b.Elements()); got != "a,c,b,d" {
		t.Fatalf("undo ran during drag: %s", got)
	}
	if m.drag == nil {
		t.Fatalf("drag ended by an unrelated key")
	}
}

func TestWatchdogExpiresDrag(t *testing.T) {
	m, b, fc := newTestModel(t)

	m = update(t, m, press(5, cardTop(0)+1))
	opID := m.drag.opID
	fc.Advance(30*time.Second + time.Millisecond)
	if b.Session().IsDragging() {
		t.Fatalf("expected watchdog to abandon the drag")
	}

	m = update(t, m, dragCheckMsg{opID: opID})
	if m.drag != nil {
		t.Fatalf("expected drag view to be cleared")
	}
	if !m.statusErr || m.status != "drag expired" {
		t.Fatalf("status=%q err=%v", m.status, m.statusErr)
	}
}

func TestKeyboardEditing(t *testing.T) {
	m, b, _ := newTestModel(t)

	m = update(t, m, runes("j"))
	if m.selected != 1 {
		t.Fatalf("selected=%d", m.selected)
	}
	m = update(t, m, runes("J"))
	if got := ids(b.Elements()); got != "a,c,b,d" || m.selected != 2 {
		t.Fatalf("after J: order=%s selected=%d", got, m.selected)
	}
	m = update(t, m, runes("K"))
	if got := ids(b.Elements()); got != "a,b,c,d" || m.selected != 1 {
		t.Fatalf("after K: order=%s selected=%d", got, m.selected)
	}

	m = update(t, m, runes("u"))
	if got := ids(b.Elements()); got != "a,c,b,d" {
		t.Fatalf("after undo: %s", got)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if got := ids(b.Elements()); got != "a,b,c,d" {
		t.Fatalf("after redo: %s", got)
	}

	m = update(t, m, runes("a"))
	if m.palette != 1 {
		t.Fatalf("palette=%d", m.palette)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := ids(b.Elements()); got != "a,b,el-1,c,d" || m.selected != 2 {
		t.Fatalf("after add: order=%s selected=%d", got, m.selected)
	}
	if e, _ := b.Page().FindElement("el-1"); e.Type != model.ElementLink {
		t.Fatalf("added type=%s", e.Type)
	}

	m = update(t, m, runes("d"))
	if got := ids(b.Elements()); got != "a,b,c,d" {
		t.Fatalf("after delete: %s", got)
	}

	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	_ = next
}

func TestViewRendersCardsInOrder(t *testing.T) {
	m, _, _ := newTestModel(t)

	v := m.View()
	lines := strings.Split(v, "\n")
	if !strings.HasPrefix(lines[headerRow], "Ada") {
		t.Fatalf("header=%q", lines[headerRow])
	}
	if !strings.HasPrefix(lines[paletteRow], palettePfx) {
		t.Fatalf("palette=%q", lines[paletteRow])
	}
	for slot, want := range []string{"profile · Ada", "link · Blog", "text · hello", "divider"} {
		row := lines[cardTop(slot)+1]
		if !strings.Contains(row, want) {
			t.Fatalf("card %d row=%q, want %q", slot, row, want)
		}
	}
}

func TestSummaryTruncatesToCardWidth(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	e := model.Element{ID: "x", Type: model.ElementText, Content: model.ElementContent{Text: strings.Repeat("long ", 40)}}
	card := renderCard(e, 30, cardPlain)
	for _, ln := range strings.Split(card, "\n") {
		if w := lipgloss.Width(ln); w > 30 {
			t.Fatalf("line width %d > 30: %q", w, ln)
		}
	}
	if n := len(strings.Split(card, "\n")); n != cardHeight {
		t.Fatalf("card height %d", n)
	}
}
