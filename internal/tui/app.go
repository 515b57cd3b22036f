package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"biolink-cli/internal/builder"
	"biolink-cli/internal/dnd"
	"biolink-cli/internal/model"
	"biolink-cli/internal/publish"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// dragCheckInterval is how often an open drag is checked against the session, which
// abandons it on its own after the watchdog timeout.
const dragCheckInterval = time.Second

type dragCheckMsg struct{ opID string }

type dragView struct {
	opID     string
	label    string
	template string
	hover    int
	result   dnd.Result
	has      bool
}

// Model is the interactive page builder. All edits go through the builder, so the
// drag session, history and persistence behave exactly as in the CLI.
type Model struct {
	ctx  context.Context
	b    *builder.Builder
	log  *zap.Logger
	keys keyMap
	help help.Model

	templates []model.Template

	width    int
	height   int
	selected int
	palette  int
	preview  bool

	drag      *dragView
	status    string
	statusErr bool
}

type Options struct {
	Logger *zap.Logger
}

func New(ctx context.Context, b *builder.Builder, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return Model{
		ctx:       ctx,
		b:         b,
		log:       opts.Logger.Named("tui"),
		keys:      defaultKeyMap(),
		help:      help.New(),
		templates: model.DefaultTemplates(),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case dragCheckMsg:
		if m.drag == nil || m.drag.opID != msg.opID {
			return m, nil
		}
		if m.b.Session().OperationID() != msg.opID {
			m.drag = nil
			m.setError("drag expired")
			return m, nil
		}
		return m, checkDrag(msg.opID)

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func checkDrag(opID string) tea.Cmd {
	return tea.Tick(dragCheckInterval, func(time.Time) tea.Msg { return dragCheckMsg{opID: opID} })
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || m.drag != nil {
			return m, nil
		}
		if msg.Y == paletteRow {
			i, ok := paletteAt(m.templates, msg.X)
			if !ok {
				return m, nil
			}
			m.palette = i
			tpl := m.templates[i]
			return m, m.beginDrag(model.TemplateItem{Template: tpl}, tpl.Label, tpl.ID)
		}
		els := m.b.Elements()
		slot, ok := cardAt(msg.Y, len(els))
		if !ok {
			return m, nil
		}
		m.selected = slot
		return m, m.beginDrag(model.ElementItem{Element: els[slot]}, summary(els[slot]), "")

	case tea.MouseActionMotion:
		if m.drag != nil {
			m.dragOver(msg.Y)
		}
		return m, nil

	case tea.MouseActionRelease:
		if m.drag != nil {
			m.drop()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) beginDrag(item model.DraggedItem, label, template string) tea.Cmd {
	opID := m.b.BeginDrag(item)
	if opID == "" {
		m.setError("cannot drag " + item.ItemID())
		return nil
	}
	m.drag = &dragView{opID: opID, label: label, template: template, hover: -1}
	m.setStatus("dragging " + label)
	return checkDrag(opID)
}

func (m *Model) dragOver(row int) {
	order := m.b.Session().CurrentElementOrder()
	slot, ok := cardAt(row, len(order))
	if !ok {
		return
	}
	targetID := order[slot].ID
	target := indexByID(m.b.Elements(), targetID)
	if target < 0 {
		return
	}
	r, ok := m.b.DragOver(pointerY(row), cardRect(slot), m.b.DraggedIndex(), target)
	if !ok {
		m.drag = nil
		m.setError("drag expired")
		return
	}
	m.drag.result = r
	m.drag.has = true
	m.drag.hover = indexByID(m.b.Session().CurrentElementOrder(), targetID)
}

func (m *Model) drop() {
	label := m.drag.label
	m.drag = nil
	res, err := m.b.Drop(m.ctx)
	switch {
	case errors.Is(err, builder.ErrNoDrag):
		m.setError("drag expired")
		return
	case err != nil:
		m.setError(err.Error())
		return
	case res.Element == nil || !res.Changed:
		m.setStatus("dropped " + label + " in place")
		return
	}
	if i := indexByID(m.b.Elements(), res.Element.ID); i >= 0 {
		m.selected = i
	}
	m.setStatus(fmt.Sprintf("dropped %s at %d", label, res.Calculation.InsertionIndex))
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.drag != nil {
		switch {
		case key.Matches(msg, m.keys.Abort):
			m.b.AbortDrag()
			m.drag = nil
			m.setStatus("drag cancelled")
		case key.Matches(msg, m.keys.Quit):
			m.b.AbortDrag()
			m.drag = nil
			return m, tea.Quit
		}
		return m, nil
	}

	els := m.b.Elements()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Preview):
		m.preview = !m.preview
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(els)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.MoveUp):
		m.moveSelected(els, -1)
	case key.Matches(msg, m.keys.MoveDown):
		m.moveSelected(els, 1)
	case key.Matches(msg, m.keys.Palette):
		if len(m.templates) > 0 {
			m.palette = (m.palette + 1) % len(m.templates)
			m.setStatus("template: " + m.templates[m.palette].Label)
		}
	case key.Matches(msg, m.keys.Add):
		m.addFromPalette(els)
	case key.Matches(msg, m.keys.Delete):
		if m.selected < 0 || m.selected >= len(els) {
			return m, nil
		}
		if err := m.b.DeleteElement(m.ctx, els[m.selected].ID); err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.setStatus("deleted " + els[m.selected].ID)
		m.clampSelection()
	case key.Matches(msg, m.keys.Undo):
		if !m.b.Undo(m.ctx) {
			m.setStatus("nothing to undo")
			return m, nil
		}
		m.setStatus("undone")
		m.clampSelection()
	case key.Matches(msg, m.keys.Redo):
		if !m.b.Redo(m.ctx) {
			m.setStatus("nothing to redo")
			return m, nil
		}
		m.setStatus("redone")
		m.clampSelection()
	}
	return m, nil
}

func (m *Model) moveSelected(els []model.Element, delta int) {
	if m.selected < 0 || m.selected >= len(els) {
		return
	}
	to := m.selected + delta
	if to < 0 || to >= len(els) {
		return
	}
	changed, err := m.b.ReorderElement(m.ctx, els[m.selected].ID, to)
	if err != nil {
		m.setError(err.Error())
		return
	}
	if changed {
		m.selected = to
	}
}

func (m *Model) addFromPalette(els []model.Element) {
	if len(m.templates) == 0 {
		return
	}
	at := 0
	if len(els) > 0 {
		at = m.selected + 1
	}
	el, err := m.b.AddElement(m.ctx, m.templates[m.palette].ID, at)
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.selected = at
	m.setStatus("added " + el.ID)
}

func (m *Model) clampSelection() {
	n := len(m.b.Elements())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.log.Debug("tui error", zap.String("message", s))
	m.status = s
	m.statusErr = true
}

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultW
	}
	listW := width
	showPreview := m.preview && width >= 80
	if showPreview {
		listW = width / 2
	}

	page := m.b.Page()
	order := m.b.Session().CurrentElementOrder()

	indicatorGap := -1
	draggedID := ""
	if m.drag != nil {
		if st := m.b.Session().Snapshot(); st.DraggedElement != nil {
			draggedID = st.DraggedElement.ID
		}
		if m.drag.has && m.drag.hover >= 0 && m.drag.result.ShowIndicator() {
			indicatorGap = m.drag.hover
			if m.drag.result.Position == dnd.PositionBottom {
				indicatorGap++
			}
		}
	}

	lines := make([]string, 0, len(order)*cardStride+6)
	header := lipgloss.NewStyle().Bold(true).Render(page.Title) +
		styleMuted().Render(fmt.Sprintf("  %d elements", len(page.Elements)))
	lines = append(lines, header)
	dragTemplate := ""
	if m.drag != nil {
		dragTemplate = m.drag.template
	}
	lines = append(lines, renderPalette(m.templates, m.palette, dragTemplate))

	gap := func(i int) string {
		if i == indicatorGap {
			return renderIndicator(listW)
		}
		return ""
	}
	for i, e := range order {
		lines = append(lines, gap(i))
		state := cardPlain
		switch {
		case e.ID == draggedID:
			state = cardDragged
		case m.drag == nil && i == m.selected:
			state = cardSelected
		}
		lines = append(lines, strings.Split(renderCard(e, listW, state), "\n")...)
	}
	lines = append(lines, gap(len(order)))

	status := m.status
	if status != "" {
		st := styleMuted()
		if m.statusErr {
			st = lipgloss.NewStyle().Foreground(colorError)
		}
		lines = append(lines, st.Render(status))
	}
	lines = append(lines, m.help.View(m.keys))

	list := strings.Join(lines, "\n")
	if !showPreview {
		return list
	}
	md, err := publish.RenderMarkdown(page, publish.RenderOptions{})
	if err != nil {
		return list
	}
	right := lipgloss.NewStyle().PaddingLeft(2).Render(RenderMarkdown(md, width-listW-2))
	return lipgloss.JoinHorizontal(lipgloss.Top, list, right)
}

func indexByID(els []model.Element, id string) int {
	for i, e := range els {
		if e.ID == id {
			return i
		}
	}
	return -1
}
