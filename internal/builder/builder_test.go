package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"biolink-cli/internal/clock"
	"biolink-cli/internal/dnd"
	"biolink-cli/internal/history"
	"biolink-cli/internal/model"
	"biolink-cli/internal/mutate"
	"biolink-cli/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type recordingPersister struct {
	mu        sync.Mutex
	pages     []*model.Page
	histories []history.State
	failPage  error
}

func (p *recordingPersister) SavePage(_ context.Context, page *model.Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failPage != nil {
		return p.failPage
	}
	p.pages = append(p.pages, page.Clone())
	return nil
}

func (p *recordingPersister) SaveHistory(_ context.Context, _ string, st history.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.histories = append(p.histories, st)
	return nil
}

func basePage() *model.Page {
	return &model.Page{
		ID:    "page-1",
		Title: "Ada",
		Elements: []model.Element{
			{ID: "a", Type: model.ElementProfile, Position: 0},
			{ID: "b", Type: model.ElementLink, Position: 1},
			{ID: "c", Type: model.ElementText, Position: 2},
			{ID: "d", Type: model.ElementDivider, Position: 3},
		},
	}
}

func sequentialIDs() func(string) (string, error) {
	n := 0
	return func(prefix string) (string, error) {
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}

func newTestBuilder(t *testing.T, persister Persister) (*Builder, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	opts := Options{
		Logger:           zaptest.NewLogger(t),
		Clock:            fc,
		NewID:            sequentialIDs(),
		ThrottleInterval: 16 * time.Millisecond,
	}
	if persister != nil {
		opts.Persister = persister
	}
	b, err := New(basePage(), opts)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b, fc
}

func ids(els []model.Element) []string {
	out := make([]string, len(els))
	for i, e := range els {
		out[i] = e.ID
	}
	return out
}

// rectFor lays cards out 100 units tall starting at y=0.
func rectFor(index int) model.ElementRect {
	return model.NewElementRect(float64(index*100), 100)
}

func TestNew_RejectsInvalidPage(t *testing.T) {
	_, err := New(nil, Options{})
	require.Error(t, err)

	p := basePage()
	p.Elements[1].ID = "a"
	_, err = New(p, Options{})
	var invalid model.InvalidPageError
	assert.True(t, errors.As(err, &invalid))
}

func TestNew_NormalizesPositions(t *testing.T) {
	p := basePage()
	p.Elements[0].Position = 10
	b, err := New(p, Options{})
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(b.Elements()))
}

func TestMutationsPushHistoryBeforeApplying(t *testing.T) {
	ctx := context.Background()
	b, fc := newTestBuilder(t, nil)

	el, err := b.AddElement(ctx, "link", 1)
	require.NoError(t, err)
	assert.Equal(t, "el-1", el.ID)
	assert.Equal(t, []string{"a", "el-1", "b", "c", "d"}, ids(b.Elements()))

	fc.Advance(time.Second)
	_, err = b.UpdateElement(ctx, "el-1", mutate.ElementPatch{Title: ptr("Blog")})
	require.NoError(t, err)
	fc.Advance(100 * time.Millisecond)
	_, err = b.UpdateElement(ctx, "el-1", mutate.ElementPatch{Title: ptr("Blog!")})
	require.NoError(t, err)

	past, _ := b.History().Len()
	assert.Equal(t, 2, past, "rapid edits of one element coalesce")

	// The coalesced entry holds the snapshot taken before the last edit of the batch.
	require.True(t, b.Undo(ctx))
	got, _ := b.Page().FindElement("el-1")
	assert.Equal(t, "Blog", got.Content.Title)

	require.True(t, b.Undo(ctx))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(b.Elements()))
	assert.False(t, b.Undo(ctx))

	require.True(t, b.Redo(ctx))
	require.True(t, b.Redo(ctx))
	got, _ = b.Page().FindElement("el-1")
	assert.Equal(t, "Blog!", got.Content.Title)
	assert.False(t, b.Redo(ctx))
}

func TestFailedOrNoOpMutationsLeaveHistoryAlone(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t, nil)

	_, err := b.AddElement(ctx, "carousel", 0)
	var nf mutate.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "template", nf.Kind)

	_, err = b.UpdateElement(ctx, "zzz", mutate.ElementPatch{Title: ptr("x")})
	require.Error(t, err)
	require.Error(t, b.DeleteElement(ctx, "zzz"))
	_, err = b.SetBackground(ctx, model.Background{Kind: model.BackgroundSolid, Color: "nope"})
	require.Error(t, err)

	changed, err := b.ReorderElement(ctx, "b", 1)
	require.NoError(t, err)
	assert.False(t, changed)
	changed, err = b.SetTitle(ctx, "Ada")
	require.NoError(t, err)
	assert.False(t, changed)

	assert.False(t, b.History().CanUndo())
}

func TestDeleteBackgroundTitle(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t, nil)

	require.NoError(t, b.DeleteElement(ctx, "c"))
	changed, err := b.SetBackground(ctx, model.Background{Kind: model.BackgroundGradient, Gradient: &model.Gradient{From: "#000", To: "#fff"}})
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = b.SetTitle(ctx, "Ada Lovelace")
	require.NoError(t, err)
	assert.True(t, changed)

	p := b.Page()
	assert.Equal(t, []string{"a", "b", "d"}, ids(p.SortedElements()))
	assert.Equal(t, model.BackgroundGradient, p.Background.Kind)
	assert.Equal(t, "Ada Lovelace", p.Title)
	past, _ := b.History().Len()
	assert.Equal(t, 3, past)
}

func TestDragElementDownAndDrop(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t, nil)

	op := b.BeginDrag(model.ElementItem{Element: b.Elements()[0]})
	require.NotEmpty(t, op)
	assert.Equal(t, dnd.At(0), b.DraggedIndex())

	// Bottom zone of the card at index 2: insert after it.
	r, ok := b.DragOver(290, rectFor(2), b.DraggedIndex(), 2)
	require.True(t, ok)
	assert.Equal(t, 3, r.InsertionIndex)
	assert.Equal(t, dnd.PositionBottom, r.Position)

	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(b.Session().CurrentElementOrder()))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(b.Elements()), "overlay only")

	res, err := b.Drop(ctx)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, op, res.OperationID)
	require.NotNil(t, res.Element)
	assert.Equal(t, 2, res.Element.Position)
	assert.Equal(t, 1, res.Tracker.Samples)

	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(b.Elements()))
	st := b.Session().Snapshot()
	assert.False(t, st.IsDragging)
	assert.False(t, st.IsTemporaryReorganization)

	require.True(t, b.Undo(ctx))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(b.Elements()))
}

func TestDragElementUp_MiddleZoneUsesHeuristic(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t, nil)

	b.BeginDrag(model.ElementItem{Element: b.Elements()[3]})
	r, ok := b.DragOver(150, rectFor(1), b.DraggedIndex(), 1)
	require.True(t, ok)
	assert.True(t, r.UsedDirectionHeuristic)
	assert.Equal(t, 1, r.InsertionIndex)
	assert.Equal(t, dnd.PositionTop, r.Position)

	_, err := b.Drop(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "b", "c"}, ids(b.Elements()))
}

func TestDropTemplate(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t, nil)

	tpl, _ := model.FindTemplate("tpl-image")
	op := b.BeginDrag(model.TemplateItem{Template: tpl})
	require.NotEmpty(t, op)
	assert.Equal(t, dnd.NoIndex, b.DraggedIndex())

	r, ok := b.DragOver(110, rectFor(1), b.DraggedIndex(), 1)
	require.True(t, ok)
	assert.Equal(t, 1, r.InsertionIndex)
	assert.False(t, b.Session().Snapshot().IsTemporaryReorganization, "templates have no overlay")

	res, err := b.Drop(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.Element)
	assert.Equal(t, model.ElementImage, res.Element.Type)
	assert.Equal(t, []string{"a", res.Element.ID, "b", "c", "d"}, ids(b.Elements()))
}

func TestDropWithoutTargetReverts(t *testing.T) {
	b, _ := newTestBuilder(t, nil)
	b.BeginDrag(model.ElementItem{Element: b.Elements()[1]})
	res, err := b.Drop(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, b.Session().IsDragging())
	assert.False(t, b.History().CanUndo())

	_, err = b.Drop(context.Background())
	assert.ErrorIs(t, err, ErrNoDrag)
}

func TestAbortDragRestoresOrder(t *testing.T) {
	b, _ := newTestBuilder(t, nil)
	b.BeginDrag(model.ElementItem{Element: b.Elements()[0]})
	b.DragOver(390, rectFor(3), b.DraggedIndex(), 3)
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(b.Session().CurrentElementOrder()))

	assert.True(t, b.AbortDrag())
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(b.Session().CurrentElementOrder()))
	assert.False(t, b.History().CanUndo())
	_, ok := b.DragOver(390, rectFor(3), dnd.At(0), 3)
	assert.False(t, ok)
}

func TestBeginDrag_UnknownElement(t *testing.T) {
	b, _ := newTestBuilder(t, nil)
	assert.Empty(t, b.BeginDrag(model.ElementItem{Element: model.Element{ID: "ghost"}}))
	assert.False(t, b.Session().IsDragging())
}

func TestDragOverIsThrottled(t *testing.T) {
	b, fc := newTestBuilder(t, nil)
	b.BeginDrag(model.ElementItem{Element: b.Elements()[0]})

	first, _ := b.DragOver(290, rectFor(2), b.DraggedIndex(), 2)
	fc.Advance(5 * time.Millisecond)
	second, _ := b.DragOver(10, rectFor(1), b.DraggedIndex(), 1)
	assert.Equal(t, first, second, "inside the interval the cached result is reused")

	fc.Advance(20 * time.Millisecond)
	third, _ := b.DragOver(10, rectFor(1), b.DraggedIndex(), 1)
	assert.Equal(t, 1, third.InsertionIndex)

	stats := b.DragStats()
	assert.Equal(t, 2, stats.Executed)
	assert.Equal(t, 1, stats.Throttled)
	assert.Equal(t, 3, stats.Tracker.Samples)
	assert.Equal(t, 3, stats.Session.CalculationCount)
}

func TestUndoIgnoredWhileDragging(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t, nil)
	_, err := b.SetTitle(ctx, "New")
	require.NoError(t, err)

	b.BeginDrag(model.ElementItem{Element: b.Elements()[0]})
	assert.False(t, b.Undo(ctx))
	b.AbortDrag()
	assert.True(t, b.Undo(ctx))
}

func TestEditDuringDragTracksDraggedElement(t *testing.T) {
	ctx := context.Background()
	b, fc := newTestBuilder(t, nil)

	b.BeginDrag(model.ElementItem{Element: b.Elements()[2]})
	_, err := b.AddElement(ctx, "divider", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"el-1", "a", "b", "c", "d"}, ids(b.Elements()))
	assert.Equal(t, dnd.At(3), b.DraggedIndex(), "index follows the element, not the drag start")

	// Bottom zone of b, directly above c: no move.
	r, ok := b.DragOver(290, rectFor(2), b.DraggedIndex(), 2)
	require.True(t, ok)
	assert.Equal(t, 3, r.InsertionIndex)
	assert.Equal(t, []string{"el-1", "a", "b", "c", "d"}, ids(b.Session().CurrentElementOrder()))

	// Top zone of a: c lands between el-1 and a.
	fc.Advance(20 * time.Millisecond)
	r, ok = b.DragOver(105, rectFor(1), b.DraggedIndex(), 1)
	require.True(t, ok)
	assert.Equal(t, 1, r.InsertionIndex)
	assert.Equal(t, []string{"el-1", "c", "a", "b", "d"}, ids(b.Session().CurrentElementOrder()))

	res, err := b.Drop(ctx)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []string{"el-1", "c", "a", "b", "d"}, ids(b.Elements()))
}

func TestDropAfterDraggedElementDeleted(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBuilder(t, nil)

	b.BeginDrag(model.ElementItem{Element: b.Elements()[2]})
	require.NoError(t, b.DeleteElement(ctx, "c"))
	assert.Equal(t, dnd.NoIndex, b.DraggedIndex())

	_, ok := b.DragOver(10, rectFor(0), b.DraggedIndex(), 0)
	require.True(t, ok)
	assert.False(t, b.Session().Snapshot().IsTemporaryReorganization)

	_, err := b.Drop(ctx)
	var nf mutate.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "c", nf.ID)
	assert.False(t, b.Session().IsDragging())
	assert.Equal(t, []string{"a", "b", "d"}, ids(b.Elements()))
}

func TestSessionObserverSeesTransitions(t *testing.T) {
	var (
		mu     sync.Mutex
		states []bool
		last   uint64
	)
	b, err := New(basePage(), Options{
		Logger: zaptest.NewLogger(t),
		Clock:  clock.NewFake(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)),
		SessionObserver: func(st session.State) {
			mu.Lock()
			defer mu.Unlock()
			assert.Greater(t, st.Version.Version, last)
			last = st.Version.Version
			states = append(states, st.IsDragging)
		},
	})
	require.NoError(t, err)
	t.Cleanup(b.Close)

	b.BeginDrag(model.ElementItem{Element: b.Elements()[0]})
	b.DragOver(290, rectFor(2), b.DraggedIndex(), 2)
	_, err = b.Drop(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(states), 3)
	assert.True(t, states[0])
	assert.False(t, states[len(states)-1])
}

func TestWatchdogAbandonsDrag(t *testing.T) {
	b, fc := newTestBuilder(t, nil)
	op := b.BeginDrag(model.ElementItem{Element: b.Elements()[0]})
	b.DragOver(390, rectFor(3), b.DraggedIndex(), 3)

	fc.Advance(30*time.Second + time.Millisecond)
	assert.False(t, b.Session().IsDragging())
	assert.Equal(t, dnd.NoIndex, b.DraggedIndex())
	stats := b.DragStats()
	assert.Equal(t, []string{op}, stats.Abandoned)
	assert.Zero(t, stats.Executed)
	assert.Zero(t, stats.Throttled)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(b.Session().CurrentElementOrder()))

	_, err := b.Drop(context.Background())
	assert.ErrorIs(t, err, ErrNoDrag)
}

func TestPersistsAfterCommittedChanges(t *testing.T) {
	ctx := context.Background()
	p := &recordingPersister{}
	b, _ := newTestBuilder(t, p)

	_, err := b.SetTitle(ctx, "Saved")
	require.NoError(t, err)
	require.True(t, b.Undo(ctx))

	require.Len(t, p.pages, 2)
	assert.Equal(t, "Saved", p.pages[0].Title)
	assert.Equal(t, "Ada", p.pages[1].Title)
	require.Len(t, p.histories, 2)
	assert.Len(t, p.histories[1].Future, 1)
}

func TestPersistFailureKeepsLivePage(t *testing.T) {
	p := &recordingPersister{failPage: errors.New("disk full")}
	b, _ := newTestBuilder(t, p)
	changed, err := b.SetTitle(context.Background(), "Unsaved")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Unsaved", b.Page().Title)
	assert.Empty(t, p.histories)
}

func TestRealClock_NoGoroutineLeaks(t *testing.T) {
	defer goleak.VerifyNone(t)

	b, err := New(basePage(), Options{Logger: zaptest.NewLogger(t), WatchdogTimeout: 10 * time.Millisecond})
	require.NoError(t, err)
	op := b.BeginDrag(model.ElementItem{Element: b.Elements()[0]})
	require.Eventually(t, func() bool { return !b.Session().IsDragging() }, time.Second, 2*time.Millisecond)
	assert.Equal(t, []string{op}, b.DragStats().Abandoned)

	b.BeginDrag(model.ElementItem{Element: b.Elements()[1]})
	b.Close()
	assert.False(t, b.Session().IsDragging())
}

func ptr[T any](v T) *T { return &v }
