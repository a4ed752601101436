package engine_test

import (
	"testing"
	"time"

	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/engine"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/entity"
)

type fakePointerSource struct {
	onMove   func(engine.Pointer)
	onUp     func(engine.Pointer)
	released bool
}

func (f *fakePointerSource) Subscribe(onMove func(engine.Pointer), onUp func(engine.Pointer)) func() {
	f.onMove = onMove
	f.onUp = onUp
	return func() { f.released = true }
}

func (f *fakePointerSource) move(p engine.Pointer) { f.onMove(p) }
func (f *fakePointerSource) up(p engine.Pointer)   { f.onUp(p) }

func testEvent(owned bool) entity.ScheduledEvent {
	return entity.ScheduledEvent{
		ID:         "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d",
		Name:       "Morning run",
		StartTime:  "09:00",
		EndTime:    "10:00",
		Day:        2,
		Sphere:     "health",
		Owned:      owned,
		Provenance: entity.ProvenanceLocal,
	}
}

func newTestTracker(overlay *engine.Overlay) *engine.Tracker {
	tr := engine.NewTracker(engine.TrackerConfig{
		Grid: engine.TimeGrid{PixelsPerHour: 48, SnapQuantum: 15, DayColumnWidth: 120},
	}, overlay)
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tr.Now = func() time.Time { return base }
	return tr
}

func TestDragPreservesDuration(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	var out engine.Outcome
	_, err := tr.Begin(testEvent(true), engine.EdgeNone, engine.Pointer{X: 10, Y: 100}, src, func(o engine.Outcome) { out = o })
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	// 48px down at 48px/h is exactly one hour.
	src.move(engine.Pointer{X: 10, Y: 148})
	src.up(engine.Pointer{X: 10, Y: 148})

	if out.Click {
		t.Fatal("a 48px drag must not be a click")
	}
	if out.Tentative.StartTime != "10:00" || out.Tentative.EndTime != "11:00" {
		t.Fatalf("tentative = %v, want 10:00-11:00", out.Tentative)
	}
	if out.Tentative.Day != 2 {
		t.Fatalf("day changed to %d on a vertical drag", out.Tentative.Day)
	}
	if !src.released {
		t.Fatal("pointer listeners were not released after the gesture")
	}
}

func TestDragClampsAtMidnightKeepingDuration(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	ev := testEvent(true)
	ev.StartTime = "00:30"
	ev.EndTime = "01:30"

	var out engine.Outcome
	if _, err := tr.Begin(ev, engine.EdgeNone, engine.Pointer{Y: 100}, src, func(o engine.Outcome) { out = o }); err != nil {
		t.Fatalf("begin: %v", err)
	}
	// Two hours up pushes the start 90 minutes past midnight.
	src.up(engine.Pointer{Y: 100 - 96})

	if out.Tentative.StartTime != "00:00" || out.Tentative.EndTime != "01:00" {
		t.Fatalf("tentative = %v, want 00:00-01:00", out.Tentative)
	}
}

func TestDragClampsAtEndOfDay(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	ev := testEvent(true)
	ev.StartTime = "22:00"
	ev.EndTime = "23:00"

	var out engine.Outcome
	if _, err := tr.Begin(ev, engine.EdgeNone, engine.Pointer{Y: 0}, src, func(o engine.Outcome) { out = o }); err != nil {
		t.Fatalf("begin: %v", err)
	}
	src.up(engine.Pointer{Y: 192}) // four hours down

	start, _ := engine.ParseClock(out.Tentative.StartTime)
	end, _ := engine.ParseClock(out.Tentative.EndTime)
	if start < 0 || end > engine.MinutesPerDay-1 {
		t.Fatalf("result %v escapes the day", out.Tentative)
	}
	if end-start != 60 {
		t.Fatalf("duration = %d, want 60", end-start)
	}
}

func TestClickNeverCommits(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	var out engine.Outcome
	if _, err := tr.Begin(testEvent(true), engine.EdgeNone, engine.Pointer{X: 10, Y: 100}, src, func(o engine.Outcome) { out = o }); err != nil {
		t.Fatalf("begin: %v", err)
	}
	// 3px of travel, zero elapsed time: both thresholds under.
	src.move(engine.Pointer{X: 12, Y: 102})
	src.up(engine.Pointer{X: 12, Y: 102})

	if !out.Click {
		t.Fatal("expected a click outcome")
	}
	if out.Tentative != out.Original {
		t.Fatalf("click must not move the event: %v", out.Tentative)
	}
	if !src.released {
		t.Fatal("pointer listeners were not released after the click")
	}
}

func TestSlowPressCountsAsDrag(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	now := base
	tr.Now = func() time.Time { return now }

	var out engine.Outcome
	if _, err := tr.Begin(testEvent(true), engine.EdgeNone, engine.Pointer{X: 10, Y: 100}, src, func(o engine.Outcome) { out = o }); err != nil {
		t.Fatalf("begin: %v", err)
	}
	now = base.Add(400 * time.Millisecond)
	src.up(engine.Pointer{X: 11, Y: 101})

	if out.Click {
		t.Fatal("holding past the time threshold must count as a drag")
	}
}

func TestResizeBottomEnforcesMinimumDuration(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	var out engine.Outcome
	s, err := tr.Begin(testEvent(true), engine.EdgeBottom, engine.Pointer{Y: 200}, src, func(o engine.Outcome) { out = o })
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if s.Mode() != engine.ModeResizingBottom {
		t.Fatalf("mode = %v, want resizing-bottom", s.Mode())
	}

	// Drag the end edge two hours up, far past the start.
	src.up(engine.Pointer{Y: 200 - 96})

	if out.Tentative.StartTime != "09:00" || out.Tentative.EndTime != "09:15" {
		t.Fatalf("tentative = %v, want 09:00-09:15", out.Tentative)
	}
}

func TestResizeTopEnforcesMinimumDuration(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	var out engine.Outcome
	if _, err := tr.Begin(testEvent(true), engine.EdgeTop, engine.Pointer{Y: 0}, src, func(o engine.Outcome) { out = o }); err != nil {
		t.Fatalf("begin: %v", err)
	}
	src.up(engine.Pointer{Y: 96}) // two hours down, past the end

	if out.Tentative.StartTime != "09:45" || out.Tentative.EndTime != "10:00" {
		t.Fatalf("tentative = %v, want 09:45-10:00", out.Tentative)
	}
}

func TestHorizontalDragMovesDays(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	var out engine.Outcome
	if _, err := tr.Begin(testEvent(true), engine.EdgeNone, engine.Pointer{X: 0, Y: 0}, src, func(o engine.Outcome) { out = o }); err != nil {
		t.Fatalf("begin: %v", err)
	}
	src.up(engine.Pointer{X: 250, Y: 0}) // two columns right

	if out.Tentative.Day != 4 {
		t.Fatalf("day = %d, want 4", out.Tentative.Day)
	}

	// A huge swipe clamps to the last column.
	src2 := &fakePointerSource{}
	if _, err := tr.Begin(testEvent(true), engine.EdgeNone, engine.Pointer{X: 0, Y: 0}, src2, func(o engine.Outcome) { out = o }); err != nil {
		t.Fatalf("begin: %v", err)
	}
	src2.up(engine.Pointer{X: 5000, Y: 0})
	if out.Tentative.Day != 6 {
		t.Fatalf("day = %d, want clamp at 6", out.Tentative.Day)
	}
}

func TestReadOnlyEventNeverEntersGesture(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	ev := testEvent(false)
	ev.ID = "abc123"
	ev.Provenance = entity.ProvenanceExternal

	if _, err := tr.Begin(ev, engine.EdgeNone, engine.Pointer{}, src, nil); err == nil {
		t.Fatal("expected read-only event to be rejected")
	}
	if src.onMove != nil {
		t.Fatal("listeners must not be attached for a rejected gesture")
	}
	if tr.Active() {
		t.Fatal("no session should be active")
	}
}

func TestNewGestureSupersedesActiveOne(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	first := &fakePointerSource{}
	second := &fakePointerSource{}

	var firstOut engine.Outcome
	if _, err := tr.Begin(testEvent(true), engine.EdgeNone, engine.Pointer{}, first, func(o engine.Outcome) { firstOut = o }); err != nil {
		t.Fatalf("begin first: %v", err)
	}
	if _, err := tr.Begin(testEvent(true), engine.EdgeTop, engine.Pointer{}, second, nil); err != nil {
		t.Fatalf("begin second: %v", err)
	}

	if !first.released {
		t.Fatal("superseded session must release its listeners")
	}
	if !firstOut.Canceled {
		t.Fatal("superseded session must report cancellation, not a commit")
	}
}

func TestCancelReleasesListenersAndResetsOverlay(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	var last engine.Position
	cancelSub := overlay.Subscribe(testEvent(true).ID, func(p engine.Position) { last = p })
	defer cancelSub()

	if _, err := tr.Begin(testEvent(true), engine.EdgeNone, engine.Pointer{Y: 0}, src, nil); err != nil {
		t.Fatalf("begin: %v", err)
	}
	src.move(engine.Pointer{Y: 96})
	tr.Cancel()

	if !src.released {
		t.Fatal("cancel must release the pointer listeners")
	}
	if last.StartTime != "09:00" || last.EndTime != "10:00" {
		t.Fatalf("overlay not reset to committed values: %v", last)
	}
	if tr.Active() {
		t.Fatal("no session should remain active after cancel")
	}
}

func TestMovePublishesTentativeToOverlay(t *testing.T) {
	overlay := engine.NewOverlay()
	tr := newTestTracker(overlay)
	src := &fakePointerSource{}

	var last engine.Position
	cancelSub := overlay.Subscribe(testEvent(true).ID, func(p engine.Position) { last = p })
	defer cancelSub()

	if _, err := tr.Begin(testEvent(true), engine.EdgeNone, engine.Pointer{Y: 0}, src, nil); err != nil {
		t.Fatalf("begin: %v", err)
	}
	src.move(engine.Pointer{Y: 48})

	if last.StartTime != "10:00" || last.EndTime != "11:00" {
		t.Fatalf("overlay got %v, want 10:00-11:00", last)
	}
}
