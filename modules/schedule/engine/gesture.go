package engine

import (
	"math"
	"sync"
	"time"

	"github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/core/utils"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/entity"
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizingTop
	ModeResizingBottom
)

// Edge names the grabbed handle on pointer-down. A resize grab always wins
// over a simultaneous whole-event drag.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeTop
	EdgeBottom
)

type Pointer struct {
	X float64
	Y float64
}

// PointerSource delivers pointer-move and pointer-up events for the lifetime
// of one gesture. The returned release function detaches both listeners; the
// tracker calls it on every exit path.
type PointerSource interface {
	Subscribe(onMove func(Pointer), onUp func(Pointer)) (release func())
}

// Outcome is what a finished gesture produced.
type Outcome struct {
	SessionID string
	EventID   string
	// Click is true when the pointer was released within both the time and
	// distance thresholds; no commit may follow.
	Click     bool
	Canceled  bool
	Original  Position
	Tentative Position
}

const (
	DefaultClickMaxDuration = 200 * time.Millisecond
	DefaultClickMaxDistance = 5.0
)

type TrackerConfig struct {
	Grid             TimeGrid
	ClickMaxDuration time.Duration
	ClickMaxDistance float64
}

// Session is the ephemeral state of one in-progress drag or resize.
type Session struct {
	id        string
	event     entity.ScheduledEvent
	mode      Mode
	origin    Pointer
	startedAt time.Time

	origStart int // minutes
	origEnd   int
	original  Position
	tentative Position

	release  func()
	onFinish func(Outcome)
}

func (s *Session) ID() string          { return s.id }
func (s *Session) Mode() Mode          { return s.mode }
func (s *Session) Tentative() Position { return s.tentative }

// Tracker owns at most one gesture session system-wide. Beginning a new
// session cancels the active one instead of running both.
type Tracker struct {
	mu      sync.Mutex
	cfg     TrackerConfig
	overlay *Overlay
	active  *Session
	// Now is the clock, replaceable in tests.
	Now func() time.Time
}

func NewTracker(cfg TrackerConfig, overlay *Overlay) *Tracker {
	if cfg.ClickMaxDuration <= 0 {
		cfg.ClickMaxDuration = DefaultClickMaxDuration
	}
	if cfg.ClickMaxDistance <= 0 {
		cfg.ClickMaxDistance = DefaultClickMaxDistance
	}
	return &Tracker{
		cfg:     cfg,
		overlay: overlay,
		Now:     time.Now,
	}
}

// Begin starts a session on pointer-down. Non-owned (external, read-only)
// events never enter a gesture. Listeners are attached here and released by
// the single teardown path regardless of how the session ends.
func (t *Tracker) Begin(ev entity.ScheduledEvent, edge Edge, p Pointer, src PointerSource, onFinish func(Outcome)) (*Session, error) {
	if !ev.Owned {
		return nil, errors.NewAppError(errors.ErrForbidden, "event is read-only", nil)
	}
	start, err := ParseClock(ev.StartTime)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "event has malformed start time", err)
	}
	end, err := ParseClock(ev.EndTime)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "event has malformed end time", err)
	}
	if start >= end {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "event start must precede end", nil)
	}
	if ev.Day < 0 || ev.Day > 6 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "event day out of range", nil)
	}

	mode := ModeDragging
	switch edge {
	case EdgeTop:
		mode = ModeResizingTop
	case EdgeBottom:
		mode = ModeResizingBottom
	}

	t.mu.Lock()
	notifyCancel := t.cancelLocked()

	committed := Position{StartTime: ev.StartTime, EndTime: ev.EndTime, Day: ev.Day}
	s := &Session{
		id:        utils.GenerateID(),
		event:     ev,
		mode:      mode,
		origin:    p,
		startedAt: t.Now(),
		origStart: start,
		origEnd:   end,
		original:  committed,
		tentative: committed,
		onFinish:  onFinish,
	}
	t.active = s
	t.mu.Unlock()
	notifyCancel()

	// Attach outside the lock: the source may deliver events synchronously.
	release := src.Subscribe(
		func(p Pointer) { t.Move(p) },
		func(p Pointer) { t.End(p) },
	)
	t.mu.Lock()
	if t.active != s {
		// Superseded between attach and now; release immediately.
		t.mu.Unlock()
		release()
		return nil, errors.NewAppError(errors.ErrInvalidInput, "gesture superseded", nil)
	}
	s.release = release
	t.mu.Unlock()

	return s, nil
}

// Move recomputes the tentative position from the pointer and publishes it
// to the overlay. Nothing is committed here.
func (t *Tracker) Move(p Pointer) {
	t.mu.Lock()
	s := t.active
	if s == nil {
		t.mu.Unlock()
		return
	}
	pos := t.computeLocked(s, p)
	s.tentative = pos
	eventID := s.event.ID
	t.mu.Unlock()

	t.overlay.Publish(eventID, pos)
}

// End finishes the session on pointer-up. A release within both the click
// thresholds is treated as a click and produces no commit; otherwise the
// terminal tentative values are returned for the commit pipeline.
func (t *Tracker) End(p Pointer) Outcome {
	t.mu.Lock()
	s := t.active
	if s == nil {
		t.mu.Unlock()
		return Outcome{}
	}

	elapsed := t.Now().Sub(s.startedAt)
	dist := math.Hypot(p.X-s.origin.X, p.Y-s.origin.Y)
	click := elapsed < t.cfg.ClickMaxDuration && dist < t.cfg.ClickMaxDistance

	var out Outcome
	if click {
		out = Outcome{
			SessionID: s.id,
			EventID:   s.event.ID,
			Click:     true,
			Original:  s.original,
			Tentative: s.original,
		}
	} else {
		s.tentative = t.computeLocked(s, p)
		out = Outcome{
			SessionID: s.id,
			EventID:   s.event.ID,
			Original:  s.original,
			Tentative: s.tentative,
		}
	}
	t.teardownLocked(s)
	t.mu.Unlock()

	if click {
		t.overlay.ResetToCommitted(out.EventID, out.Original)
	}
	if s.onFinish != nil {
		s.onFinish(out)
	}
	return out
}

// Cancel aborts the active session with no commit.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	notify := t.cancelLocked()
	t.mu.Unlock()
	notify()
}

// Active reports whether a gesture session is currently in progress.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil
}

// cancelLocked tears down the active session (if any) and returns the
// notification work to run after t.mu is released. Must be called with
// t.mu held.
func (t *Tracker) cancelLocked() func() {
	s := t.active
	if s == nil {
		return func() {}
	}
	out := Outcome{
		SessionID: s.id,
		EventID:   s.event.ID,
		Canceled:  true,
		Original:  s.original,
		Tentative: s.original,
	}
	t.teardownLocked(s)

	return func() {
		t.overlay.ResetToCommitted(out.EventID, out.Original)
		if s.onFinish != nil {
			s.onFinish(out)
		}
	}
}

// teardownLocked is the single release point for the session's pointer
// listeners; every exit path (end, click, cancel, supersede) funnels here.
func (t *Tracker) teardownLocked(s *Session) {
	if s.release != nil {
		s.release()
		s.release = nil
	}
	if t.active == s {
		t.active = nil
	}
}

// computeLocked derives the tentative position for the current pointer.
func (t *Tracker) computeLocked(s *Session, p Pointer) Position {
	grid := t.cfg.Grid
	deltaMin := grid.DeltaMinutes(p.Y - s.origin.Y)

	var start, end, day int
	switch s.mode {
	case ModeResizingTop:
		start = grid.Snap(s.origStart + deltaMin)
		start = grid.ClampResizeTop(start, s.origEnd)
		end = s.origEnd
		day = s.event.Day
	case ModeResizingBottom:
		end = grid.Snap(s.origEnd + deltaMin)
		end = grid.ClampResizeBottom(s.origStart, end)
		start = s.origStart
		day = s.event.Day
	default:
		start = s.origStart + deltaMin
		end = s.origEnd + deltaMin
		start, end = grid.SnapPair(start, end)
		start, end = grid.ClampToDay(start, end)
		day = clampDay(s.event.Day + grid.DayDelta(p.X-s.origin.X))
	}

	return Position{
		StartTime: FormatClock(start),
		EndTime:   FormatClock(end),
		Day:       day,
	}
}
