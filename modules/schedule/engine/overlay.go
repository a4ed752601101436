package engine

import "sync"

// Position is the rendered placement of one event on the week grid.
type Position struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Day       int    `json:"day"`
}

// Overlay is a typed publish/subscribe channel, keyed by event id, that
// carries tentative positions during an active gesture. It is decoupled from
// the committed model so a dragged event's rendered position updates on every
// pointer move without waiting on a network round trip. Renderers fall back
// to committed values whenever no active gesture targets their id.
type Overlay struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(Position)
	active map[string]Position
}

func NewOverlay() *Overlay {
	return &Overlay{
		subs:   make(map[string]map[int]func(Position)),
		active: make(map[string]Position),
	}
}

// Subscribe registers fn for tentative positions of the given event id and
// returns a cancel function. Renderers subscribe on mount and must call
// cancel on unmount.
func (o *Overlay) Subscribe(eventID string, fn func(Position)) (cancel func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	if o.subs[eventID] == nil {
		o.subs[eventID] = make(map[int]func(Position))
	}
	o.subs[eventID][id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs[eventID], id)
		if len(o.subs[eventID]) == 0 {
			delete(o.subs, eventID)
		}
	}
}

// Publish broadcasts a tentative position for the event id and records it as
// the active overlay value.
func (o *Overlay) Publish(eventID string, pos Position) {
	o.mu.Lock()
	o.active[eventID] = pos
	fns := o.snapshot(eventID)
	o.mu.Unlock()

	for _, fn := range fns {
		fn(pos)
	}
}

// ResetToCommitted clears any tentative value for the event id and broadcasts
// the committed position, so renderers snap back the moment the committed
// values change underneath them (successful or failed commit alike).
func (o *Overlay) ResetToCommitted(eventID string, committed Position) {
	o.mu.Lock()
	delete(o.active, eventID)
	fns := o.snapshot(eventID)
	o.mu.Unlock()

	for _, fn := range fns {
		fn(committed)
	}
}

// Active returns the tentative position for an event id, if a gesture is
// currently targeting it.
func (o *Overlay) Active(eventID string) (Position, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	pos, ok := o.active[eventID]
	return pos, ok
}

// snapshot must be called with o.mu held.
func (o *Overlay) snapshot(eventID string) []func(Position) {
	fns := make([]func(Position), 0, len(o.subs[eventID]))
	for _, fn := range o.subs[eventID] {
		fns = append(fns, fn)
	}
	return fns
}
