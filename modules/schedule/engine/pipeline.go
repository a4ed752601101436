package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/core/logger"
	"github.com/david-fold-studio/life-sphere-habits/core/utils"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/entity"
)

// Committer executes one shaped update against the backing store or the
// external provider. It either succeeds or reports a typed failure; retry
// policy lives behind this boundary, not in the pipeline.
type Committer interface {
	Apply(ctx context.Context, ownerID uuid.UUID, ev entity.ScheduledEvent, res Resolution) error
}

// CommitRequest carries the terminal state of one finished gesture.
type CommitRequest struct {
	OwnerID uuid.UUID
	// Event is the committed state, used for validation and for rolling the
	// overlay back when the write fails.
	Event      entity.ScheduledEvent
	Change     TimeChange
	Scope      Scope
	Notify     bool
	Occurrence time.Time
}

// Pipeline turns one finished gesture into exactly one durable update.
// Commits for the same event id are serialized: a new commit waits for the
// in-flight one instead of racing it. Mid-gesture progress writes are
// throttled to a bounded rate; the terminal Commit is authoritative.
type Pipeline struct {
	overlay   *Overlay
	resolver  *Resolver
	committer Committer
	throttle  time.Duration
	// Now is the clock, replaceable in tests.
	Now func() time.Time

	mu           sync.Mutex
	inflight     map[string]chan struct{}
	lastProgress map[string]time.Time
}

func NewPipeline(committer Committer, resolver *Resolver, overlay *Overlay, throttle time.Duration) *Pipeline {
	return &Pipeline{
		overlay:      overlay,
		resolver:     resolver,
		committer:    committer,
		throttle:     throttle,
		Now:          time.Now,
		inflight:     make(map[string]chan struct{}),
		lastProgress: make(map[string]time.Time),
	}
}

// Commit validates, resolves and writes the terminal state of a gesture.
// On failure the overlay is reset to the last committed values and a typed
// error is returned; no partially committed state survives.
func (p *Pipeline) Commit(ctx context.Context, req CommitRequest) error {
	res, err := p.validate(req)
	if err != nil {
		return err
	}

	release, err := p.acquire(ctx, req.Event.ID)
	if err != nil {
		return err
	}
	defer release()

	committed := Position{
		StartTime: req.Event.StartTime,
		EndTime:   req.Event.EndTime,
		Day:       req.Event.Day,
	}

	if err := p.committer.Apply(ctx, req.OwnerID, req.Event, res); err != nil {
		logger.Error("Pipeline:Commit:Apply:Error", "event_id", req.Event.ID, "error", err)
		p.overlay.ResetToCommitted(req.Event.ID, committed)
		if ae, ok := err.(*errors.AppError); ok {
			return ae
		}
		return errors.NewAppError(errors.ErrCommitFailed, "failed to commit event update", err)
	}

	// Committed values changed; renderers snap to them.
	p.overlay.ResetToCommitted(req.Event.ID, Position{
		StartTime: req.Change.StartTime,
		EndTime:   req.Change.EndTime,
		Day:       req.Change.Day,
	})
	return nil
}

// OfferProgress performs a throttled mid-gesture write. Updates arriving
// closer together than the configured interval are dropped; progress write
// failures are logged only, since the terminal commit is authoritative.
// Returns whether a write was attempted.
func (p *Pipeline) OfferProgress(ctx context.Context, req CommitRequest) bool {
	if p.throttle <= 0 {
		return false
	}

	p.mu.Lock()
	last, ok := p.lastProgress[req.Event.ID]
	if ok && p.Now().Sub(last) < p.throttle {
		p.mu.Unlock()
		return false
	}
	p.lastProgress[req.Event.ID] = p.Now()
	p.mu.Unlock()

	res, err := p.validate(req)
	if err != nil {
		logger.Warn("Pipeline:OfferProgress:Invalid", "event_id", req.Event.ID, "error", err)
		return false
	}

	release, err := p.acquire(ctx, req.Event.ID)
	if err != nil {
		return false
	}
	defer release()

	if err := p.committer.Apply(ctx, req.OwnerID, req.Event, res); err != nil {
		logger.Warn("Pipeline:OfferProgress:Apply:Error", "event_id", req.Event.ID, "error", err)
	}
	return true
}

// validate enforces the pre-I/O invariants: well-formed times, day range,
// and the id-shape check that keeps a provider id from ever reaching the
// local store. Failures here are programmer-facing.
func (p *Pipeline) validate(req CommitRequest) (Resolution, error) {
	if req.Event.ID == "" {
		return Resolution{}, errors.NewAppError(errors.ErrInvalidInput, "missing event id", nil)
	}
	if !req.Event.IsExternal() && !utils.IsUUID(req.Event.ID) {
		return Resolution{}, errors.NewAppError(errors.ErrInvalidInput, "local event id is not a UUID", nil)
	}
	return p.resolver.Resolve(req.Event, req.Scope, req.Change, req.Occurrence, req.Notify)
}

// acquire blocks until no other commit is in flight for the event id, or
// the context is done.
func (p *Pipeline) acquire(ctx context.Context, eventID string) (func(), error) {
	for {
		p.mu.Lock()
		ch, busy := p.inflight[eventID]
		if !busy {
			done := make(chan struct{})
			p.inflight[eventID] = done
			p.mu.Unlock()
			return func() {
				p.mu.Lock()
				delete(p.inflight, eventID)
				p.mu.Unlock()
				close(done)
			}, nil
		}
		p.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, errors.NewAppError(errors.ErrCommitFailed, "commit canceled while waiting for prior write", ctx.Err())
		}
	}
}
