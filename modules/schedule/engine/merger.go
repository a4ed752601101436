package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/david-fold-studio/life-sphere-habits/core/constants"
	"github.com/david-fold-studio/life-sphere-habits/core/logger"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/entity"
)

// LocalSource lists the viewer's own, fully mutable events.
type LocalSource interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.ScheduledEvent, error)
}

// ExternalSource lists read-only provider events within a week window.
type ExternalSource interface {
	ListWindow(ctx context.Context, ownerID uuid.UUID, windowStart, windowEnd time.Time) ([]entity.ScheduledEvent, error)
}

// Merger unions the local store and the external provider into one
// render-ready list. The two id spaces are assumed disjoint, so there is no
// cross-source deduplication.
type Merger struct {
	local    LocalSource
	external ExternalSource
}

func NewMerger(local LocalSource, external ExternalSource) *Merger {
	return &Merger{local: local, external: external}
}

// WeekEvents produces the merged list for the week starting at weekStart.
// A failing source contributes an empty half for this render pass instead of
// blocking the other source's events.
func (m *Merger) WeekEvents(ctx context.Context, ownerID uuid.UUID, weekStart time.Time) []entity.ScheduledEvent {
	locals, err := m.local.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.Warn("Merger:WeekEvents:LocalFetch:Error", "owner_id", ownerID, "error", err)
		locals = nil
	}

	externals, err := m.external.ListWindow(ctx, ownerID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		logger.Warn("Merger:WeekEvents:ExternalFetch:Error", "owner_id", ownerID, "error", err)
		externals = nil
	}

	merged := make([]entity.ScheduledEvent, 0, len(locals)+len(externals))
	for _, ev := range locals {
		ev.Owned = true
		ev.Provenance = entity.ProvenanceLocal
		merged = append(merged, ev)
	}
	for _, ev := range externals {
		// Provider metadata never grants ownership here: external events are
		// read-only regardless of what the source claims.
		ev.Owned = false
		ev.Provenance = entity.ProvenanceExternal
		ev.Sphere = constants.SphereExternal
		merged = append(merged, ev)
	}
	return merged
}
