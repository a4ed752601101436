package entity

import (
	"github.com/david-fold-studio/life-sphere-habits/core/constants"
)

// Provenance identifies which backend owns an event. It is carried
// explicitly on every merged event; the id-shape heuristic (hyphenated UUID
// vs provider id) remains only as a defensive check on the commit path.
type Provenance string

const (
	ProvenanceLocal    Provenance = "local"
	ProvenanceExternal Provenance = "external"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

type Recurrence struct {
	IsRecurring bool      `json:"is_recurring"`
	Frequency   Frequency `json:"frequency,omitempty"`
	// Rule is the raw recurrence rule when the event came from the external
	// provider, e.g. "RRULE:FREQ=WEEKLY". Empty for local events.
	Rule string `json:"rule,omitempty"`
}

// ScheduledEvent is a time-boxed entry on the week grid. Times are
// minute-precision HH:MM within a single day; Day is a 0-6 weekday index.
type ScheduledEvent struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	StartTime  string      `json:"start_time"`
	EndTime    string      `json:"end_time"`
	Day        int         `json:"day"`
	Sphere     string      `json:"sphere"`
	Owned      bool        `json:"owned"`
	Provenance Provenance  `json:"provenance"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
	Invitees   []string    `json:"invitees,omitempty"`
}

func (e ScheduledEvent) IsRecurring() bool {
	return e.Recurrence != nil && e.Recurrence.IsRecurring
}

func (e ScheduledEvent) HasInvitees() bool {
	return len(e.Invitees) > 0
}

func (e ScheduledEvent) IsExternal() bool {
	return e.Provenance == ProvenanceExternal || e.Sphere == constants.SphereExternal
}
