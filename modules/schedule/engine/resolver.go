package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/entity"
)

// Scope selects which occurrences of a recurring event an update applies to.
type Scope string

const (
	ScopeSingle    Scope = "single"
	ScopeFollowing Scope = "following"
	ScopeSeries    Scope = "series"
)

// NeedsScopeDecision reports whether the caller must ask the user for an
// update scope. Only recurring or invitee-bearing events prompt; everything
// else defaults to a single-occurrence update silently.
func NeedsScopeDecision(ev entity.ScheduledEvent) bool {
	return ev.IsRecurring() || ev.HasInvitees()
}

// TimeChange is the terminal result of a gesture: the new times and day.
type TimeChange struct {
	StartTime string
	EndTime   string
	Day       int
}

// LocalUpdate is the shaped write for the local store.
type LocalUpdate struct {
	ID         string
	StartTime  string
	EndTime    string
	Day        int
	UpdateType Scope
}

// ProviderPatch is a direct patch of a provider event (series updates, and
// rule truncation for "following" updates).
type ProviderPatch struct {
	EventID     string
	Start       time.Time
	End         time.Time
	Recurrence  []string // set only when the rule itself changes
	TimesChange bool     // false when only the rule is patched
	SendUpdates string   // "all" | "none"
}

// ProviderException is the shaped write for a single-occurrence change of a
// recurring provider event: a new exception instance anchored to the parent
// by the original occurrence start.
type ProviderException struct {
	RecurringEventID string
	OriginalStart    time.Time
	Start            time.Time
	End              time.Time
	SendUpdates      string
}

// ProviderFork is the new series created for the remainder of a "following"
// update, after the parent rule has been truncated.
type ProviderFork struct {
	Summary     string
	Start       time.Time
	End         time.Time
	Recurrence  []string
	SendUpdates string
}

// Resolution is exactly one shaped write (plus, for "following", the paired
// truncate-and-fork).
type Resolution struct {
	Scope     Scope
	Notify    bool
	Local     *LocalUpdate
	Patch     *ProviderPatch
	Exception *ProviderException
	Fork      *ProviderFork
}

// Resolver classifies a finished gesture against an event's recurrence
// status and shapes the durable update.
type Resolver struct {
	// Location anchors HH:MM values when combined with occurrence dates.
	Location *time.Location
}

func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{Location: loc}
}

// Resolve shapes the write for one finished gesture. occurrence is the date
// of the edited occurrence (week start + day), notify maps to the provider's
// sendUpdates flag and never changes which scope applies.
func (r *Resolver) Resolve(ev entity.ScheduledEvent, scope Scope, change TimeChange, occurrence time.Time, notify bool) (Resolution, error) {
	startMin, err := ParseClock(change.StartTime)
	if err != nil {
		return Resolution{}, errors.NewAppError(errors.ErrInvalidInput, "malformed start time", err)
	}
	endMin, err := ParseClock(change.EndTime)
	if err != nil {
		return Resolution{}, errors.NewAppError(errors.ErrInvalidInput, "malformed end time", err)
	}
	if startMin >= endMin {
		return Resolution{}, errors.NewAppError(errors.ErrInvalidInput, "start must precede end", nil)
	}
	if change.Day < 0 || change.Day > 6 {
		return Resolution{}, errors.NewAppError(errors.ErrInvalidInput, "day out of range", nil)
	}

	if scope == "" || !NeedsScopeDecision(ev) {
		scope = ScopeSingle
	}
	switch scope {
	case ScopeSingle, ScopeFollowing, ScopeSeries:
	default:
		return Resolution{}, errors.NewAppError(errors.ErrInvalidInput, "unknown update scope", nil)
	}

	res := Resolution{Scope: scope, Notify: notify}

	if !ev.IsExternal() {
		res.Local = &LocalUpdate{
			ID:         ev.ID,
			StartTime:  change.StartTime,
			EndTime:    change.EndTime,
			Day:        change.Day,
			UpdateType: scope,
		}
		return res, nil
	}

	sendUpdates := "none"
	if notify {
		sendUpdates = "all"
	}

	// Day changes apply to the edited occurrence (and, for "following", to
	// the forked remainder) only; the truncated history keeps its weekday.
	dayDelta := change.Day - ev.Day
	newDate := occurrence.AddDate(0, 0, dayDelta)
	newStart := r.combine(newDate, startMin)
	newEnd := r.combine(newDate, endMin)

	if !ev.IsRecurring() {
		// Nothing to fork or except; every scope degenerates to a patch.
		res.Patch = &ProviderPatch{
			EventID:     ev.ID,
			Start:       newStart,
			End:         newEnd,
			TimesChange: true,
			SendUpdates: sendUpdates,
		}
		return res, nil
	}

	switch scope {
	case ScopeSingle:
		origStart, err := ParseClock(ev.StartTime)
		if err != nil {
			return Resolution{}, errors.NewAppError(errors.ErrInvalidInput, "event has malformed start time", err)
		}
		res.Exception = &ProviderException{
			RecurringEventID: ev.ID,
			OriginalStart:    r.combine(occurrence, origStart),
			Start:            newStart,
			End:              newEnd,
			SendUpdates:      sendUpdates,
		}

	case ScopeFollowing:
		until := r.startOfDay(occurrence).AddDate(0, 0, -1)
		truncated, err := TruncateRule(ev.Recurrence.Rule, until)
		if err != nil {
			return Resolution{}, err
		}
		res.Patch = &ProviderPatch{
			EventID:     ev.ID,
			Recurrence:  []string{truncated},
			SendUpdates: sendUpdates,
		}
		res.Fork = &ProviderFork{
			Summary:     ev.Name,
			Start:       newStart,
			End:         newEnd,
			Recurrence:  []string{ev.Recurrence.Rule},
			SendUpdates: sendUpdates,
		}

	case ScopeSeries:
		res.Patch = &ProviderPatch{
			EventID:     ev.ID,
			Start:       newStart,
			End:         newEnd,
			TimesChange: true,
			SendUpdates: sendUpdates,
		}
	}

	return res, nil
}

func (r *Resolver) combine(date time.Time, minutes int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, r.Location)
}

func (r *Resolver) startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.Location)
}

var untilMidnight = regexp.MustCompile(`UNTIL=(\d{8})T000000Z`)

// TruncateRule bounds a recurrence rule to end at the given date, replacing
// any existing UNTIL and adding one where the rule had none. The rule is
// parsed, not string-patched, so malformed rules are rejected up front.
func TruncateRule(rule string, until time.Time) (string, error) {
	content := strings.TrimPrefix(rule, "RRULE:")
	hadPrefix := content != rule

	opt, err := rrule.StrToROption(content)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInvalidInput, "malformed recurrence rule", err)
	}
	opt.Until = time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC)
	if _, err := rrule.NewRRule(*opt); err != nil {
		return "", errors.NewAppError(errors.ErrInvalidInput, "recurrence rule cannot be truncated", err)
	}

	out := opt.String()
	// The provider stores date-bounded rules in date form.
	out = untilMidnight.ReplaceAllString(out, "UNTIL=$1")
	if hadPrefix {
		out = "RRULE:" + out
	}
	return out, nil
}
