package engine_test

import (
	"strings"
	"testing"
	"time"

	"github.com/david-fold-studio/life-sphere-habits/core/constants"
	apperrors "github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/engine"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/entity"
)

func externalWeeklyEvent() entity.ScheduledEvent {
	return entity.ScheduledEvent{
		ID:         "abc123provider9",
		Name:       "Team sync",
		StartTime:  "09:00",
		EndTime:    "10:00",
		Day:        0,
		Sphere:     constants.SphereExternal,
		Owned:      true,
		Provenance: entity.ProvenanceExternal,
		Recurrence: &entity.Recurrence{
			IsRecurring: true,
			Frequency:   entity.FrequencyWeekly,
			Rule:        "RRULE:FREQ=WEEKLY;BYDAY=MO",
		},
	}
}

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func resolve(t *testing.T, ev entity.ScheduledEvent, scope engine.Scope, change engine.TimeChange, notify bool) engine.Resolution {
	t.Helper()
	res, err := engine.NewResolver(time.UTC).Resolve(ev, scope, change, monday, notify)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return res
}

func TestNeedsScopeDecision(t *testing.T) {
	if engine.NeedsScopeDecision(testEvent(true)) {
		t.Fatal("plain event must not prompt for a scope")
	}

	withInvitees := testEvent(true)
	withInvitees.Invitees = []string{"ana@example.com"}
	if !engine.NeedsScopeDecision(withInvitees) {
		t.Fatal("event with invitees must prompt")
	}
	if !engine.NeedsScopeDecision(externalWeeklyEvent()) {
		t.Fatal("recurring event must prompt")
	}
}

func TestPlainEventDefaultsToSingleScopeSilently(t *testing.T) {
	ev := testEvent(true)
	change := engine.TimeChange{StartTime: "10:00", EndTime: "11:00", Day: ev.Day}

	res := resolve(t, ev, "", change, false)
	if res.Scope != engine.ScopeSingle {
		t.Fatalf("scope = %q, want single", res.Scope)
	}
	if res.Local == nil {
		t.Fatal("local event must resolve to a local update")
	}
	if res.Patch != nil || res.Exception != nil || res.Fork != nil {
		t.Fatal("local event must never shape a provider write")
	}
	if res.Local.UpdateType != engine.ScopeSingle {
		t.Fatalf("update type = %q, want single", res.Local.UpdateType)
	}
}

func TestLocalRecurringUpdateCarriesScopeMarker(t *testing.T) {
	ev := testEvent(true)
	ev.Recurrence = &entity.Recurrence{IsRecurring: true, Frequency: entity.FrequencyDaily}
	change := engine.TimeChange{StartTime: "10:00", EndTime: "11:00", Day: ev.Day}

	for _, scope := range []engine.Scope{engine.ScopeSingle, engine.ScopeFollowing, engine.ScopeSeries} {
		res := resolve(t, ev, scope, change, false)
		if res.Local == nil || res.Local.UpdateType != scope {
			t.Fatalf("scope %q: local update = %+v", scope, res.Local)
		}
	}
}

func TestSingleScopeCreatesExceptionAnchoredToParent(t *testing.T) {
	ev := externalWeeklyEvent()
	change := engine.TimeChange{StartTime: "14:00", EndTime: "15:00", Day: 0}

	res := resolve(t, ev, engine.ScopeSingle, change, false)
	if res.Exception == nil {
		t.Fatal("single scope on a recurring provider event must shape an exception")
	}
	if res.Patch != nil || res.Fork != nil {
		t.Fatal("single scope must not touch the parent series")
	}
	if res.Exception.RecurringEventID != ev.ID {
		t.Fatalf("exception parent = %q, want %q", res.Exception.RecurringEventID, ev.ID)
	}
	wantOrig := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	if !res.Exception.OriginalStart.Equal(wantOrig) {
		t.Fatalf("original start = %v, want %v", res.Exception.OriginalStart, wantOrig)
	}
	wantStart := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	if !res.Exception.Start.Equal(wantStart) {
		t.Fatalf("exception start = %v, want %v", res.Exception.Start, wantStart)
	}
}

func TestFollowingScopeTruncatesHistoryAndForks(t *testing.T) {
	ev := externalWeeklyEvent()
	change := engine.TimeChange{StartTime: "14:00", EndTime: "15:00", Day: 0}

	res := resolve(t, ev, engine.ScopeFollowing, change, false)
	if res.Patch == nil || res.Fork == nil {
		t.Fatal("following scope must shape a truncating patch and a fork")
	}
	if res.Exception != nil {
		t.Fatal("following scope must not shape an exception")
	}
	if res.Patch.TimesChange {
		t.Fatal("truncating patch must leave the parent's times alone")
	}
	if len(res.Patch.Recurrence) != 1 || !strings.Contains(res.Patch.Recurrence[0], "UNTIL=20250309") {
		t.Fatalf("truncated rule = %v, want UNTIL=20250309", res.Patch.Recurrence)
	}
	if res.Fork.Recurrence[0] != ev.Recurrence.Rule {
		t.Fatalf("fork rule = %q, want the original %q", res.Fork.Recurrence[0], ev.Recurrence.Rule)
	}
	wantStart := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	if !res.Fork.Start.Equal(wantStart) {
		t.Fatalf("fork start = %v, want %v", res.Fork.Start, wantStart)
	}
	if res.Fork.Summary != ev.Name {
		t.Fatalf("fork summary = %q, want %q", res.Fork.Summary, ev.Name)
	}
}

func TestFollowingScopeDayChangeMovesOnlyTheFork(t *testing.T) {
	ev := externalWeeklyEvent()
	change := engine.TimeChange{StartTime: "09:00", EndTime: "10:00", Day: 2}

	res := resolve(t, ev, engine.ScopeFollowing, change, false)
	// History keeps its weekday; only the forked remainder moves.
	if !strings.Contains(res.Patch.Recurrence[0], "UNTIL=20250309") {
		t.Fatalf("truncated rule = %q", res.Patch.Recurrence[0])
	}
	wantStart := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	if !res.Fork.Start.Equal(wantStart) {
		t.Fatalf("fork start = %v, want %v (two days later)", res.Fork.Start, wantStart)
	}
}

func TestSeriesScopePatchesTimesInPlace(t *testing.T) {
	ev := externalWeeklyEvent()
	change := engine.TimeChange{StartTime: "14:00", EndTime: "15:00", Day: 0}

	res := resolve(t, ev, engine.ScopeSeries, change, false)
	if res.Patch == nil || !res.Patch.TimesChange {
		t.Fatalf("series scope must patch times, got %+v", res.Patch)
	}
	if res.Patch.Recurrence != nil {
		t.Fatal("series time change must not rewrite the rule")
	}
	if res.Exception != nil || res.Fork != nil {
		t.Fatal("series scope shapes exactly one patch")
	}
}

func TestNonRecurringProviderEventAlwaysPatches(t *testing.T) {
	ev := externalWeeklyEvent()
	ev.Recurrence = nil
	change := engine.TimeChange{StartTime: "14:00", EndTime: "15:00", Day: 0}

	res := resolve(t, ev, engine.ScopeFollowing, change, false)
	if res.Patch == nil || !res.Patch.TimesChange {
		t.Fatalf("want a plain time patch, got %+v", res)
	}
	if res.Fork != nil || res.Exception != nil {
		t.Fatal("non-recurring event has nothing to fork or except")
	}
	if res.Scope != engine.ScopeSingle {
		t.Fatalf("scope = %q, want collapse to single", res.Scope)
	}
}

func TestNotifyMapsToSendUpdates(t *testing.T) {
	ev := externalWeeklyEvent()
	change := engine.TimeChange{StartTime: "14:00", EndTime: "15:00", Day: 0}

	quiet := resolve(t, ev, engine.ScopeSeries, change, false)
	if quiet.Patch.SendUpdates != "none" {
		t.Fatalf("sendUpdates = %q, want none", quiet.Patch.SendUpdates)
	}
	loud := resolve(t, ev, engine.ScopeSeries, change, true)
	if loud.Patch.SendUpdates != "all" {
		t.Fatalf("sendUpdates = %q, want all", loud.Patch.SendUpdates)
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	r := engine.NewResolver(time.UTC)
	ev := testEvent(true)

	cases := []struct {
		name   string
		scope  engine.Scope
		change engine.TimeChange
	}{
		{"inverted times", engine.ScopeSingle, engine.TimeChange{StartTime: "11:00", EndTime: "10:00", Day: 2}},
		{"zero duration", engine.ScopeSingle, engine.TimeChange{StartTime: "10:00", EndTime: "10:00", Day: 2}},
		{"malformed start", engine.ScopeSingle, engine.TimeChange{StartTime: "25:00", EndTime: "10:00", Day: 2}},
		{"day out of range", engine.ScopeSingle, engine.TimeChange{StartTime: "09:00", EndTime: "10:00", Day: 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Resolve(ev, tc.scope, tc.change, monday, false)
			if apperrors.CodeOf(err) != apperrors.ErrInvalidInput {
				t.Fatalf("error = %v, want INVALID_INPUT", err)
			}
		})
	}

	recurring := externalWeeklyEvent()
	_, err := r.Resolve(recurring, "everything", engine.TimeChange{StartTime: "09:00", EndTime: "10:00", Day: 0}, monday, false)
	if apperrors.CodeOf(err) != apperrors.ErrInvalidInput {
		t.Fatalf("unknown scope: error = %v, want INVALID_INPUT", err)
	}
}

func TestTruncateRule(t *testing.T) {
	until := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	t.Run("adds UNTIL when the rule has none", func(t *testing.T) {
		out, err := engine.TruncateRule("RRULE:FREQ=WEEKLY;BYDAY=MO", until)
		if err != nil {
			t.Fatalf("truncate: %v", err)
		}
		if !strings.HasPrefix(out, "RRULE:") {
			t.Fatalf("prefix lost: %q", out)
		}
		if !strings.Contains(out, "UNTIL=20250309") {
			t.Fatalf("rule = %q, want UNTIL=20250309", out)
		}
		if strings.Contains(out, "T000000Z") {
			t.Fatalf("rule = %q, want a date-form UNTIL", out)
		}
		if !strings.Contains(out, "FREQ=WEEKLY") {
			t.Fatalf("frequency lost: %q", out)
		}
	})

	t.Run("replaces an existing UNTIL", func(t *testing.T) {
		out, err := engine.TruncateRule("FREQ=WEEKLY;UNTIL=20251231T000000Z;BYDAY=MO", until)
		if err != nil {
			t.Fatalf("truncate: %v", err)
		}
		if strings.Contains(out, "20251231") {
			t.Fatalf("old bound survived: %q", out)
		}
		if !strings.Contains(out, "UNTIL=20250309") {
			t.Fatalf("rule = %q, want UNTIL=20250309", out)
		}
		if strings.HasPrefix(out, "RRULE:") {
			t.Fatalf("prefix invented: %q", out)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := engine.TruncateRule("RRULE:FREQ=FORTNIGHTLY", until)
		if apperrors.CodeOf(err) != apperrors.ErrInvalidInput {
			t.Fatalf("error = %v, want INVALID_INPUT", err)
		}
	})
}
