package engine_test

import (
	"testing"

	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/engine"
)

func TestClockRoundTrip(t *testing.T) {
	grid := engine.TimeGrid{PixelsPerHour: 48, SnapQuantum: 15}
	for m := 0; m < engine.MinutesPerDay; m++ {
		clock := engine.FormatClock(m)
		px, err := grid.TimeToOffset(clock)
		if err != nil {
			t.Fatalf("TimeToOffset(%q): %v", clock, err)
		}
		if got := grid.OffsetToTime(px); got != clock {
			t.Fatalf("round trip for %q: got %q", clock, got)
		}
	}
}

func TestParseClockRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "9:00", "24:00", "12:60", "ab:cd", "12.30", "09:30xyz", "09: 30", "0900"} {
		if _, err := engine.ParseClock(s); err == nil {
			t.Errorf("ParseClock(%q): expected error", s)
		}
	}
}

func TestSnapIdempotent(t *testing.T) {
	grid := engine.TimeGrid{SnapQuantum: 15}
	for m := -120; m <= engine.MinutesPerDay+120; m++ {
		once := grid.Snap(m)
		if twice := grid.Snap(once); twice != once {
			t.Fatalf("Snap not idempotent at %d: %d != %d", m, twice, once)
		}
	}
}

func TestSnapPairPreservesDuration(t *testing.T) {
	grid := engine.TimeGrid{SnapQuantum: 15}
	cases := []struct{ start, end int }{
		{543, 603},
		{0, 90},
		{601, 646},
		{1300, 1420},
	}
	for _, tc := range cases {
		s, e := grid.SnapPair(tc.start, tc.end)
		if e-s != tc.end-tc.start {
			t.Errorf("SnapPair(%d, %d) changed duration: got (%d, %d)", tc.start, tc.end, s, e)
		}
		if s%15 != 0 {
			t.Errorf("SnapPair(%d, %d) start %d not on quantum", tc.start, tc.end, s)
		}
	}
}

func TestClampToDay(t *testing.T) {
	grid := engine.TimeGrid{SnapQuantum: 15}
	cases := []struct {
		name                string
		start, end          int
		wantStart, wantEnd  int
		durationMustSurvive bool
	}{
		{"in bounds untouched", 540, 600, 540, 600, true},
		{"shifted up past midnight", -90, -30, 0, 60, true},
		{"shifted past end of day", 1410, 1470, 1379, 1439, true},
		{"start exactly zero", 0, 60, 0, 60, true},
		{"longer than the day", -60, 1500, 0, 1439, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, e := grid.ClampToDay(tc.start, tc.end)
			if s != tc.wantStart || e != tc.wantEnd {
				t.Fatalf("got (%d, %d), want (%d, %d)", s, e, tc.wantStart, tc.wantEnd)
			}
			if s < 0 || e > engine.MinutesPerDay-1 {
				t.Fatalf("result (%d, %d) escapes the day", s, e)
			}
			if tc.durationMustSurvive && e-s != tc.end-tc.start {
				t.Fatalf("duration changed: got %d, want %d", e-s, tc.end-tc.start)
			}
		})
	}
}

func TestResizeClampsToMinimumDuration(t *testing.T) {
	grid := engine.TimeGrid{SnapQuantum: 15}

	// Top edge dragged well below the end.
	if got := grid.ClampResizeTop(700, 600); got != 585 {
		t.Errorf("ClampResizeTop(700, 600) = %d, want 585", got)
	}
	// Bottom edge dragged well above the start.
	if got := grid.ClampResizeBottom(600, 500); got != 615 {
		t.Errorf("ClampResizeBottom(600, 500) = %d, want 615", got)
	}
	// Edges respect day bounds.
	if got := grid.ClampResizeTop(-20, 60); got != 0 {
		t.Errorf("ClampResizeTop(-20, 60) = %d, want 0", got)
	}
	if got := grid.ClampResizeBottom(1400, 1500); got != 1439 {
		t.Errorf("ClampResizeBottom(1400, 1500) = %d, want 1439", got)
	}
}

func TestDayDelta(t *testing.T) {
	grid := engine.TimeGrid{DayColumnWidth: 120}
	cases := []struct {
		deltaX float64
		want   int
	}{
		{0, 0},
		{59, 0},
		{61, 1},
		{-61, -1},
		{250, 2},
	}
	for _, tc := range cases {
		if got := grid.DayDelta(tc.deltaX); got != tc.want {
			t.Errorf("DayDelta(%v) = %d, want %d", tc.deltaX, got, tc.want)
		}
	}

	disabled := engine.TimeGrid{}
	if got := disabled.DayDelta(500); got != 0 {
		t.Errorf("DayDelta with no column width = %d, want 0", got)
	}
}
