package engine

import (
	"fmt"
	"math"
)

const (
	MinutesPerDay = 24 * 60
	maxDayMinute  = MinutesPerDay - 1

	DefaultSnapQuantum   = 15
	DefaultPixelsPerHour = 48.0
)

// ParseClock converts "HH:MM" into minutes since midnight. Only the
// canonical zero-padded form is accepted.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	for _, i := range [...]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid clock value %q", s)
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes since midnight into "HH:MM". Values outside
// [0, 1440) are clamped into the day first.
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > maxDayMinute {
		minutes = maxDayMinute
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimeGrid is the pure geometry of the week view: conversions between
// time-of-day and vertical pixel offsets, grid snapping, and day-bound
// clamping. It holds no state and performs no I/O.
type TimeGrid struct {
	PixelsPerHour  float64
	SnapQuantum    int // minutes
	DayColumnWidth float64
}

func (g TimeGrid) pixelsPerHour() float64 {
	if g.PixelsPerHour <= 0 {
		return DefaultPixelsPerHour
	}
	return g.PixelsPerHour
}

func (g TimeGrid) quantum() int {
	if g.SnapQuantum <= 0 {
		return DefaultSnapQuantum
	}
	return g.SnapQuantum
}

// TimeToOffset converts "HH:MM" into a vertical pixel offset.
func (g TimeGrid) TimeToOffset(t string) (float64, error) {
	minutes, err := ParseClock(t)
	if err != nil {
		return 0, err
	}
	return float64(minutes) * g.pixelsPerHour() / 60, nil
}

// OffsetToTime converts a vertical pixel offset back into "HH:MM", rounded
// to the minute.
func (g TimeGrid) OffsetToTime(px float64) string {
	minutes := int(math.Round(px / g.pixelsPerHour() * 60))
	return FormatClock(minutes)
}

// DeltaMinutes converts a vertical pixel delta into a minute delta.
func (g TimeGrid) DeltaMinutes(deltaY float64) int {
	return int(math.Round(deltaY / g.pixelsPerHour() * 60))
}

// DayDelta converts a horizontal pixel delta into a day-column delta.
// Returns 0 when no column width is configured (cross-day drag disabled).
func (g TimeGrid) DayDelta(deltaX float64) int {
	if g.DayColumnWidth <= 0 {
		return 0
	}
	return int(math.Round(deltaX / g.DayColumnWidth))
}

// Snap rounds minutes to the nearest grid quantum.
func (g TimeGrid) Snap(minutes int) int {
	q := g.quantum()
	return int(math.Round(float64(minutes)/float64(q))) * q
}

// SnapPair snaps a start/end pair by shifting both endpoints by the same
// amount, so a dragged event keeps its duration.
func (g TimeGrid) SnapPair(start, end int) (int, int) {
	shift := g.Snap(start) - start
	return start + shift, end + shift
}

// ClampToDay shifts a start/end pair back into [0, 1440) by the minimum
// amount needed. Duration is preserved whenever the full shift fits within
// the day.
func (g TimeGrid) ClampToDay(start, end int) (int, int) {
	if start < 0 {
		shift := -start
		start = 0
		end = end + shift
		if end > maxDayMinute {
			end = maxDayMinute
		}
	} else if end > maxDayMinute {
		shift := end - maxDayMinute
		end = maxDayMinute
		start = start - shift
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

// ClampResizeTop bounds a resized start edge: it may not cross end-quantum
// and may not leave the day.
func (g TimeGrid) ClampResizeTop(start, end int) int {
	if limit := end - g.quantum(); start > limit {
		start = limit
	}
	if start < 0 {
		start = 0
	}
	return start
}

// ClampResizeBottom bounds a resized end edge: it may not cross
// start+quantum and may not leave the day.
func (g TimeGrid) ClampResizeBottom(start, end int) int {
	if limit := start + g.quantum(); end < limit {
		end = limit
	}
	if end > maxDayMinute {
		end = maxDayMinute
	}
	return end
}

func clampDay(day int) int {
	if day < 0 {
		return 0
	}
	if day > 6 {
		return 6
	}
	return day
}
