package schedule

import "time"

// Session is one open clock-in span. Its timing is fixed at clock-in and
// decides whether the whole session accrues off time or extra time; a
// session is never both.
type Session struct {
	ClockInAt time.Time
	Timing    Timing
}

// IsOffTime reports whether the session runs entirely outside the
// scheduled window (late clock-in).
func (s Session) IsOffTime() bool {
	return s.Timing == TimingLate
}

// Elapsed is the session runtime so far, never negative.
func Elapsed(now, clockInAt time.Time) time.Duration {
	d := now.Sub(clockInAt)
	if d < 0 {
		return 0
	}
	return d
}

// Progress reflects schedule consumption, not just session runtime: a
// late clock-in starts with the already-consumed share of the window,
// and the session's own runtime is added on top. Capped at 100.
func Progress(now time.Time, w Window, clockInAt time.Time) float64 {
	total := w.Duration()
	if total <= 0 {
		return 0
	}

	initial := 0.0
	if lateBy := clockInAt.Sub(w.Start); lateBy > 0 {
		initial = float64(lateBy) / float64(total) * 100
	}
	session := 0.0
	if elapsed := now.Sub(clockInAt); elapsed > 0 {
		session = float64(elapsed) / float64(total) * 100
	}

	p := initial + session
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// SessionExtra is the time worked strictly past the scheduled end,
// measured from whichever is later of clock-in or scheduled end.
func SessionExtra(now time.Time, w Window, clockInAt time.Time) time.Duration {
	from := clockInAt
	if w.End.After(from) {
		from = w.End
	}
	extra := now.Sub(from)
	if extra < 0 {
		return 0
	}
	return extra
}

// SessionAccounting resolves the session's contribution to the extra and
// off accumulators. Exactly one of the two is ever non-zero.
func SessionAccounting(now time.Time, w Window, s Session) (extra, off time.Duration) {
	if s.IsOffTime() {
		return 0, Elapsed(now, s.ClockInAt)
	}
	return SessionExtra(now, w, s.ClockInAt), 0
}

// LatenessLabel renders how far past the scheduled start the current
// time is, for a visit that has not been clocked in yet. Empty when the
// window has not opened.
func LatenessLabel(now time.Time, w Window) string {
	diff := now.Sub(w.Start)
	if diff <= 0 {
		return ""
	}
	hours := int(diff / time.Hour)
	minutes := int(diff % time.Hour / time.Minute)
	seconds := int(diff % time.Minute / time.Second)

	str := "Late by "
	if hours > 0 {
		str += itoa(hours) + "h "
	}
	if minutes > 0 {
		str += itoa(minutes) + "m "
	}
	if seconds > 0 {
		str += itoa(seconds) + "s "
	}
	return trimTrailingSpace(str)
}

// ClosestIndex returns the index of the start time nearest to now, or -1
// for an empty slice. Used to focus the roster on the most relevant
// visit of the day.
func ClosestIndex(now time.Time, starts []time.Time) int {
	if len(starts) == 0 {
		return -1
	}
	best := 0
	bestDiff := absDuration(starts[0].Sub(now))
	for i, start := range starts[1:] {
		if diff := absDuration(start.Sub(now)); diff < bestDiff {
			best = i + 1
			bestDiff = diff
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
