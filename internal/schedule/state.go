package schedule

import "time"

// State is the derived lifecycle state of a visit. MISSED is a derived,
// read-only label: it never blocks a clock action.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateInProgress State = "IN_PROGRESS"
	StateCompleted  State = "COMPLETED"
	StateMissed     State = "MISSED"
)

// Timing classifies a clock event against the scheduled window.
type Timing string

const (
	TimingOnTime Timing = "ON_TIME"
	TimingEarly  Timing = "EARLY"
	TimingLate   Timing = "LATE"
)

// Window is a visit's scheduled time window.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.End.After(w.Start)
}

// ClassifyClockIn classifies a clock-in at now: EARLY before the window
// opens, LATE after it has already closed, ON_TIME inside it.
func ClassifyClockIn(now time.Time, w Window) Timing {
	switch {
	case now.Before(w.Start):
		return TimingEarly
	case now.After(w.End):
		return TimingLate
	default:
		return TimingOnTime
	}
}

// ClassifyClockOut classifies a clock-out at now. Any clock-out at or
// after the scheduled end is a normal completion.
func ClassifyClockOut(now time.Time, w Window) Timing {
	if now.Before(w.End) {
		return TimingEarly
	}
	return TimingOnTime
}

// DeriveState derives the visit state from the clock timestamps and the
// current time. A set clockOutAt always wins; re-opening a visit clears
// it, which drops the state back to IN_PROGRESS.
func DeriveState(now time.Time, w Window, clockInAt, clockOutAt *time.Time) State {
	if clockOutAt != nil {
		return StateCompleted
	}
	if clockInAt != nil {
		return StateInProgress
	}
	if now.After(w.End) {
		return StateMissed
	}
	return StateNotStarted
}

// StatusLabel is the display status used by every roster screen.
func StatusLabel(clockInAt, clockOutAt *time.Time) string {
	if clockOutAt != nil {
		return "Visit Completed"
	}
	if clockInAt != nil {
		return "In Progress"
	}
	return "Not Clocked In"
}

// SecondaryLabel is the one-line supplement shown under the status.
func SecondaryLabel(w Window, clockInAt, clockOutAt *time.Time) string {
	if clockOutAt != nil {
		return "Completed at " + FormatClockTime(*clockOutAt)
	}
	if clockInAt != nil {
		return "Started at " + FormatClockTime(*clockInAt)
	}
	return "Scheduled for " + FormatClockTime(w.Start)
}
