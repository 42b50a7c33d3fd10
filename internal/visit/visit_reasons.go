package visit

// Accepted reason codes per clock flow. An early or late clock-in and
// an early clock-out must carry one of these; an on-time clock needs
// none and any supplied reason is stored as-is on the event row.
var (
	earlyClockInReasons = map[string]struct{}{
		"early-arrival":       {},
		"prev-finished-early": {},
		"client-requested":    {},
		"other":               {},
	}
	lateClockInReasons = map[string]struct{}{
		"traffic-delay":    {},
		"prev-overrun":     {},
		"emergency":        {},
		"client-not-ready": {},
		"other":            {},
	}
	earlyClockOutReasons = map[string]struct{}{
		"task-completed-early": {},
		"client-cancelled":     {},
		"emergency":            {},
		"other":                {},
	}
)

func reasonAllowed(set map[string]struct{}, reason *string) bool {
	if reason == nil {
		return false
	}
	_, ok := set[*reason]
	return ok
}
