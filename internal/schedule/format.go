package schedule

import (
	"strconv"
	"strings"
	"time"
)

const zeroDuration = "0h 0m 0s"

// FormatDuration renders a duration as "2h 5m 30s". Zero components
// below the largest non-zero unit are still shown, negatives clamp to
// "0h 0m 0s".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return zeroDuration
	}
	totalSeconds := int(d / time.Second)
	hours := totalSeconds / 3600
	minutes := totalSeconds % 3600 / 60
	seconds := totalSeconds % 60
	return itoa(hours) + "h " + itoa(minutes) + "m " + itoa(seconds) + "s"
}

// ParseDuration parses the FormatDuration form. Malformed parts are
// ignored, mirroring how accumulated totals were always re-parsed from
// their display strings.
func ParseDuration(s string) time.Duration {
	if s == "" || s == zeroDuration {
		return 0
	}
	var totalSeconds int
	for _, part := range strings.Fields(s) {
		num, err := strconv.Atoi(strings.TrimRight(part, "hms"))
		if err != nil {
			continue
		}
		switch {
		case strings.HasSuffix(part, "h"):
			totalSeconds += num * 3600
		case strings.HasSuffix(part, "m"):
			totalSeconds += num * 60
		case strings.HasSuffix(part, "s"):
			totalSeconds += num
		}
	}
	return time.Duration(totalSeconds) * time.Second
}

// FormatShortDuration renders "1h 5m" labels for working/total-time
// displays, dropping the hour part when zero.
func FormatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalMinutes := int(d / time.Minute)
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if hours > 0 {
		return itoa(hours) + "h " + itoa(minutes) + "m"
	}
	return itoa(minutes) + "m"
}

// FormatClockTime renders a wall-clock time as "3:04pm".
func FormatClockTime(t time.Time) string {
	hour := t.Hour()
	period := "am"
	if hour >= 12 {
		period = "pm"
	}
	adjusted := hour % 12
	if adjusted == 0 {
		adjusted = 12
	}
	minute := t.Minute()
	m := itoa(minute)
	if minute < 10 {
		m = "0" + m
	}
	return itoa(adjusted) + ":" + m + period
}

func itoa(n int) string { return strconv.Itoa(n) }

func trimTrailingSpace(s string) string { return strings.TrimRight(s, " ") }
