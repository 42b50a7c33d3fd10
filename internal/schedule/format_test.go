package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0h 0m 0s", FormatDuration(0))
	assert.Equal(t, "0h 0m 0s", FormatDuration(-time.Minute))
	assert.Equal(t, "0h 5m 3s", FormatDuration(5*time.Minute+3*time.Second))
	assert.Equal(t, "2h 5m 30s", FormatDuration(2*time.Hour+5*time.Minute+30*time.Second))
	assert.Equal(t, "1h 0m 0s", FormatDuration(time.Hour))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), ParseDuration(""))
	assert.Equal(t, time.Duration(0), ParseDuration("0h 0m 0s"))
	assert.Equal(t, 2*time.Hour+5*time.Minute+30*time.Second, ParseDuration("2h 5m 30s"))
}

func TestDurationRoundTrip(t *testing.T) {
	for _, s := range []string{"2h 5m 30s", "0h 0m 0s", "0h 59m 59s", "10h 0m 1s"} {
		assert.Equal(t, s, FormatDuration(ParseDuration(s)))
	}
}

func TestFormatShortDuration(t *testing.T) {
	assert.Equal(t, "0m", FormatShortDuration(0))
	assert.Equal(t, "45m", FormatShortDuration(45*time.Minute))
	assert.Equal(t, "1h 5m", FormatShortDuration(time.Hour+5*time.Minute))
}

func TestFormatClockTime(t *testing.T) {
	assert.Equal(t, "9:05am", FormatClockTime(at(t, "09:05")))
	assert.Equal(t, "12:00pm", FormatClockTime(at(t, "12:00")))
	assert.Equal(t, "12:30am", FormatClockTime(at(t, "00:30")))
	assert.Equal(t, "11:59pm", FormatClockTime(at(t, "23:59")))
}
