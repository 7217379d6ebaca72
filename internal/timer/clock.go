package timer

import (
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// TimeSource reads the wall clock for the countdown strategies.
// In production it wraps clockwork.NewRealClock(); tests inject a FakeClock.
type TimeSource struct {
	clock clockwork.Clock
}

// NewTimeSource wraps clock. A nil clock means the real wall clock.
func NewTimeSource(clock clockwork.Clock) TimeSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return TimeSource{clock: clock}
}

// NowMillis returns the current wall-clock time in epoch milliseconds.
func (ts TimeSource) NowMillis() int64 {
	return ts.clock.Now().UnixMilli()
}

// NewTicker schedules a repeating tick on the underlying clock.
func (ts TimeSource) NewTicker(d time.Duration) clockwork.Ticker {
	return ts.clock.NewTicker(d)
}

// Zone-less layouts are read as UTC; the server writes naive UTC timestamps.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseDeadline parses an ISO-8601 timestamp into epoch milliseconds.
// ok is false for empty or unparseable text, which callers must read as
// "no server deadline", never as "deadline already passed".
func ParseDeadline(text string) (millis int64, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}
