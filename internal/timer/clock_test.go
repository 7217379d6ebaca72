package timer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestParseDeadline(t *testing.T) {
	want := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC).UnixMilli()

	tests := []struct {
		name   string
		text   string
		millis int64
		ok     bool
	}{
		{name: "rfc3339 utc", text: "2025-03-14T09:30:00Z", millis: want, ok: true},
		{name: "rfc3339 offset", text: "2025-03-14T11:30:00+02:00", millis: want, ok: true},
		{name: "naive iso is utc", text: "2025-03-14T09:30:00", millis: want, ok: true},
		{name: "naive with micros", text: "2025-03-14T09:30:00.250000", millis: want + 250, ok: true},
		{name: "space separated", text: "2025-03-14 09:30:00", millis: want, ok: true},
		{name: "surrounding space", text: "  2025-03-14T09:30:00Z ", millis: want, ok: true},
		{name: "empty", text: "", ok: false},
		{name: "blank", text: "   ", ok: false},
		{name: "garbage", text: "tomorrow at noon", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			millis, ok := ParseDeadline(tc.text)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.millis, millis)
			}
		})
	}
}

func TestTimeSourceNowMillis(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	ts := NewTimeSource(clock)

	assert.Equal(t, epoch.UnixMilli(), ts.NowMillis())
	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, epoch.UnixMilli()+1500, ts.NowMillis())
}

func TestTimeSourceDefaultsToRealClock(t *testing.T) {
	before := time.Now().UnixMilli()
	got := NewTimeSource(nil).NowMillis()
	assert.GreaterOrEqual(t, got, before)
}
