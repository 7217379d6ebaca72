package timer

import "github.com/stemsi/exstem-timer/internal/model"

// totalTest counts down the whole test. A server deadline, when present, is
// the only authority; the local duration is a fallback anchored at the first
// computation of this page view.
type totalTest struct {
	deadlineMillis int64
	hasDeadline    bool

	totalMillis   int64
	fallbackStart int64
	started       bool

	finishURL string
}

func newTotalTest(cfg model.TimerConfig, deadlineMillis int64, hasDeadline bool) *totalTest {
	return &totalTest{
		deadlineMillis: deadlineMillis,
		hasDeadline:    hasDeadline,
		totalMillis:    int64(max(cfg.TotalDuration, 0)) * 1000,
		finishURL:      cfg.FinishURL,
	}
}

func (t *totalTest) label() string { return "Test time" }

func (t *totalTest) remaining(nowMillis int64) float64 {
	if t.hasDeadline {
		return float64(t.deadlineMillis-nowMillis) / 1000
	}
	if !t.started {
		t.fallbackStart = nowMillis
		t.started = true
	}
	return float64(t.totalMillis-(nowMillis-t.fallbackStart)) / 1000
}

// expire always finishes the test.
func (t *totalTest) expire(g *Guard) {
	g.Trigger(t.finishURL)
}
