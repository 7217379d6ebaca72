package timer

import "github.com/stemsi/exstem-timer/internal/model"

// MinQuestionSeconds is the floor applied to per-question durations.
const MinQuestionSeconds = 5

// strategy is one countdown rule. remaining is evaluated once per tick and
// expire once, after the schedule has been stopped.
type strategy interface {
	label() string
	remaining(nowMillis int64) float64
	expire(g *Guard)
}

// perQuestion counts down one question from the moment its page loaded.
type perQuestion struct {
	durationMillis int64
	startMillis    int64
	autoAdvance    bool
	nextURL        string
	finishURL      string
}

func newPerQuestion(cfg model.TimerConfig, startMillis int64) *perQuestion {
	secs := cfg.PerQuestionDuration
	if secs < MinQuestionSeconds {
		secs = MinQuestionSeconds
	}
	return &perQuestion{
		durationMillis: int64(secs) * 1000,
		startMillis:    startMillis,
		autoAdvance:    cfg.AutoAdvance,
		nextURL:        cfg.NextURL,
		finishURL:      cfg.FinishURL,
	}
}

func (p *perQuestion) label() string { return "Question time" }

func (p *perQuestion) remaining(nowMillis int64) float64 {
	return float64(p.durationMillis-(nowMillis-p.startMillis)) / 1000
}

// expire advances to the next question, or finishes on the last one.
// Without auto-advance the display stays at 0:00 and the test-taker moves on
// through the page controls.
func (p *perQuestion) expire(g *Guard) {
	if !p.autoAdvance {
		return
	}
	target := p.nextURL
	if target == "" {
		target = p.finishURL
	}
	g.Trigger(target)
}
