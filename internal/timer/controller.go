package timer

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-timer/internal/model"
)

// DefaultTickInterval is how often the countdown is recomputed. The visible
// value changes at most once per second but stays accurate under jitter.
const DefaultTickInterval = 250 * time.Millisecond

const neutralLabel = "Time"

// Outcome describes how a timer session ended.
type Outcome string

const (
	// OutcomeIdle: no surface or no recognised timer mode, nothing ran.
	OutcomeIdle Outcome = "idle"
	// OutcomeNavigated: the guard redirected the page.
	OutcomeNavigated Outcome = "navigated"
	// OutcomeFrozen: time ran out without navigation, display holds 0:00.
	OutcomeFrozen Outcome = "frozen"
	// OutcomeCancelled: the page went away before time ran out.
	OutcomeCancelled Outcome = "cancelled"
)

// Option customises a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = NewTimeSource(clock) }
}

// WithTickInterval replaces DefaultTickInterval. Non-positive values are ignored.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger sets the logger used by the controller and its guard.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// Controller resolves the timer mode of one page view, drives the selected
// countdown and hands terminal navigation to the Guard.
type Controller struct {
	cfg      model.TimerConfig
	display  *Display
	guard    *Guard
	clock    TimeSource
	interval time.Duration
	log      zerolog.Logger
	visible  chan struct{}

	deadlineMillis int64
	hasDeadline    bool

	strat   strategy
	ticker  clockwork.Ticker
	stopped bool
}

// New creates a controller for cfg. surface may be nil, in which case Run
// does nothing.
func New(cfg model.TimerConfig, surface Surface, nav Navigator, opts ...Option) *Controller {
	c := &Controller{
		cfg:      cfg,
		display:  NewDisplay(surface),
		clock:    NewTimeSource(nil),
		interval: DefaultTickInterval,
		log:      zerolog.Nop(),
		visible:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "timer").Logger()
	c.guard = NewGuard(nav, c.log)

	if cfg.TestEndTime != "" {
		c.deadlineMillis, c.hasDeadline = ParseDeadline(cfg.TestEndTime)
		if !c.hasDeadline {
			c.log.Warn().Str("test_end_time", cfg.TestEndTime).Msg("unparseable server deadline, ignoring")
		}
	}
	return c
}

// Visible reports that the page became visible again. The countdown is
// recomputed right away instead of waiting for the next tick. Safe to call
// from any goroutine; bursts coalesce into one recomputation.
func (c *Controller) Visible() {
	select {
	case c.visible <- struct{}{}:
	default:
	}
}

// Run drives the countdown until it ends or ctx is cancelled.
func (c *Controller) Run(ctx context.Context) Outcome {
	if !c.start() {
		return c.outcome()
	}

	c.ticker = c.clock.NewTicker(c.interval)
	defer c.stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Debug().Msg("timer session closed")
			return OutcomeCancelled
		case <-c.ticker.Chan():
		case <-c.visible:
			c.log.Debug().Msg("page visible, recomputing")
		}
		if c.tick() {
			return c.outcome()
		}
	}
}

// start selects the strategy, paints the label, runs the startup deadline
// check and the first tick. It reports whether a repeating schedule is needed.
func (c *Controller) start() bool {
	if !c.display.Attached() {
		c.log.Debug().Msg("no timer surface, nothing to attach to")
		return false
	}

	c.strat = c.resolve()
	if c.strat == nil {
		c.display.SetLabel(neutralLabel)
		c.display.SetTime(0)
	} else {
		c.display.SetLabel(c.strat.label())
	}

	if c.hasDeadline && c.deadlineMillis <= c.clock.NowMillis() {
		c.log.Info().Msg("server deadline already passed")
		if c.guard.Trigger(c.cfg.FinishURL) {
			return false
		}
	}

	if c.strat == nil {
		return false
	}
	return !c.tick()
}

func (c *Controller) resolve() strategy {
	mode, ok := model.ParseMode(string(c.cfg.Mode))
	if !ok {
		mode = model.ModeDisplay
	}
	timerMode, _ := model.ParseTimerMode(string(c.cfg.TimerMode))

	var strat strategy
	switch timerMode {
	case model.TimerModePerQuestion:
		strat = newPerQuestion(c.cfg, c.clock.NowMillis())
	case model.TimerModeTotalTest:
		strat = newTotalTest(c.cfg, c.deadlineMillis, c.hasDeadline)
	default:
		c.log.Warn().Str("timer_mode", string(c.cfg.TimerMode)).Msg("unknown timer mode, showing neutral display")
		return nil
	}

	c.log.Info().
		Str("mode", string(mode)).
		Str("timer_mode", string(timerMode)).
		Bool("auto_advance", c.cfg.AutoAdvance).
		Bool("server_deadline", c.hasDeadline).
		Int("question_index", c.cfg.QuestionIndex).
		Int("total_questions", c.cfg.TotalQuestions).
		Msg("timer strategy selected")
	return strat
}

// tick runs one countdown step and reports whether the countdown is over.
// Order: compute, display, expiry check; the schedule stops before the guard.
func (c *Controller) tick() bool {
	if c.stopped {
		return true
	}
	remaining := c.strat.remaining(c.clock.NowMillis())
	c.display.SetTime(remaining)
	if remaining > 0 {
		return false
	}

	c.stop()
	c.log.Info().Msg("time is up")
	c.strat.expire(c.guard)
	return true
}

func (c *Controller) stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	c.stopped = true
}

func (c *Controller) outcome() Outcome {
	switch {
	case c.guard.Fired():
		return OutcomeNavigated
	case c.strat == nil:
		return OutcomeIdle
	case c.stopped:
		return OutcomeFrozen
	default:
		return OutcomeCancelled
	}
}
