package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stemsi/exstem-timer/internal/model"
)

var epoch = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type recordingSurface struct {
	mu     sync.Mutex
	labels []string
	values []string
}

func (s *recordingSurface) SetLabel(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = append(s.labels, text)
}

func (s *recordingSurface) SetValue(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, text)
}

func (s *recordingSurface) lastLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.labels) == 0 {
		return ""
	}
	return s.labels[len(s.labels)-1]
}

func (s *recordingSurface) lastValue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return ""
	}
	return s.values[len(s.values)-1]
}

func (s *recordingSurface) valueCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

type recordingNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *recordingNavigator) Navigate(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}

type fixture struct {
	clock   *clockwork.FakeClock
	surface *recordingSurface
	nav     *recordingNavigator
	ctrl    *Controller
}

func newFixture(cfg model.TimerConfig, opts ...Option) *fixture {
	f := &fixture{
		clock:   clockwork.NewFakeClockAt(epoch),
		surface: &recordingSurface{},
		nav:     &recordingNavigator{},
	}
	f.ctrl = New(cfg, f.surface, f.nav, append([]Option{WithClock(f.clock)}, opts...)...)
	return f
}

// step advances the fake clock by d and runs one tick by hand.
func (f *fixture) step(d time.Duration) bool {
	f.clock.Advance(d)
	return f.ctrl.tick()
}

func isoAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
