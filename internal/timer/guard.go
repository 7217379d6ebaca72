package timer

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Navigator moves the page to another URL.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(url string)

// Navigate calls f(url).
func (f NavigatorFunc) Navigate(url string) { f(url) }

// Guard is a one-shot redirect trigger. Only the first Trigger with a
// non-empty URL reaches the Navigator; later calls from any strategy, the
// startup check or a tick already in flight are no-ops.
type Guard struct {
	nav   Navigator
	fired atomic.Bool
	log   zerolog.Logger
}

// NewGuard creates a guard in front of nav.
func NewGuard(nav Navigator, log zerolog.Logger) *Guard {
	return &Guard{nav: nav, log: log}
}

// Trigger navigates to url unless the guard has already fired.
// It reports whether this call performed the navigation.
func (g *Guard) Trigger(url string) bool {
	if url == "" {
		g.log.Debug().Msg("navigation requested without a target, ignoring")
		return false
	}
	if !g.fired.CompareAndSwap(false, true) {
		g.log.Debug().Str("url", url).Msg("navigation already triggered, skipping")
		return false
	}

	g.log.Info().Str("url", url).Msg("timer navigation")
	if g.nav != nil {
		g.nav.Navigate(url)
	}
	return true
}

// Fired reports whether a navigation has been triggered.
func (g *Guard) Fired() bool {
	return g.fired.Load()
}
