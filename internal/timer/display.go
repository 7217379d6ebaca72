package timer

import (
	"fmt"
	"math"
)

// Surface is the rendering target of a timer: one label and one value.
type Surface interface {
	SetLabel(text string)
	SetValue(text string)
}

// Display formats countdown values onto a Surface. A Display without a
// surface is valid and ignores every call.
type Display struct {
	surface Surface
}

// NewDisplay binds a display to surface, which may be nil.
func NewDisplay(surface Surface) *Display {
	return &Display{surface: surface}
}

// Attached reports whether there is anything to render to.
func (d *Display) Attached() bool {
	return d != nil && d.surface != nil
}

// SetLabel renders the timer caption.
func (d *Display) SetLabel(text string) {
	if !d.Attached() {
		return
	}
	d.surface.SetLabel(text)
}

// SetTime renders the remaining seconds, clamped at zero.
func (d *Display) SetTime(remainingSeconds float64) {
	if !d.Attached() {
		return
	}
	d.surface.SetValue(FormatRemaining(remainingSeconds))
}

// FormatRemaining renders seconds as H:MM:SS from one hour up, else M:SS.
// Partial seconds round up so 0:00 only shows once time is over.
func FormatRemaining(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Ceil(seconds))
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
