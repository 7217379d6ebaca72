package main

import (
	"fmt"
	"io"
	"sync"
)

// terminalSurface redraws one status line in place.
type terminalSurface struct {
	mu    sync.Mutex
	out   io.Writer
	label string
	value string
}

func newTerminalSurface(out io.Writer) *terminalSurface {
	return &terminalSurface{out: out}
}

func (s *terminalSurface) SetLabel(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = text
	s.redraw()
}

func (s *terminalSurface) SetValue(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = text
	s.redraw()
}

// redraw returns the cursor to column 0 and clears the line first.
func (s *terminalSurface) redraw() {
	fmt.Fprintf(s.out, "\r\033[2K%s %s", s.label, s.value)
}
