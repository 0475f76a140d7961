package source

import (
	"context"
	"sync"

	"github.com/arm-cca/rmm/internal/rmi"
)

// Script is a fixed, ordered sequence of events replayed once, in order.
// It backs the CLI's "rmm replay" subcommand and the mainloop tests,
// grounded on the teacher's flag.RunShell-style deterministic replay of
// a fixed instruction stream (flag/runs.go).
type Script struct {
	mu     sync.Mutex
	events []rmi.Event
	pos    int
}

// NewScript returns a Script that replays events in order, once.
func NewScript(events ...rmi.Event) *Script {
	return &Script{events: events}
}

// Next implements rmi.Source. It never blocks and ignores ctx: it
// returns the next event in order, and ok=false once the script is
// exhausted.
func (s *Script) Next(ctx context.Context) (rmi.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.events) {
		return rmi.Event{}, false
	}

	ev := s.events[s.pos]
	s.pos++

	return ev, true
}
