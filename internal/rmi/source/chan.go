// Package source provides rmi.Source implementations: a channel-backed
// live source and a fixed-sequence replay source for tests and the CLI's
// script runner.
package source

import (
	"context"

	"github.com/arm-cca/rmm/internal/rmi"
)

// Chan adapts a channel of events into an rmi.Source. It is the shape a
// real firmware-trap receiver would have: some lower layer pushes events
// onto the channel as they arrive.
type Chan struct {
	events chan rmi.Event
}

// NewChan returns a Chan source backed by a channel of the given buffer
// size.
func NewChan(buffer int) *Chan {
	return &Chan{events: make(chan rmi.Event, buffer)}
}

// Send enqueues an event for a future Next call. It blocks if the
// channel is full.
func (c *Chan) Send(ev rmi.Event) {
	c.events <- ev
}

// Close signals that no further events will be sent. Next returns
// ok=false once the channel has drained.
func (c *Chan) Close() {
	close(c.events)
}

// Next implements rmi.Source.
func (c *Chan) Next(ctx context.Context) (rmi.Event, bool) {
	select {
	case ev, ok := <-c.events:
		return ev, ok
	case <-ctx.Done():
		return rmi.Event{}, false
	}
}
