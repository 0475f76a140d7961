package rmi

import (
	"context"
	"fmt"

	"github.com/arm-cca/rmm/internal/realm"
	"github.com/arm-cca/rmm/internal/rmmerr"
	"github.com/arm-cca/rmm/internal/rmmlog"
	"github.com/arm-cca/rmm/internal/smc"
)

// IdleHook runs once per iteration before the mainloop blocks again
// (spec.md §4.6 step 5). The default hook detaches a dead current VCPU
// and otherwise exits to the realm (a no-op here: this monitor never
// actually executes realm code, so "exit to realm" degenerates to
// "do nothing, wait for the next event").
type IdleHook func(core int)

// DefaultIdleHook implements spec.md §4.6 step 5 against the realm
// package's per-core current-VCPU slot.
func DefaultIdleHook(core int) {
	v, ok := realm.Current(core)
	if !ok {
		return
	}

	if v.IsVMDead() {
		realm.DetachCurrent(core)
	}
}

// Mainloop is one core's RMI dispatch loop (spec.md §4.6). Dispatch is
// strictly serial: Run must only ever be called once per core, and the
// handler it invokes runs to completion before the next event is read.
type Mainloop struct {
	core     int
	svcs     *Services
	handlers map[Code]Handler
	idle     IdleHook
}

// NewMainloop returns a Mainloop for core, bound to svcs. idle may be
// nil, in which case DefaultIdleHook is used.
func NewMainloop(core int, svcs *Services, idle IdleHook) *Mainloop {
	if idle == nil {
		idle = DefaultIdleHook
	}

	return &Mainloop{
		core:     core,
		svcs:     svcs,
		handlers: make(map[Code]Handler),
		idle:     idle,
	}
}

// Register binds h as the handler for code, overwriting any prior
// binding. Grounded on spec.md §9's "bind one function per command code
// into a table at startup".
func (m *Mainloop) Register(code Code, h Handler) {
	m.handlers[code] = h
}

func (m *Mainloop) defaultHandler(code Code, args [4]uint64) [4]uint64 {
	rmmlog.RMI.WithFields(map[string]interface{}{
		"core": m.core, "code": code, "args": args,
	}).Warn("unrecognized RMI command")

	return [4]uint64{RetFail}
}

// Run drives the dispatch loop until src is exhausted or ctx is done.
func (m *Mainloop) Run(ctx context.Context, src Source) error {
	for {
		ev, ok := src.Next(ctx)
		if !ok {
			return ctx.Err()
		}

		h, found := m.handlers[ev.Code]

		var ret [4]uint64
		if found {
			ret = h(m.core, m.svcs, ev.Args)
		} else {
			ret = m.defaultHandler(ev.Code, ev.Args)
		}

		if _, err := m.svcs.Gateway.Call(smc.RMMReqComplete, ret); err != nil {
			rmmlog.RMI.WithError(fmt.Errorf("%w: %v", rmmerr.ErrFirmware, err)).
				WithField("core", m.core).Warn("RMM_REQ_COMPLETE failed")
		}

		m.idle(m.core)
	}
}
