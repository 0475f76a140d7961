// Package granule implements the process-wide granule state machine
// described in spec.md §3–§4.1: a map from physical granule address to
// its tracked state, with a permitted-transition graph that gives the
// monitor a single choke point for the secure-monitor calls which move
// pages between security states.
//
// Grounded on memory.Memory's slot table (memory/memory.go) and
// memory.AddressSpace's range bookkeeping (memory/addressSpace.go),
// generalized from tracking memory *regions* to tracking per-page
// *states*.
package granule

import (
	"sync"

	"github.com/arm-cca/rmm/internal/page"
	"github.com/arm-cca/rmm/internal/rmmerr"
	"github.com/arm-cca/rmm/internal/rmmlog"
)

// State is one of the six states a tracked granule can be in.
type State uint8

const (
	Undelegated State = iota
	Delegated
	Data
	RTT
	Rec
	RD
)

func (s State) String() string {
	switch s {
	case Undelegated:
		return "undelegated"
	case Delegated:
		return "delegated"
	case Data:
		return "data"
	case RTT:
		return "rtt"
	case Rec:
		return "rec"
	case RD:
		return "rd"
	default:
		return "unknown"
	}
}

// adjacency holds the permitted transition graph from spec.md §4.1. Every
// "in use" state reaches Delegated on the way out.
var adjacency = map[State]map[State]bool{
	Undelegated: {Delegated: true},
	Delegated:   {Undelegated: true, Data: true, RTT: true, Rec: true, RD: true},
	Data:        {Delegated: true},
	RTT:         {Delegated: true},
	Rec:         {Delegated: true},
	RD:          {Delegated: true},
}

func tracked(s State) bool {
	return s == Data || s == RTT || s == Rec || s == RD
}

// MM is the narrow view of the monitor's own virtual memory the granule
// table needs: map a page in readable/writable when it becomes
// Data/RTT/Rec/RD, unmap it on the way back out to Delegated.
type MM interface {
	MapRW(pa uint64) error
	Unmap(pa uint64) error
}

// Granule is one tracked physical page.
type Granule struct {
	PA    uint64
	State State
}

// Table is the process-wide granule table, guarded by a single mutex per
// spec.md §5 (acceptable alongside per-entry locking; chosen here because
// every handler already serializes on this table and per-entry striping
// would only add bookkeeping, not throughput, at this core's scale).
type Table struct {
	mu       sync.Mutex
	granules map[uint64]*Granule
}

// NewTable returns an empty granule table. Every untracked address is
// implicitly Undelegated.
func NewTable() *Table {
	return &Table{granules: make(map[uint64]*Granule)}
}

// Find looks up pa and fails unless its recorded state is exactly
// expected. An address with no table entry is implicitly Undelegated.
func (t *Table) Find(pa uint64, expected State) (*Granule, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.granules[pa]
	if !ok {
		if expected == Undelegated {
			return &Granule{PA: pa, State: Undelegated}, nil
		}

		return nil, rmmerr.ErrNotFound
	}

	if g.State != expected {
		return nil, rmmerr.ErrNotFound
	}

	return g, nil
}

// SetState transitions pa to newState if the move is permitted, updating
// mm's view of the page along the way. It returns rmmerr.ErrInput for any
// transition not in the permitted graph, including misaligned pa.
func (t *Table) SetState(pa uint64, newState State, mm MM) error {
	if !page.Aligned(pa) {
		return rmmerr.ErrInput
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cur := Undelegated
	if g, ok := t.granules[pa]; ok {
		cur = g.State
	}

	if !adjacency[cur][newState] {
		return rmmerr.ErrInput
	}

	switch {
	case tracked(newState):
		if err := mm.MapRW(pa); err != nil {
			return err
		}
	case newState == Delegated && tracked(cur):
		if err := mm.Unmap(pa); err != nil {
			return err
		}
	}

	if newState == Undelegated {
		delete(t.granules, pa)
	} else {
		t.granules[pa] = &Granule{PA: pa, State: newState}
	}

	rmmlog.Granule.WithFields(map[string]interface{}{
		"pa": pa, "from": cur, "to": newState,
	}).Trace("granule state transition")

	return nil
}
