// Package smc implements the SMC gateway from spec.md §4.2 and §6: the
// single, synchronous, non-reentrant-per-core primitive the monitor uses
// to talk to the firmware below it.
//
// Grounded on kvm/kvm.go's ioctl(fd, op, arg uintptr) (uintptr, error):
// one narrow wrapper every higher-level call goes through.
package smc

import (
	"sync"

	"github.com/arm-cca/rmm/internal/rmmerr"
)

// Code is a secure-monitor call command code, named after islet's
// rmm/bin/src/smc.go::Code (original_source/rmm/bin/src/main.rs calls
// smc::Code::MarkRealm / MarkNonSecure, and rmi::RMM_REQ_COMPLETE is the
// monitor's own way of yielding back to firmware).
type Code uint32

const (
	MarkRealm Code = iota
	MarkNonSecure
	RMMReqComplete
)

func (c Code) String() string {
	switch c {
	case MarkRealm:
		return "MarkRealm"
	case MarkNonSecure:
		return "MarkNonSecure"
	case RMMReqComplete:
		return "RMM_REQ_COMPLETE"
	default:
		return "unknown"
	}
}

// Gateway issues a single synchronous down-call to the firmware below
// the monitor and returns its four-word reply.
type Gateway interface {
	Call(cmd Code, args [4]uint64) ([4]uint64, error)
}

// NullGateway is the default, in-process gateway used by tests and the
// CLI's replay command. It tracks a fake firmware-level security-state
// map so the round-trip invariant in spec.md §8 (granule table state
// agrees with firmware security state) can be checked without real EL3
// firmware underneath.
type NullGateway struct {
	mu     sync.Mutex
	marked map[uint64]bool
}

// NewNullGateway returns a NullGateway with no granules marked.
func NewNullGateway() *NullGateway {
	return &NullGateway{marked: make(map[uint64]bool)}
}

func (g *NullGateway) Call(cmd Code, args [4]uint64) ([4]uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch cmd {
	case MarkRealm:
		pa := args[0]
		if g.marked[pa] {
			return [4]uint64{1}, nil
		}

		g.marked[pa] = true

		return [4]uint64{0}, nil

	case MarkNonSecure:
		pa := args[0]
		if !g.marked[pa] {
			return [4]uint64{1}, nil
		}

		delete(g.marked, pa)

		return [4]uint64{0}, nil

	case RMMReqComplete:
		return args, nil

	default:
		return [4]uint64{}, rmmerr.ErrInput
	}
}

// IsMarked reports the simulated firmware-level security state for pa,
// exposed so tests can assert the hardware/software agreement invariant
// from spec.md §8.
func (g *NullGateway) IsMarked(pa uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.marked[pa]
}
