// Package rmi implements the Realm Management Interface dispatch loop
// from spec.md §4.6 and §6: the protocol boundary between the
// hypervisor, relayed through firmware, and the monitor's own services.
package rmi

import "context"

// Code is an RMI command code (spec.md §6).
type Code uint64

const (
	Version Code = iota
	GranuleDelegate
	GranuleUndelegate
	VMCreate
	VMSwitch
	VMResume
	VMDestroy
	DataCreate
	DataDestroy
	RTTInitRipas
	RTTReadEntry
	RTTMapUnprotected
)

func (c Code) String() string {
	switch c {
	case Version:
		return "VERSION"
	case GranuleDelegate:
		return "GRANULE_DELEGATE"
	case GranuleUndelegate:
		return "GRANULE_UNDELEGATE"
	case VMCreate:
		return "VM_CREATE"
	case VMSwitch:
		return "VM_SWITCH"
	case VMResume:
		return "VM_RESUME"
	case VMDestroy:
		return "VM_DESTROY"
	case DataCreate:
		return "DATA_CREATE"
	case DataDestroy:
		return "DATA_DESTROY"
	case RTTInitRipas:
		return "RTT_INIT_RIPAS"
	case RTTReadEntry:
		return "RTT_READ_ENTRY"
	case RTTMapUnprotected:
		return "RTT_MAP_UNPROTECTED"
	default:
		return "UNKNOWN"
	}
}

// ABIVersion is the value Version reports in ret[1].
const ABIVersion = 1

// Status words, per spec.md §6. Exact numeric values are
// implementation-defined but stable across this build.
const (
	Success    uint64 = 0
	RetFail    uint64 = 1
	ErrorInput uint64 = 2
	Max        uint64 = ^uint64(0)
)

// Event is one RMI command delivered to the mainloop: a code plus its
// four-word argument vector (spec.md §6).
type Event struct {
	Code Code
	Args [4]uint64
}

// Source yields the next RMI event. Next blocks until an event is
// available or ctx is done, in which case ok is false.
type Source interface {
	Next(ctx context.Context) (Event, bool)
}

// Handler executes one RMI command and returns its reply vector.
// core identifies which per-core dispatch loop is calling, needed by
// handlers that touch per-core state such as the current-VCPU slot.
type Handler func(core int, svcs *Services, args [4]uint64) [4]uint64
