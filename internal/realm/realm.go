package realm

import (
	"sync"

	"github.com/arm-cca/rmm/internal/rmmerr"
	"github.com/arm-cca/rmm/internal/s2"
)

// Realm is one isolated virtual machine managed by the monitor.
type Realm struct {
	id uint64

	mu    sync.Mutex
	state Lifecycle

	stage2 *s2.Translator
	vcpus  []*VCPU
}

// ID returns the realm's monotonically assigned id.
func (r *Realm) ID() uint64 { return r.id }

// State returns the realm's current lifecycle state.
func (r *Realm) State() Lifecycle {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// AtState reports whether the realm is currently in state s.
func (r *Realm) AtState(s Lifecycle) bool {
	return r.State() == s
}

// SetState moves the realm to a new lifecycle state unconditionally; the
// caller is responsible for enforcing any precondition spec.md attaches
// to the transition.
func (r *Realm) SetState(s Lifecycle) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Stage2 returns the realm's stage-2 translator.
func (r *Realm) Stage2() *s2.Translator { return r.stage2 }

// NumVCPUs returns the number of VCPUs the realm was created with.
func (r *Realm) NumVCPUs() int { return len(r.vcpus) }

// VCPU returns the realm's VCPU at the given index.
func (r *Realm) VCPU(id int) (*VCPU, error) {
	if id < 0 || id >= len(r.vcpus) {
		return nil, rmmerr.ErrInput
	}

	return r.vcpus[id], nil
}

// SwitchTo picks vcpuID as the current VCPU on the given core,
// precondition: the realm must be Active (spec.md §4.4).
func (r *Realm) SwitchTo(core, vcpuID int) error {
	r.mu.Lock()

	if r.state != Active {
		r.mu.Unlock()

		return rmmerr.ErrInput
	}

	if vcpuID < 0 || vcpuID >= len(r.vcpus) {
		r.mu.Unlock()

		return rmmerr.ErrInput
	}

	vcpu := r.vcpus[vcpuID]
	r.mu.Unlock()

	setCurrent(core, vcpu)

	return nil
}
