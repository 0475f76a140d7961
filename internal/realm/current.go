package realm

import "sync"

// currentMu guards the per-core "current VCPU" slot, grounded on gokvm's
// machine.Machine.vcpuFds[cpu] per-core indexing (machine.go), generalized
// from "the fd for core N" to "the VCPU the dispatcher on core N is
// currently running".
var (
	currentMu sync.Mutex
	current   = map[int]*VCPU{}
)

func setCurrent(core int, v *VCPU) {
	currentMu.Lock()
	current[core] = v
	currentMu.Unlock()
}

// Current returns the VCPU currently selected on core, if any.
func Current(core int) (*VCPU, bool) {
	currentMu.Lock()
	defer currentMu.Unlock()

	v, ok := current[core]

	return v, ok
}

// DetachCurrent clears the current-VCPU slot for core.
func DetachCurrent(core int) {
	currentMu.Lock()
	delete(current, core)
	currentMu.Unlock()
}
