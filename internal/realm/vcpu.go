package realm

import "sync"

// ArchContext holds a VCPU's architectural register state: the AArch64
// general-purpose registers plus the EL2 state the monitor traps
// through. Field names follow the register set surfaced by
// other_examples' blacktop/go-hypervisor CLI (X0..X30, SP, PC, CPSR),
// extended with the two EL2 exception-return registers RMI handlers
// that resume a realm would need to restore.
type ArchContext struct {
	X [31]uint64

	SP   uint64
	PC   uint64
	CPSR uint64

	ELRel2  uint64
	SPSRel2 uint64
}

type ripasCursor struct {
	start uint64
	end   uint64
	addr  uint64
	state uint8
}

// VCPU is one virtual CPU belonging to a realm. It holds a weak
// back-reference to its owning realm: rather than a pointer that would
// keep the realm alive, VCPU stores the owning realm's id and resolves
// it through the registry on demand, so the reference legitimately stops
// resolving once the realm has been removed (spec.md §3, §9).
type VCPU struct {
	id       int
	owner    uint64
	registry *Registry

	mu    sync.Mutex
	ctx   ArchContext
	ripas ripasCursor
	dead  bool
}

// ID returns the VCPU's index within its realm.
func (v *VCPU) ID() int { return v.id }

// Owner returns the id of the realm this VCPU was created for. Recovered
// from islet's Rec.owner (original_source/rmm/src/rmi/rec/mod.rs), which
// caches the owning realm's id directly on the REC so a handler can log
// "which realm" without resolving the back-reference.
func (v *VCPU) Owner() uint64 { return v.owner }

// Realm resolves the VCPU's owning realm. ok is false once the realm has
// been removed from the registry, even if this VCPU handle is still
// held by an in-flight caller.
func (v *VCPU) Realm() (*Realm, bool) {
	return v.registry.Get(v.owner)
}

// IsVMDead reports the VCPU's liveness flag.
func (v *VCPU) IsVMDead() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.dead
}

// SetVMDead sets the VCPU's liveness flag.
func (v *VCPU) SetVMDead(dead bool) {
	v.mu.Lock()
	v.dead = dead
	v.mu.Unlock()
}

// Context returns a copy of the VCPU's architectural context.
func (v *VCPU) Context() ArchContext {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.ctx
}

// SetContext replaces the VCPU's architectural context.
func (v *VCPU) SetContext(ctx ArchContext) {
	v.mu.Lock()
	v.ctx = ctx
	v.mu.Unlock()
}

// SetRIPAS sets the VCPU's RIPAS cursor, used by realm-IPA-state
// commands that walk a range (spec.md §4.4). addr is the running
// pointer, end the exclusive upper bound.
func (v *VCPU) SetRIPAS(start, end, addr uint64, state uint8) {
	v.mu.Lock()
	v.ripas = ripasCursor{start: start, end: end, addr: addr, state: state}
	v.mu.Unlock()
}

// IncRIPASAddr advances the RIPAS cursor's running pointer by size.
func (v *VCPU) IncRIPASAddr(size uint64) {
	v.mu.Lock()
	v.ripas.addr += size
	v.mu.Unlock()
}

func (v *VCPU) RIPASAddr() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.ripas.addr
}

func (v *VCPU) RIPASEnd() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.ripas.end
}

func (v *VCPU) RIPASState() uint8 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.ripas.state
}
