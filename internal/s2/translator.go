// Package s2 implements the per-realm stage-2 translator from
// spec.md §3 and §4.5: a map from realm IPA ranges to host PA ranges
// under a protection profile.
//
// The table itself is a flat map, not a multi-level radix tree — this
// core's budget and spec.md's Non-goals exclude emulating the AArch64
// translation-table walk; what's specified is the *contract*
// (idempotent map/unmap, alignment checks), not the page-table
// encoding. Grounded structurally on kvm.UserspaceMemoryRegion's
// bitfield builder methods (kvm/kvm.go's SetMemLogDirtyPages,
// SetMemReadonly) for MapProt, and on islet's rmi::MapProt
// (original_source/rmm/monitor/src/rmi/rtt.rs's
// prot.set_bit(MapProt::NS_PAS)) for the NS_PAS bit itself.
package s2

import (
	"sync"

	"github.com/arm-cca/rmm/internal/page"
	"github.com/arm-cca/rmm/internal/rmmerr"
)

// MapProt is a stage-2 mapping protection profile.
type MapProt uint32

const (
	// Default carries no special bits: a standard protected mapping.
	Default MapProt = 0

	// NSPAS marks a mapping as backed by the non-secure physical
	// address space. Used only by RTT_MAP_UNPROTECTED.
	NSPAS MapProt = 1 << 0
)

// WithNSPAS returns p with the NS_PAS bit set.
func (p MapProt) WithNSPAS() MapProt { return p | NSPAS }

// HasNSPAS reports whether the NS_PAS bit is set.
func (p MapProt) HasNSPAS() bool { return p&NSPAS != 0 }

type mapping struct {
	pa   uint64
	prot MapProt
}

// Translator is one realm's stage-2 page-table object.
type Translator struct {
	realmID uint64

	mu      sync.Mutex
	entries map[uint64]mapping
}

// New returns an empty translator for realmID.
func New(realmID uint64) *Translator {
	return &Translator{realmID: realmID, entries: make(map[uint64]mapping)}
}

// RealmID returns the id this translator was constructed for.
func (t *Translator) RealmID() uint64 { return t.realmID }

func aligned(addrs ...uint64) bool {
	for _, a := range addrs {
		if !page.Aligned(a) {
			return false
		}
	}

	return true
}

// Map installs a stage-2 mapping for the size-byte IPA range starting at
// ipa, backed by host PAs starting at pa, under prot. size must be a
// positive multiple of the page size and both ipa and pa must be page
// aligned. Map is idempotent over identical arguments.
func (t *Translator) Map(ipa, pa uint64, size int, prot MapProt) error {
	if size <= 0 || size%page.Size != 0 || !aligned(ipa, pa) {
		return rmmerr.ErrInput
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for off := 0; off < size; off += page.Size {
		t.entries[ipa+uint64(off)] = mapping{pa: pa + uint64(off), prot: prot}
	}

	return nil
}

// Unmap removes the stage-2 mapping for the size-byte IPA range starting
// at ipa. Unmap is idempotent: unmapping an address with no mapping is
// not an error.
func (t *Translator) Unmap(ipa uint64, size int) error {
	if size <= 0 || size%page.Size != 0 || !aligned(ipa) {
		return rmmerr.ErrInput
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for off := 0; off < size; off += page.Size {
		delete(t.entries, ipa+uint64(off))
	}

	return nil
}

// UnmapPA evicts every stage-2 mapping whose host PA page equals pa,
// regardless of its IPA. DATA_DESTROY uses this to keep a realm from
// retaining a mapping to a granule that has left the Data state
// (spec.md §4.7).
func (t *Translator) UnmapPA(pa uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for ipa, m := range t.entries {
		if m.pa == pa {
			delete(t.entries, ipa)
		}
	}
}

// Lookup returns the host PA mapped at ipa, if any.
func (t *Translator) Lookup(ipa uint64) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.entries[ipa]

	return m.pa, ok
}
