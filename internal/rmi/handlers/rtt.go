package handlers

import (
	"github.com/arm-cca/rmm/internal/page"
	"github.com/arm-cca/rmm/internal/rmi"
	"github.com/arm-cca/rmm/internal/s2"
)

// RTTMapUnprotected installs a stage-2 mapping for an unprotected IPA
// backed by a non-secure PA, with NS_PAS set (spec.md §4.7). args are
// (rd_realm_id, ipa, level, ns_pa); level is accepted but unused, since
// this translator does not model a multi-level walk (spec.md §9).
func RTTMapUnprotected(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	realmID, ipa, nsPA := args[0], args[1], args[3]

	r, ok := svcs.Registry.Get(realmID)
	if !ok {
		return [4]uint64{rmi.ErrorInput}
	}

	if err := r.Stage2().Map(ipa, nsPA, page.Size, s2.Default.WithNSPAS()); err != nil {
		return [4]uint64{rmi.ErrorInput}
	}

	return [4]uint64{rmi.Success}
}

// RTTInitRipas is stubbed per spec.md §4.7 and §9: the entry point is
// preserved so callers that dispatch this code get a recognized reply,
// but the body does nothing.
func RTTInitRipas(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	return [4]uint64{rmi.Success}
}

// RTTReadEntry is stubbed for the same reason as RTTInitRipas.
func RTTReadEntry(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	return [4]uint64{rmi.Success}
}
