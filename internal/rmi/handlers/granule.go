package handlers

import (
	"fmt"

	"github.com/arm-cca/rmm/internal/granule"
	"github.com/arm-cca/rmm/internal/page"
	"github.com/arm-cca/rmm/internal/rmi"
	"github.com/arm-cca/rmm/internal/rmmerr"
	"github.com/arm-cca/rmm/internal/rmmlog"
	"github.com/arm-cca/rmm/internal/smc"
)

// GranuleDelegate issues SMC(MarkRealm, pa) and, on firmware success,
// moves the granule at pa from Undelegated to Delegated (spec.md §4.7).
// The firmware return code is surfaced verbatim in ret[0]. Alignment is
// checked before the SMC call so a misaligned pa never marks the
// granule realm-owned in firmware without a corresponding software-side
// transition; if SetState still fails once the SMC has already
// succeeded, the granule table and firmware have diverged, which is the
// broken-invariant case spec.md §7 requires to panic.
func GranuleDelegate(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	pa := args[0]

	if !page.Aligned(pa) {
		return [4]uint64{rmi.ErrorInput}
	}

	ret, err := svcs.Gateway.Call(smc.MarkRealm, [4]uint64{pa})
	if err != nil {
		rmmlog.RMI.WithError(fmt.Errorf("%w: %v", rmmerr.ErrFirmware, err)).
			WithField("pa", pa).Warn("SMC MarkRealm failed")

		return [4]uint64{rmi.RetFail}
	}

	if ret[0] != 0 {
		return [4]uint64{ret[0]}
	}

	if err := svcs.Granules.SetState(pa, granule.Delegated, svcs.MM); err != nil {
		panic(fmt.Errorf("%w: granule at %#x marked realm-owned in firmware but SetState(Delegated) failed: %v",
			rmmerr.ErrInternal, pa, err))
	}

	return [4]uint64{rmi.Success}
}

// GranuleUndelegate issues SMC(MarkNonSecure, pa) and, on firmware
// success, moves the granule at pa from Delegated to Undelegated. See
// GranuleDelegate for the alignment-before-SMC and post-SMC invariant
// discipline.
func GranuleUndelegate(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	pa := args[0]

	if !page.Aligned(pa) {
		return [4]uint64{rmi.ErrorInput}
	}

	ret, err := svcs.Gateway.Call(smc.MarkNonSecure, [4]uint64{pa})
	if err != nil {
		rmmlog.RMI.WithError(fmt.Errorf("%w: %v", rmmerr.ErrFirmware, err)).
			WithField("pa", pa).Warn("SMC MarkNonSecure failed")

		return [4]uint64{rmi.RetFail}
	}

	if ret[0] != 0 {
		return [4]uint64{ret[0]}
	}

	if err := svcs.Granules.SetState(pa, granule.Undelegated, svcs.MM); err != nil {
		panic(fmt.Errorf("%w: granule at %#x marked non-secure in firmware but SetState(Undelegated) failed: %v",
			rmmerr.ErrInternal, pa, err))
	}

	return [4]uint64{rmi.Success}
}
