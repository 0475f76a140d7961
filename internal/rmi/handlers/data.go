package handlers

import (
	"github.com/arm-cca/rmm/internal/granule"
	"github.com/arm-cca/rmm/internal/page"
	"github.com/arm-cca/rmm/internal/realm"
	"github.com/arm-cca/rmm/internal/realm/measure"
	"github.com/arm-cca/rmm/internal/rmi"
	"github.com/arm-cca/rmm/internal/rmmlog"
	"github.com/arm-cca/rmm/internal/s2"
)

// DataCreate populates a realm data page (spec.md §4.7). args are
// (target_pa, rd_realm_id, ipa, src_pa). This follows the later, cleaner
// variant of the two DATA_CREATE bookkeeping orders found in the
// original source (monitor/src/rmi/rtt.rs): the granule transitions to
// Data before the source page is ever touched, so a failure partway
// through always has a well-defined granule to roll back.
func DataCreate(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	targetPA, realmID, ipa, srcPA := args[0], args[1], args[2], args[3]

	r, ok := svcs.Registry.Get(realmID)
	if !ok {
		return [4]uint64{rmi.ErrorInput}
	}

	if !r.AtState(realm.New) {
		return [4]uint64{rmi.RetFail}
	}

	if _, err := svcs.Granules.Find(targetPA, granule.Delegated); err != nil {
		return [4]uint64{rmi.ErrorInput}
	}

	if err := svcs.Granules.SetState(targetPA, granule.Data, svcs.MM); err != nil {
		return [4]uint64{rmi.ErrorInput}
	}

	if err := dataCreateBody(svcs, r.Stage2(), targetPA, ipa, srcPA); err != nil {
		rollbackErr := svcs.Granules.SetState(targetPA, granule.Delegated, svcs.MM)
		if rollbackErr != nil {
			rmmlog.RMI.WithError(rollbackErr).WithField("pa", targetPA).
				Warn("DATA_CREATE rollback failed, granule state may be stuck")
		}

		return [4]uint64{rmi.RetFail}
	}

	return [4]uint64{rmi.Success}
}

func dataCreateBody(svcs *rmi.Services, stage2 *s2.Translator, targetPA, ipa, srcPA uint64) error {
	if err := svcs.MM.MapRO(srcPA); err != nil {
		return err
	}

	data, err := svcs.MM.ReadPage(srcPA)
	if err != nil {
		return err
	}

	if err := svcs.MM.WritePage(targetPA, data); err != nil {
		return err
	}

	if err := measure.Measure(stage2.RealmID(), ipa, data); err != nil {
		return err
	}

	if err := stage2.Map(ipa, targetPA, page.Size, s2.Default); err != nil {
		return err
	}

	return svcs.MM.Unmap(srcPA)
}

// DataDestroy transitions the granule at args[0] from Data back to
// Delegated and evicts any stage-2 mapping referencing it (spec.md
// §4.7).
func DataDestroy(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	targetPA := args[0]

	if _, err := svcs.Granules.Find(targetPA, granule.Data); err != nil {
		return [4]uint64{rmi.ErrorInput}
	}

	if err := svcs.Granules.SetState(targetPA, granule.Delegated, svcs.MM); err != nil {
		return [4]uint64{rmi.ErrorInput}
	}

	svcs.Registry.EvictStage2(targetPA)

	return [4]uint64{rmi.Success}
}
