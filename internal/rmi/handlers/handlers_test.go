package handlers_test

import (
	"errors"
	"testing"

	"github.com/arm-cca/rmm/internal/granule"
	"github.com/arm-cca/rmm/internal/mm"
	"github.com/arm-cca/rmm/internal/realm"
	"github.com/arm-cca/rmm/internal/rmi"
	"github.com/arm-cca/rmm/internal/rmi/handlers"
	"github.com/arm-cca/rmm/internal/rmmerr"
	"github.com/arm-cca/rmm/internal/smc"
)

func newServices() *rmi.Services {
	return &rmi.Services{
		Granules: granule.NewTable(),
		Registry: realm.NewRegistry(),
		Gateway:  smc.NewNullGateway(),
		MM:       mm.New(),
	}
}

// TestVersion covers spec.md §8 scenario 1.
func TestVersion(t *testing.T) {
	t.Parallel()

	svcs := newServices()

	ret := handlers.Version(0, svcs, [4]uint64{})
	if ret[0] != rmi.Success || ret[1] != rmi.ABIVersion {
		t.Fatalf("got %v, want (SUCCESS, %d)", ret, rmi.ABIVersion)
	}
}

// TestVMCreateDestroy covers spec.md §8 scenario 2.
func TestVMCreateDestroy(t *testing.T) {
	t.Parallel()

	svcs := newServices()

	ret := handlers.VMCreate(0, svcs, [4]uint64{2})
	if ret[0] != rmi.Success || ret[1] != 0 {
		t.Fatalf("got %v, want (SUCCESS, id=0)", ret)
	}

	ret = handlers.VMCreate(0, svcs, [4]uint64{1})
	if ret[0] != rmi.Success || ret[1] != 1 {
		t.Fatalf("got %v, want (SUCCESS, id=1)", ret)
	}

	ret = handlers.VMDestroy(0, svcs, [4]uint64{0})
	if ret[0] != 0 {
		t.Fatalf("got %v, want 0", ret)
	}

	ret = handlers.VMDestroy(0, svcs, [4]uint64{0})
	if ret[0] != rmi.Max {
		t.Fatalf("got %v, want MAX", ret)
	}
}

// TestGranuleDelegateUndelegateRoundTrip covers spec.md §8 scenario 3.
func TestGranuleDelegateUndelegateRoundTrip(t *testing.T) {
	t.Parallel()

	svcs := newServices()

	pa := uint64(0x4000_0000)

	ret := handlers.GranuleDelegate(0, svcs, [4]uint64{pa})
	if ret[0] != rmi.Success {
		t.Fatalf("delegate: got %v, want SUCCESS", ret)
	}

	if _, err := svcs.Granules.Find(pa, granule.Delegated); err != nil {
		t.Fatalf("expected granule to be Delegated: %v", err)
	}

	ret = handlers.GranuleUndelegate(0, svcs, [4]uint64{pa})
	if ret[0] != rmi.Success {
		t.Fatalf("undelegate: got %v, want SUCCESS", ret)
	}

	if _, err := svcs.Granules.Find(pa, granule.Undelegated); err != nil {
		t.Fatalf("expected granule to be Undelegated: %v", err)
	}
}

// TestDataCreateDestroy covers spec.md §8 scenarios 4 and 5.
func TestDataCreateDestroy(t *testing.T) {
	t.Parallel()

	svcs := newServices()

	target := uint64(0x5000_0000)
	src := uint64(0x6000_0000)
	ipa := uint64(0x1000)

	ret := handlers.VMCreate(0, svcs, [4]uint64{1})
	if ret[0] != rmi.Success {
		t.Fatalf("VMCreate: %v", ret)
	}
	realmID := ret[1]

	if err := svcs.Granules.SetState(target, granule.Delegated, svcs.MM); err != nil {
		t.Fatal(err)
	}

	var srcPage [4096]byte
	for i := range srcPage {
		srcPage[i] = 0xA5
	}

	// The source page's bytes are staged by the hypervisor before the
	// monitor ever touches it; FlatView.Poke models that direct write
	// without going through the monitor's own map/unmap discipline.
	flat, ok := svcs.MM.(interface {
		Poke(uint64, [4096]byte) error
	})
	if !ok {
		t.Fatal("expected MM to support Poke for test staging")
	}

	if err := flat.Poke(src, srcPage); err != nil {
		t.Fatal(err)
	}

	ret = handlers.DataCreate(0, svcs, [4]uint64{target, realmID, ipa, src})
	if ret[0] != rmi.Success {
		t.Fatalf("DataCreate: got %v, want SUCCESS", ret)
	}

	got, err := svcs.MM.ReadPage(target)
	if err != nil {
		t.Fatal(err)
	}

	if got != srcPage {
		t.Fatal("target page does not match source page")
	}

	r, _ := svcs.Registry.Get(realmID)
	if pa, ok := r.Stage2().Lookup(ipa); !ok || pa != target {
		t.Fatalf("got (%x, %v), want (%x, true)", pa, ok, target)
	}

	if _, err := svcs.Granules.Find(target, granule.Data); err != nil {
		t.Fatalf("expected target to be Data: %v", err)
	}

	ret = handlers.DataDestroy(0, svcs, [4]uint64{target})
	if ret[0] != rmi.Success {
		t.Fatalf("DataDestroy: got %v, want SUCCESS", ret)
	}

	if _, err := svcs.Granules.Find(target, granule.Delegated); err != nil {
		t.Fatalf("expected target to return to Delegated: %v", err)
	}

	if _, ok := r.Stage2().Lookup(ipa); ok {
		t.Fatal("expected stage-2 mapping to be evicted by DataDestroy")
	}
}

// TestDataCreateRollsBackOnFailure exercises spec.md §4.7's rollback
// requirement: a handler that mutates granule state then fails must
// restore Delegated.
func TestDataCreateRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	svcs := newServices()

	target := uint64(0x5000_0000)

	ret := handlers.VMCreate(0, svcs, [4]uint64{1})
	realmID := ret[1]

	if err := svcs.Granules.SetState(target, granule.Delegated, svcs.MM); err != nil {
		t.Fatal(err)
	}

	// An aligned src that was never poked would not make the body fail:
	// MapRO creates a zero-filled, mapped entry for it and ReadPage
	// succeeds. Use an odd address instead so MapRO itself fails the
	// alignment check and the body errors out deterministically.
	ret = handlers.DataCreate(0, svcs, [4]uint64{target, realmID, 0x1000, 0x6000_0001})
	if ret[0] != rmi.RetFail {
		t.Fatalf("got %v, want RET_FAIL", ret)
	}

	if _, err := svcs.Granules.Find(target, granule.Delegated); err != nil {
		t.Fatalf("expected rollback to Delegated: %v", err)
	}
}

// TestDataCreateRejectsRealmNotNew covers the RET_FAIL boundary from
// spec.md §8.
func TestDataCreateRejectsRealmNotNew(t *testing.T) {
	t.Parallel()

	svcs := newServices()

	ret := handlers.VMCreate(0, svcs, [4]uint64{1})
	realmID := ret[1]

	r, _ := svcs.Registry.Get(realmID)
	r.SetState(realm.Active)

	target := uint64(0x5000_0000)
	if err := svcs.Granules.SetState(target, granule.Delegated, svcs.MM); err != nil {
		t.Fatal(err)
	}

	ret = handlers.DataCreate(0, svcs, [4]uint64{target, realmID, 0x1000, 0x6000_0000})
	if ret[0] != rmi.RetFail {
		t.Fatalf("got %v, want RET_FAIL for a realm no longer in New", ret)
	}
}

// TestRTTMapUnprotectedIdempotent covers spec.md §8 scenario 6 and the
// idempotence property.
func TestRTTMapUnprotectedIdempotent(t *testing.T) {
	t.Parallel()

	svcs := newServices()

	ret := handlers.VMCreate(0, svcs, [4]uint64{1})
	realmID := ret[1]

	args := [4]uint64{realmID, 0x8000_0000, 3, 0x9000_0000}

	for i := 0; i < 2; i++ {
		ret = handlers.RTTMapUnprotected(0, svcs, args)
		if ret[0] != rmi.Success {
			t.Fatalf("iteration %d: got %v, want SUCCESS", i, ret)
		}
	}

	r, _ := svcs.Registry.Get(realmID)
	if pa, ok := r.Stage2().Lookup(0x8000_0000); !ok || pa != 0x9000_0000 {
		t.Fatalf("got (%x, %v), want (0x90000000, true)", pa, ok)
	}
}

// TestMisalignedAddressesAreInputErrors covers the alignment boundary
// from spec.md §8.
func TestMisalignedAddressesAreInputErrors(t *testing.T) {
	t.Parallel()

	svcs := newServices()

	ret := handlers.GranuleDelegate(0, svcs, [4]uint64{0x4000_0001})
	if ret[0] != rmi.ErrorInput {
		t.Fatalf("got %v, want ERROR_INPUT", ret)
	}
}

// TestMisalignedGranuleDelegateNeverCallsFirmware confirms the
// alignment check runs before the SMC call, so a rejected address never
// leaves the firmware's simulated state marked with no software-side
// record of it.
func TestMisalignedGranuleDelegateNeverCallsFirmware(t *testing.T) {
	t.Parallel()

	svcs := newServices()
	gw := svcs.Gateway.(*smc.NullGateway)

	pa := uint64(0x4000_0001)

	ret := handlers.GranuleDelegate(0, svcs, [4]uint64{pa})
	if ret[0] != rmi.ErrorInput {
		t.Fatalf("got %v, want ERROR_INPUT", ret)
	}

	if gw.IsMarked(pa) {
		t.Fatal("firmware should never see a misaligned address")
	}
}

// TestGranuleUndelegatePanicsOnDivergedInvariant exercises spec.md §7's
// broken-invariant case: the firmware believes a granule is marked
// realm-owned but the granule table disagrees. The handler must panic
// rather than silently return a status word once the SMC has already
// mutated firmware state.
func TestGranuleUndelegatePanicsOnDivergedInvariant(t *testing.T) {
	t.Parallel()

	svcs := newServices()
	gw := svcs.Gateway.(*smc.NullGateway)

	pa := uint64(0x4000_0000)

	// Mark pa in firmware directly, bypassing GranuleDelegate, so the
	// granule table has no record of it (it remains Undelegated).
	if _, err := gw.Call(smc.MarkRealm, [4]uint64{pa}); err != nil {
		t.Fatal(err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected GranuleUndelegate to panic on diverged invariant")
		}

		err, ok := r.(error)
		if !ok || !errors.Is(err, rmmerr.ErrInternal) {
			t.Fatalf("got panic value %v, want an error wrapping ErrInternal", r)
		}
	}()

	handlers.GranuleUndelegate(0, svcs, [4]uint64{pa})
}
