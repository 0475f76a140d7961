package granule_test

import (
	"errors"
	"testing"

	"github.com/arm-cca/rmm/internal/granule"
	"github.com/arm-cca/rmm/internal/mm"
	"github.com/arm-cca/rmm/internal/rmmerr"
)

func TestFindUntrackedIsUndelegated(t *testing.T) {
	t.Parallel()

	tbl := granule.NewTable()

	g, err := tbl.Find(0x1000, granule.Undelegated)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if g.State != granule.Undelegated {
		t.Fatalf("got state %v, want Undelegated", g.State)
	}
}

func TestSetStateRoundTrip(t *testing.T) {
	t.Parallel()

	tbl := granule.NewTable()
	view := mm.New()

	if err := tbl.SetState(0x4000_0000, granule.Delegated, view); err != nil {
		t.Fatalf("Delegate: %v", err)
	}

	if _, err := tbl.Find(0x4000_0000, granule.Delegated); err != nil {
		t.Fatalf("Find after delegate: %v", err)
	}

	if err := tbl.SetState(0x4000_0000, granule.Undelegated, view); err != nil {
		t.Fatalf("Undelegate: %v", err)
	}

	if _, err := tbl.Find(0x4000_0000, granule.Undelegated); err != nil {
		t.Fatalf("Find after undelegate: %v", err)
	}
}

func TestSetStateRejectsIllegalTransition(t *testing.T) {
	t.Parallel()

	tbl := granule.NewTable()
	view := mm.New()

	err := tbl.SetState(0x4000_0000, granule.Data, view)
	if !errors.Is(err, rmmerr.ErrInput) {
		t.Fatalf("got %v, want ErrInput", err)
	}
}

func TestSetStateRejectsMisalignedAddress(t *testing.T) {
	t.Parallel()

	tbl := granule.NewTable()
	view := mm.New()

	err := tbl.SetState(0x4000_0001, granule.Delegated, view)
	if !errors.Is(err, rmmerr.ErrInput) {
		t.Fatalf("got %v, want ErrInput", err)
	}
}

func TestSetStateMapsAndUnmapsMM(t *testing.T) {
	t.Parallel()

	tbl := granule.NewTable()
	view := mm.New()

	if err := tbl.SetState(0x1000, granule.Delegated, view); err != nil {
		t.Fatal(err)
	}

	if err := tbl.SetState(0x1000, granule.Data, view); err != nil {
		t.Fatal(err)
	}

	var page [4096]byte
	page[0] = 0xA5

	if err := view.WritePage(0x1000, page); err != nil {
		t.Fatalf("expected write to succeed on a Data granule: %v", err)
	}

	if err := tbl.SetState(0x1000, granule.Delegated, view); err != nil {
		t.Fatal(err)
	}

	if err := view.WritePage(0x1000, page); err == nil {
		t.Fatal("expected write to fail after the granule left Data")
	}
}
