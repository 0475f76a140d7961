package mm_test

import (
	"testing"

	"github.com/arm-cca/rmm/internal/mm"
)

func TestMapRWReadWrite(t *testing.T) {
	t.Parallel()

	view := mm.New()

	if err := view.MapRW(0x2000); err != nil {
		t.Fatal(err)
	}

	var data [4096]byte
	data[10] = 0x42

	if err := view.WritePage(0x2000, data); err != nil {
		t.Fatal(err)
	}

	got, err := view.ReadPage(0x2000)
	if err != nil {
		t.Fatal(err)
	}

	if got != data {
		t.Fatalf("got %v, want %v", got[:16], data[:16])
	}
}

func TestMapROWriteFails(t *testing.T) {
	t.Parallel()

	view := mm.New()

	if err := view.MapRO(0x3000); err != nil {
		t.Fatal(err)
	}

	var data [4096]byte
	if err := view.WritePage(0x3000, data); err == nil {
		t.Fatal("expected write to a read-only page to fail")
	}
}

func TestUnmapThenReadFails(t *testing.T) {
	t.Parallel()

	view := mm.New()

	if err := view.MapRW(0x4000); err != nil {
		t.Fatal(err)
	}

	if err := view.Unmap(0x4000); err != nil {
		t.Fatal(err)
	}

	if _, err := view.ReadPage(0x4000); err == nil {
		t.Fatal("expected read after unmap to fail")
	}
}

func TestPokePeekBypassMapping(t *testing.T) {
	t.Parallel()

	view := mm.New()

	var data [4096]byte
	data[0] = 0xA5

	if err := view.Poke(0x5000, data); err != nil {
		t.Fatal(err)
	}

	got, err := view.Peek(0x5000)
	if err != nil {
		t.Fatal(err)
	}

	if got[0] != 0xA5 {
		t.Fatalf("got %x, want 0xa5", got[0])
	}
}
