// Package mm models the monitor's own view of physical memory: the
// address space the monitor itself reads and writes through, as opposed
// to the stage-2 mappings it installs for realms.
//
// Grounded on gokvm's flat guest memory slab (machine.Machine.mem,
// machine.go's ReadAt/WriteAt), generalized from one large always-mapped
// slab to a sparse, page-granular map/unmap discipline: gokvm never
// needed to revoke its own access to a page, but the granule table's
// Delegated transitions do.
package mm

import (
	"sync"

	"github.com/arm-cca/rmm/internal/page"
	"github.com/arm-cca/rmm/internal/rmmerr"
)

type entry struct {
	data     [page.Size]byte
	mapped   bool
	writable bool
}

// FlatView is a sparse, page-addressed simulation of physical memory.
type FlatView struct {
	mu    sync.Mutex
	pages map[uint64]*entry
}

// New returns an empty FlatView.
func New() *FlatView {
	return &FlatView{pages: make(map[uint64]*entry)}
}

func (f *FlatView) getOrCreate(pa uint64) *entry {
	e, ok := f.pages[pa]
	if !ok {
		e = &entry{}
		f.pages[pa] = e
	}

	return e
}

// MapRW maps pa into the monitor's view as readable and writable.
func (f *FlatView) MapRW(pa uint64) error {
	if !page.Aligned(pa) {
		return rmmerr.ErrInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	e := f.getOrCreate(pa)
	e.mapped, e.writable = true, true

	return nil
}

// MapRO maps pa into the monitor's view as read-only.
func (f *FlatView) MapRO(pa uint64) error {
	if !page.Aligned(pa) {
		return rmmerr.ErrInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	e := f.getOrCreate(pa)
	e.mapped, e.writable = true, false

	return nil
}

// Unmap revokes the monitor's own access to pa. The underlying page
// content is left untouched, matching the real hardware: unmapping a
// page from the monitor's own translation tables doesn't erase the
// physical memory behind it.
func (f *FlatView) Unmap(pa uint64) error {
	if !page.Aligned(pa) {
		return rmmerr.ErrInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.pages[pa]; ok {
		e.mapped = false
	}

	return nil
}

// ReadPage returns the contents of pa. It fails if pa is not currently
// mapped into the monitor's view.
func (f *FlatView) ReadPage(pa uint64) ([page.Size]byte, error) {
	if !page.Aligned(pa) {
		return [page.Size]byte{}, rmmerr.ErrInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.pages[pa]
	if !ok || !e.mapped {
		return [page.Size]byte{}, rmmerr.ErrInput
	}

	return e.data, nil
}

// WritePage overwrites the contents of pa. It fails if pa is not
// currently mapped read/write into the monitor's view.
func (f *FlatView) WritePage(pa uint64, data [page.Size]byte) error {
	if !page.Aligned(pa) {
		return rmmerr.ErrInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.pages[pa]
	if !ok || !e.mapped || !e.writable {
		return rmmerr.ErrInput
	}

	e.data = data

	return nil
}

// Poke and Peek bypass the map/unmap discipline entirely: they model
// direct physical memory access, the way a hypervisor writes a source
// page's bytes before ever handing its address to the monitor. Tests use
// them to stage DATA_CREATE scenarios and assert on their outcome.
func (f *FlatView) Poke(pa uint64, data [page.Size]byte) error {
	if !page.Aligned(pa) {
		return rmmerr.ErrInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	e := f.getOrCreate(pa)
	e.data = data

	return nil
}

func (f *FlatView) Peek(pa uint64) ([page.Size]byte, error) {
	if !page.Aligned(pa) {
		return [page.Size]byte{}, rmmerr.ErrInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.pages[pa]
	if !ok {
		return [page.Size]byte{}, rmmerr.ErrNotFound
	}

	return e.data, nil
}
