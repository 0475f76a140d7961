package rmi

import (
	"github.com/arm-cca/rmm/internal/granule"
	"github.com/arm-cca/rmm/internal/page"
	"github.com/arm-cca/rmm/internal/realm"
	"github.com/arm-cca/rmm/internal/smc"
)

// MM is the monitor's own virtual-memory view, narrowed to what handlers
// need: mapping/unmapping granules (satisfied by granule.MM) plus the
// byte-level read/write DATA_CREATE performs once a page is mapped.
type MM interface {
	granule.MM
	MapRO(pa uint64) error
	ReadPage(pa uint64) ([page.Size]byte, error)
	WritePage(pa uint64, data [page.Size]byte) error
}

// Services bundles the monitor-wide collaborators every handler closes
// over (spec.md §9's "handler value that closes over the monitor's
// service bundle").
type Services struct {
	Granules *granule.Table
	Registry *realm.Registry
	Gateway  smc.Gateway
	MM       MM
}
