package realm

import (
	"sync"

	"github.com/arm-cca/rmm/internal/rmmerr"
	"github.com/arm-cca/rmm/internal/rmmlog"
	"github.com/arm-cca/rmm/internal/s2"
)

// Registry is the process-wide realm_id -> realm map from spec.md §3 and
// §4.3, grounded on islet's realm::registry (a single lock covering both
// the id counter and a BTreeMap, original_source/rmm/bin/src/realm/registry.rs)
// carried to Go as one sync.Mutex guarding a map, held only for
// lookup/insert/remove and never across a handler body (spec.md §5).
type Registry struct {
	mu     sync.Mutex
	nextID uint64
	realms map[uint64]*Realm
}

// NewRegistry returns an empty registry whose first allocated id is 0.
func NewRegistry() *Registry {
	return &Registry{realms: make(map[uint64]*Realm)}
}

// New allocates the next realm id, builds a stage-2 translator and
// numVCPUs VCPUs for it, and registers the realm. Ids are strictly
// increasing and never reused, even after Remove.
func (reg *Registry) New(numVCPUs int) *Realm {
	reg.mu.Lock()
	id := reg.nextID
	reg.nextID++
	reg.mu.Unlock()

	r := &Realm{
		id:     id,
		state:  New,
		stage2: s2.New(id),
		vcpus:  make([]*VCPU, numVCPUs),
	}

	for i := range r.vcpus {
		r.vcpus[i] = &VCPU{id: i, owner: id, registry: reg}
	}

	reg.mu.Lock()
	reg.realms[id] = r
	reg.mu.Unlock()

	rmmlog.Registry.WithFields(map[string]interface{}{"id": id, "vcpus": numVCPUs}).Info("realm created")

	return r
}

// Get looks up a realm by id.
func (reg *Registry) Get(id uint64) (*Realm, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.realms[id]

	return r, ok
}

// Remove drops the realm from the table. In-flight callers that already
// hold a *Realm keep it alive; new lookups miss immediately.
func (reg *Registry) Remove(id uint64) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.realms[id]; !ok {
		return rmmerr.ErrNotFound
	}

	delete(reg.realms, id)

	rmmlog.Registry.WithField("id", id).Info("realm destroyed")

	return nil
}

// EvictStage2 removes any stage-2 mapping referencing pa from every
// registered realm. DATA_DESTROY uses this to keep a realm from
// retaining a mapping to a granule that has left the Data state.
func (reg *Registry) EvictStage2(pa uint64) {
	reg.mu.Lock()
	realms := make([]*Realm, 0, len(reg.realms))
	for _, r := range reg.realms {
		realms = append(realms, r)
	}
	reg.mu.Unlock()

	for _, r := range realms {
		r.Stage2().UnmapPA(pa)
	}
}
