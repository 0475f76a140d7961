package handlers

import "github.com/arm-cca/rmm/internal/rmi"

// VMCreate builds a realm with args[0] VCPUs and replies with its id
// (spec.md §4.7). The realm starts in New, per spec.md §8 scenario 4,
// which exercises DATA_CREATE against a freshly created realm still in
// New. This command set has no explicit activation code (islet's wider
// protocol has RMI_REALM_ACTIVATE; it is not among the codes spec.md §6
// lists for this core), so Realm.SetState(Active) is reached directly by
// whatever drives the realm forward once it is fully populated, not
// through an RMI command this package dispatches.
func VMCreate(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	n := int(args[0])

	r := svcs.Registry.New(n)

	return [4]uint64{rmi.Success, r.ID()}
}

// VMSwitch sets args[1] as the current VCPU on this core, within the
// realm identified by args[0]. Fails if the realm is unknown or not
// Active.
func VMSwitch(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	realmID, vcpuID := args[0], int(args[1])

	r, ok := svcs.Registry.Get(realmID)
	if !ok {
		return [4]uint64{rmi.ErrorInput}
	}

	if err := r.SwitchTo(core, vcpuID); err != nil {
		return [4]uint64{rmi.ErrorInput}
	}

	return [4]uint64{rmi.Success}
}

// VMResume is a no-op placeholder; resumption happens implicitly via
// the mainloop's idle hook exiting to the realm (spec.md §4.7).
func VMResume(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	return [4]uint64{rmi.Success}
}

// VMDestroy removes the realm identified by args[0]; replies 0 on
// success, MAX on not-found (spec.md §4.7, §8).
func VMDestroy(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	if err := svcs.Registry.Remove(args[0]); err != nil {
		return [4]uint64{rmi.Max}
	}

	return [4]uint64{0}
}
