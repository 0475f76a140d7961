package handlers

import "github.com/arm-cca/rmm/internal/rmi"

// Version replies (SUCCESS, ABI_VERSION) unconditionally (spec.md §4.7).
func Version(core int, svcs *rmi.Services, args [4]uint64) [4]uint64 {
	return [4]uint64{rmi.Success, rmi.ABIVersion}
}
