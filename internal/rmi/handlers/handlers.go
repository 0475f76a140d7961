// Package handlers implements the RMI command handlers from spec.md
// §4.7, one file per command family, each registered against an
// rmi.Mainloop by Register.
package handlers

import "github.com/arm-cca/rmm/internal/rmi"

// Register binds every implemented command code to its handler on m.
// RTTInitRipas and RTTReadEntry are bound to stub handlers that reply
// SUCCESS without acting, per spec.md §4.7's note that callers depend on
// the codes being recognized even before the bodies are filled in.
func Register(m *rmi.Mainloop) {
	m.Register(rmi.Version, Version)
	m.Register(rmi.GranuleDelegate, GranuleDelegate)
	m.Register(rmi.GranuleUndelegate, GranuleUndelegate)
	m.Register(rmi.VMCreate, VMCreate)
	m.Register(rmi.VMSwitch, VMSwitch)
	m.Register(rmi.VMResume, VMResume)
	m.Register(rmi.VMDestroy, VMDestroy)
	m.Register(rmi.DataCreate, DataCreate)
	m.Register(rmi.DataDestroy, DataDestroy)
	m.Register(rmi.RTTMapUnprotected, RTTMapUnprotected)
	m.Register(rmi.RTTInitRipas, RTTInitRipas)
	m.Register(rmi.RTTReadEntry, RTTReadEntry)
}
