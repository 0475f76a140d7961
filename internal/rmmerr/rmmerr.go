// Package rmmerr defines the sentinel error kinds shared across the
// monitor, grounded on the teacher's style of package-level sentinel
// errors checked with errors.Is (machine.ErrBadVA, machine.ErrBadCPU, ...).
package rmmerr

import "errors"

// ErrInput indicates bad alignment, an unexpected granule state, an
// unknown realm id, or a realm in the wrong lifecycle state.
var ErrInput = errors.New("rmm: input error")

// ErrFirmware indicates an SMC call into firmware failed with an error.
// A nonzero firmware status word is not wrapped in it; handlers pass
// that word back to the RMI caller as-is.
var ErrFirmware = errors.New("rmm: firmware error")

// ErrInternal indicates a broken invariant. Callers that observe this
// should panic rather than attempt recovery; the hardware and software
// views of granule state have diverged.
var ErrInternal = errors.New("rmm: internal error")

// ErrNotFound indicates a registry or granule-table lookup miss.
var ErrNotFound = errors.New("rmm: not found")
