// Package measure stands in for the attestation measurement hook that
// DATA_CREATE invokes on every page copied into a realm (spec.md §4.7,
// original_source/rmm/src/rmi/rtt.rs where granule content is folded into
// a running hash before being mapped).
package measure

import "github.com/arm-cca/rmm/internal/page"

// Measure folds one page of realm content into realmID's measurement.
// The monitor does not yet carry a hash accumulator per realm, so this
// is a no-op; DataCreate calls it unconditionally so the accounting hook
// is in the right place once one lands.
//
// TODO: accumulate data into a per-realm running hash (SHA-256 per
// islet's RMI_MEASUREMENT_EXTEND) instead of discarding it.
func Measure(realmID, ipa uint64, data [page.Size]byte) error {
	_ = realmID
	_ = ipa
	_ = data

	return nil
}
