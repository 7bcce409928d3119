// File: rounding/rounding.go
// Package rounding implements the platform-independent allocation-size
// rounding policy and large-page auto-enable heuristic. The allocation-unit
// number itself is platform-specific and is delegated to osmem.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package rounding

import "github.com/momentics/silo/osmem"

// largePageThreshold is the aggregate request size, in bytes, at or above
// which large-page support is auto-enabled.
const largePageThreshold = 1 << 20 // 1 MiB

// Granularity returns the OS allocation unit: ordinary page size, or the
// large-page minimum when largePages is requested (whichever governs on
// the current platform).
func Granularity(largePages bool) uint64 {
	return osmem.Granularity(largePages)
}

// RoundSize rounds unrounded to the nearest multiple of the granularity for
// largePages, half-up: quotient q = unrounded/g, remainder r = unrounded%g;
// r >= g/2 rounds up, otherwise down. An input smaller than g/2 rounds to
// zero — a legal intermediate result that the multi-node engine must extend
// to cover the caller's request (see arrayalloc).
func RoundSize(unrounded uint64, largePages bool) uint64 {
	g := Granularity(largePages)
	if g == 0 {
		return unrounded
	}
	q := unrounded / g
	r := unrounded % g
	if r >= g/2 {
		return g * (q + 1)
	}
	return g * q
}

// ShouldAutoEnableLargePages reports whether an allocation of the given
// aggregate size should automatically enable large-page support.
func ShouldAutoEnableLargePages(size uint64) bool {
	return size >= largePageThreshold
}
