// File: arrayalloc/engine.go
// Package arrayalloc implements the multi-node array allocator: the single
// hard part of this library (spec.md §4.3). It produces one contiguous
// virtual range whose physical backing splits across NUMA nodes at
// caller-specified boundaries, honoring the host's allocation granularity,
// and registers the result so a later single-pointer free can dismantle it.
//
// The orchestration below (validate nodes, choose page regime, round piece
// sizes, cover any rounding shortfall, place, register) is platform-neutral.
// Only the placement step differs by family and lives in place_linux.go
// (Family B, allocate-then-migrate) / place_windows.go (Family A,
// reserve-then-place) / place_other.go (single-pseudo-node fallback).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package arrayalloc

import (
	"errors"
	"fmt"

	"github.com/momentics/silo/metrics"
	"github.com/momentics/silo/osmem"
	"github.com/momentics/silo/registry"
	"github.com/momentics/silo/rounding"
	"github.com/momentics/silo/topology"
)

// MemorySpec describes one piece of a multi-node array. Immutable caller
// input — nothing in this package mutates a caller-supplied slice (see
// spec.md §9, "Caller-spec mutation").
type MemorySpec struct {
	Size     uint64
	NUMANode int
}

// ErrNoSpecs is returned when count == 0.
var ErrNoSpecs = errors.New("arrayalloc: count must be >= 1")

// ErrZeroEffectiveSize is returned when every piece rounds to zero bytes.
var ErrZeroEffectiveSize = errors.New("arrayalloc: all pieces rounded to zero")

// piece is the placement step's working unit: a rounded size bound to an
// OS-resolved NUMA node, before an address has been assigned.
type piece struct {
	size   uint64
	osNode int32
}

// placer is implemented once per OS family in place_linux.go /
// place_windows.go / place_other.go. It receives the already-rounded,
// shortfall-covered pieces and must return the full piece list with
// addresses assigned, or clean up any partial progress itself and return
// an error.
type placer func(pieces []piece, large bool) ([]registry.Piece, error)

// Alloc runs spec.md §4.3 steps 1-8: validate every node through oracle,
// choose the page regime, round and cover the shortfall, place the pieces
// via the platform's family, and register the result in reg.
func Alloc(oracle topology.Oracle, reg *registry.Registry, specs []MemorySpec) (uintptr, error) {
	if len(specs) == 0 {
		return 0, ErrNoSpecs
	}

	// Step 1: validate nodes before any OS call.
	osNodes := make([]int32, len(specs))
	for i, s := range specs {
		n, err := oracle.OSNodeFor(s.NUMANode)
		if err != nil {
			metrics.AllocationFailuresTotal.WithLabelValues("invalid_node").Inc()
			return 0, fmt.Errorf("arrayalloc: spec %d: %w", i, err)
		}
		osNodes[i] = n
	}

	// Step 2: choose page regime from the aggregate request.
	var totalRequested uint64
	for _, s := range specs {
		totalRequested += s.Size
	}
	large := rounding.ShouldAutoEnableLargePages(totalRequested)

	// Step 3: round every piece size.
	pieces := make([]piece, len(specs))
	var totalActual uint64
	for i, s := range specs {
		sz := rounding.RoundSize(s.Size, large)
		pieces[i] = piece{size: sz, osNode: osNodes[i]}
		totalActual += sz
	}

	// Step 4: degenerate guard.
	if totalActual == 0 {
		metrics.AllocationFailuresTotal.WithLabelValues("zero_effective_size").Inc()
		return 0, ErrZeroEffectiveSize
	}

	// Step 5: cover the rounding shortfall on the final piece.
	g := rounding.Granularity(large)
	last := len(pieces) - 1
	for totalActual < totalRequested {
		pieces[last].size += g
		totalActual += g
	}

	// Step 6: family-specific placement.
	placed, err := place(pieces, large)
	if err != nil {
		metrics.AllocationFailuresTotal.WithLabelValues("os_alloc_failed").Inc()
		return 0, fmt.Errorf("arrayalloc: %w", err)
	}

	// Step 7: register. A collision here is unreachable in a sound
	// implementation (see spec.md §7), but must still unwind cleanly.
	rec, err := reg.Submit(placed)
	if err != nil {
		freePieces(placed)
		metrics.AllocationFailuresTotal.WithLabelValues("registry_collision").Inc()
		return 0, fmt.Errorf("arrayalloc: %w", err)
	}

	metrics.AllocationsTotal.WithLabelValues("multinode").Inc()
	for i, p := range placed {
		metrics.AddLiveBytes(osNodes[i], float64(p.Size))
	}

	// Step 8: return the base address.
	return rec.Base(), nil
}

// freePieces releases every piece of an allocation that will not be
// registered (or that must be unwound on partial failure). osmem.Free has
// the same signature on every platform, so this stays platform-neutral.
func freePieces(pieces []registry.Piece) {
	for _, p := range pieces {
		osmem.Free(p.Base, p.Size)
	}
}
