//go:build windows
// +build windows

// File: arrayalloc/place_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Family A placement (reserve-then-place): reserve the whole range to
// obtain a viable base address, release the reservation, then commit each
// piece at its predetermined hint address bound to its target node.
// Mirrors osmemory-windows.cpp's siloOSMemoryAllocMultiNUMA exactly,
// including the "probe success does not guarantee per-piece commit
// success" per-piece failure handling spec.md §4.3 calls out explicitly.
package arrayalloc

import (
	"fmt"

	"github.com/momentics/silo/osmem"
	"github.com/momentics/silo/registry"
)

func place(pieces []piece, large bool) ([]registry.Piece, error) {
	var total uint64
	for _, p := range pieces {
		total += p.size
	}

	// Reserve the entire range purely to obtain a viable base address,
	// then immediately release it for piece-wise re-allocation.
	base, err := osmem.ReserveProbe(total, large)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	osmem.Free(base, total)

	out := make([]registry.Piece, 0, len(pieces))
	addr := base
	for _, p := range pieces {
		committed, commitErr := osmem.AllocAtHint(p.size, p.osNode, addr, large)
		if commitErr != nil {
			freePieces(out)
			return nil, fmt.Errorf("%w", commitErr)
		}
		out = append(out, registry.Piece{Base: committed, Size: p.size})
		addr += uintptr(p.size)
	}

	return out, nil
}
