//go:build !linux && !windows
// +build !linux,!windows

// File: arrayalloc/place_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Degraded fallback placement for platforms with no real Family A/B
// primitive: allocates the whole range as one block and reports every
// piece at its offset, without genuine node binding. Mirrors osmem's
// single-pseudo-node stance for this platform class.
package arrayalloc

import (
	"fmt"

	"github.com/momentics/silo/osmem"
	"github.com/momentics/silo/registry"
)

func place(pieces []piece, _ bool) ([]registry.Piece, error) {
	var total uint64
	for _, p := range pieces {
		total += p.size
	}

	base, err := osmem.AllocOnNode(total, pieces[0].osNode)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	out := make([]registry.Piece, len(pieces))
	addr := base
	for i, p := range pieces {
		out[i] = registry.Piece{Base: addr, Size: p.size}
		addr += uintptr(p.size)
	}
	return out, nil
}
