//go:build linux
// +build linux

// File: arrayalloc/place_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Family B placement (allocate-then-migrate): allocate the whole range on
// the first piece's node, then migrate each interior range to its target
// node. Mirrors osmemory-linux.cpp's siloOSMemoryAllocMultiNUMA, plus a
// huge-page advice call on the whole range when large pages are enabled.
package arrayalloc

import (
	"fmt"
	"log"

	"github.com/momentics/silo/metrics"
	"github.com/momentics/silo/osmem"
	"github.com/momentics/silo/registry"
)

func place(pieces []piece, large bool) ([]registry.Piece, error) {
	var total uint64
	for _, p := range pieces {
		total += p.size
	}

	base, err := osmem.AllocOnNode(total, pieces[0].osNode)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	if large {
		if adviseErr := osmem.AdviseHugePage(base, total); adviseErr != nil {
			log.Printf("[arrayalloc] huge page advice failed for base=%#x: %v", base, adviseErr)
		}
	}

	out := make([]registry.Piece, len(pieces))
	addr := base
	for i, p := range pieces {
		out[i] = registry.Piece{Base: addr, Size: p.size}
		if i > 0 {
			if migErr := osmem.MigrateRange(addr, p.size, p.osNode); migErr != nil {
				// Non-fatal: spec.md §4.3/§9 — the buffer stays usable, the
				// affected piece simply remains on the origin node. The
				// caller can observe this later via NodeOf.
				log.Printf("[arrayalloc] migration of piece %d (addr=%#x, node=%d) failed: %v", i, addr, p.osNode, migErr)
				metrics.MigrationFailuresTotal.Inc()
			}
		}
		addr += uintptr(p.size)
	}

	return out, nil
}
