// File: silo.go
// Package silo is the public entry point: a topology-aware NUMA memory
// allocator offering single-node buffer allocation, multi-node array
// allocation with per-range NUMA binding, and single-pointer free (spec.md
// §1, §4.7, §6). It wires the registry, rounding, topology and arrayalloc
// packages behind the small function surface the teacher's own facade
// package exposes over its reactor/transport internals (facade/facade.go)
// — a thin, mostly-delegating layer with its own logging and metrics.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package silo

import (
	"fmt"
	"log"
	"os"
	"unsafe"

	"github.com/momentics/silo/arrayalloc"
	"github.com/momentics/silo/metrics"
	"github.com/momentics/silo/osmem"
	"github.com/momentics/silo/registry"
	"github.com/momentics/silo/rounding"
	"github.com/momentics/silo/topology"
)

// LibraryVersion identifies the ABI-relevant shape of this package's public
// surface. Bump on any breaking change to the functions below.
const LibraryVersion uint32 = 0x00000001

// MemorySpec describes one piece of a multi-node array allocation. Alias of
// arrayalloc.MemorySpec so callers never need to import that package
// directly.
type MemorySpec = arrayalloc.MemorySpec

// Facade bundles a registry, a topology oracle and a logger behind the
// package-level functions below. Most callers never construct one
// directly: the package-level functions operate against def, a
// process-wide instance built when the package is initialized, so no
// explicit init/teardown call is needed.
type Facade struct {
	reg     *registry.Registry
	oracle  topology.Oracle
	logger  *log.Logger
	metrics bool
}

// Option configures a Facade built by New.
type Option func(*Facade)

// WithOracle overrides the topology oracle backing NUMA node resolution.
// Tests use this to substitute topology.NewMapOracle for the real host
// topology.
func WithOracle(o topology.Oracle) Option {
	return func(f *Facade) { f.oracle = o }
}

// WithLogger overrides the logger used for this facade's own diagnostics
// (the untracked-pointer line Free writes). arrayalloc's migration-failure
// lines go through the standard library's default logger and are not
// affected.
func WithLogger(l *log.Logger) Option {
	return func(f *Facade) { f.logger = l }
}

// WithMetrics enables or disables this facade's Prometheus updates in
// SimpleAlloc and Free. Enabled by default. The collectors themselves are
// package-level and registered once, whatever this is set to; the counters
// and live-bytes gauge that MultinodeAlloc updates inside arrayalloc are
// not affected by it.
func WithMetrics(enabled bool) Option {
	return func(f *Facade) { f.metrics = enabled }
}

// New builds a Facade with its own registry, independent of the
// package-level default instance.
func New(opts ...Option) *Facade {
	f := &Facade{
		reg:     registry.New(),
		oracle:  topology.Default,
		logger:  log.New(os.Stderr, "[silo] ", log.LstdFlags),
		metrics: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var def = New()

// AllocationUnitSize reports the host's ordinary allocation granularity in
// bytes (spec.md §4.2). It does not reflect the large-page granularity,
// which is only selected internally once a request crosses the auto-enable
// threshold.
func AllocationUnitSize() uint64 {
	return rounding.Granularity(false)
}

// SimpleAlloc allocates a single buffer of size bytes bound to the given
// application-visible NUMA node index (spec.md §4.1, §4.4). This is a
// single direct call to the OS primitive with no rounding at this layer —
// mirroring original_source/source/silo.cpp's siloSimpleBufferAlloc, which
// calls siloOSMemoryAllocNUMA(size, node) straight through. It deliberately
// does not go through arrayalloc.Alloc: that pipeline rounds every piece
// and fails on a zero-effective-size result, which would spuriously reject
// small-but-valid simple allocations that simple_alloc must accept as-is.
func (f *Facade) SimpleAlloc(size uint64, node int) (unsafe.Pointer, error) {
	osNode, err := f.oracle.OSNodeFor(node)
	if err != nil {
		if f.metrics {
			metrics.AllocationFailuresTotal.WithLabelValues("invalid_node").Inc()
		}
		return nil, fmt.Errorf("silo: simple alloc: %w", err)
	}

	base, err := osmem.AllocOnNode(size, osNode)
	if err != nil {
		if f.metrics {
			metrics.AllocationFailuresTotal.WithLabelValues("os_alloc_failed").Inc()
		}
		return nil, fmt.Errorf("silo: simple alloc: %w", err)
	}

	if _, err := f.reg.Submit([]registry.Piece{{Base: base, Size: size}}); err != nil {
		osmem.Free(base, size)
		if f.metrics {
			metrics.AllocationFailuresTotal.WithLabelValues("registry_collision").Inc()
		}
		return nil, fmt.Errorf("silo: simple alloc: %w", err)
	}

	if f.metrics {
		metrics.AllocationsTotal.WithLabelValues("simple").Inc()
		metrics.AddLiveBytes(osNode, float64(size))
	}
	return unsafe.Pointer(base), nil //nolint:govet // registry-tracked base address
}

// SimpleAllocLocal allocates size bytes on the NUMA node the calling thread
// currently runs on (spec.md §4.1, "local" shorthand).
func (f *Facade) SimpleAllocLocal(size uint64) (unsafe.Pointer, error) {
	osNode, err := f.oracle.CurrentOSNode()
	if err != nil {
		return nil, fmt.Errorf("silo: local alloc: %w", err)
	}
	appIndex, err := appIndexFor(f.oracle, osNode)
	if err != nil {
		return nil, fmt.Errorf("silo: local alloc: %w", err)
	}
	return f.SimpleAlloc(size, appIndex)
}

// MultinodeAlloc allocates one contiguous virtual range whose physical
// backing splits across the NUMA nodes named in specs, in order
// (spec.md §4.3).
func (f *Facade) MultinodeAlloc(specs []MemorySpec) (unsafe.Pointer, error) {
	base, err := arrayalloc.Alloc(f.oracle, f.reg, specs)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(base), nil //nolint:govet // registry-tracked base address
}

// Free releases a buffer previously returned by SimpleAlloc,
// SimpleAllocLocal or MultinodeAlloc. A nil pointer, or a pointer this
// facade never allocated, is a safe no-op: spec.md §4.5/§7 call for this to
// degrade to a traced foreign-free rather than fault, since Go's runtime
// (not this package) ultimately owns the address space outside the
// registry's bookkeeping.
func (f *Facade) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	base := uintptr(ptr)

	rec, ok := f.reg.Retrieve(base)
	if !ok {
		if f.metrics {
			metrics.ForeignFreesTotal.Inc()
		}
		f.logger.Printf("free: %#x is not a tracked allocation, ignoring", base)
		return
	}

	for _, p := range rec.Pieces {
		// Resolve the owning node before releasing the piece: osmem.Free
		// unmaps the range (munmap/numa_free on Linux, MEM_RELEASE on
		// Windows), and NodeOf's forced-fault retry would otherwise
		// dereference already-unmapped memory.
		var node int32
		var nodeErr error
		if f.metrics {
			node, nodeErr = osmem.NodeOf(p.Base)
		}
		osmem.Free(p.Base, p.Size)
		if f.metrics && nodeErr == nil {
			metrics.AddLiveBytes(node, -float64(p.Size))
		}
	}
	f.reg.Erase(base)
	if f.metrics {
		metrics.FreesTotal.Inc()
	}
}

// NodeOf reports the OS NUMA node currently backing the page at ptr
// (spec.md §4.6). ptr need not be a base address returned by an Alloc
// call: any address within a tracked allocation's pieces resolves.
func (f *Facade) NodeOf(ptr unsafe.Pointer) (int32, error) {
	if ptr == nil {
		return 0, fmt.Errorf("silo: NodeOf: nil pointer")
	}
	return osmem.NodeOf(uintptr(ptr))
}

// appIndexFor linearly searches the oracle's application index space for
// the one that maps to osNode. The index space is small (one entry per
// NUMA node on the host), so this stays a plain loop rather than an
// inverse-lookup structure.
func appIndexFor(oracle topology.Oracle, osNode int32) (int, error) {
	for i := 0; i < 256; i++ {
		n, err := oracle.OSNodeFor(i)
		if err != nil {
			break
		}
		if n == osNode {
			return i, nil
		}
	}
	return 0, fmt.Errorf("silo: no application index maps to OS node %d", osNode)
}

// Package-level convenience functions delegate to the process-wide default
// Facade, matching the teacher's package-level wrapper style over its own
// default instances (see facade/facade.go's package-level Dial/Listen).

// SimpleAlloc allocates via the process-wide default Facade.
func SimpleAlloc(size uint64, node int) (unsafe.Pointer, error) {
	return def.SimpleAlloc(size, node)
}

// SimpleAllocLocal allocates via the process-wide default Facade.
func SimpleAllocLocal(size uint64) (unsafe.Pointer, error) {
	return def.SimpleAllocLocal(size)
}

// MultinodeAlloc allocates via the process-wide default Facade.
func MultinodeAlloc(specs []MemorySpec) (unsafe.Pointer, error) {
	return def.MultinodeAlloc(specs)
}

// Free releases via the process-wide default Facade.
func Free(ptr unsafe.Pointer) {
	def.Free(ptr)
}

// NodeOf resolves via the process-wide default Facade.
func NodeOf(ptr unsafe.Pointer) (int32, error) {
	return def.NodeOf(ptr)
}
