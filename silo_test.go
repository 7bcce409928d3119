package silo

import (
	"testing"
	"unsafe"

	"github.com/momentics/silo/topology"
)

func newTestFacade(nodes []int32, current int32) *Facade {
	return New(WithOracle(topology.NewMapOracle(nodes, current)), WithMetrics(false))
}

func TestSimpleAllocFreeRoundTrip(t *testing.T) {
	f := newTestFacade([]int32{0}, 0)

	ptr, err := f.SimpleAlloc(4096, 0)
	if err != nil {
		t.Fatalf("SimpleAlloc failed: %v", err)
	}
	if ptr == nil {
		t.Fatal("SimpleAlloc returned a nil pointer on success")
	}

	if _, err := f.NodeOf(ptr); err != nil {
		t.Fatalf("NodeOf on a live allocation failed: %v", err)
	}

	f.Free(ptr)

	// Freeing again must not panic or double-account: the registry entry
	// is already gone, so this degrades to the foreign-free path.
	f.Free(ptr)
}

func TestSimpleAllocLocal(t *testing.T) {
	f := newTestFacade([]int32{0, 1}, 1)

	ptr, err := f.SimpleAllocLocal(4096)
	if err != nil {
		t.Fatalf("SimpleAllocLocal failed: %v", err)
	}
	defer f.Free(ptr)
}

func TestMultinodeAllocRoundTrip(t *testing.T) {
	f := newTestFacade([]int32{0, 1}, 0)

	ptr, err := f.MultinodeAlloc([]MemorySpec{
		{Size: 4096, NUMANode: 0},
		{Size: 4096, NUMANode: 1},
	})
	if err != nil {
		t.Fatalf("MultinodeAlloc failed: %v", err)
	}
	if ptr == nil {
		t.Fatal("MultinodeAlloc returned a nil pointer on success")
	}
	f.Free(ptr)
}

func TestMultinodeAllocRejectsEmptySpecs(t *testing.T) {
	f := newTestFacade([]int32{0}, 0)

	if _, err := f.MultinodeAlloc(nil); err == nil {
		t.Fatal("MultinodeAlloc(nil) should fail")
	}
}

func TestFreeNilIsNoop(t *testing.T) {
	f := newTestFacade([]int32{0}, 0)
	f.Free(nil) // must not panic
}

func TestFreeForeignPointerIsNoop(t *testing.T) {
	f := newTestFacade([]int32{0}, 0)
	var x int
	f.Free(unsafe.Pointer(&x)) // must not panic, must not touch the registry
}

func TestAllocationUnitSizeIsPositive(t *testing.T) {
	if AllocationUnitSize() == 0 {
		t.Fatal("AllocationUnitSize reported 0")
	}
}

func TestPackageLevelDefaultFacade(t *testing.T) {
	ptr, err := SimpleAlloc(4096, 0)
	if err != nil {
		t.Fatalf("package-level SimpleAlloc failed: %v", err)
	}
	defer Free(ptr)

	if _, err := NodeOf(ptr); err != nil {
		t.Fatalf("package-level NodeOf failed: %v", err)
	}
}
