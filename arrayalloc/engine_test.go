package arrayalloc

import (
	"testing"

	"github.com/momentics/silo/registry"
	"github.com/momentics/silo/rounding"
	"github.com/momentics/silo/topology"
)

func TestAllocRejectsEmptySpecs(t *testing.T) {
	oracle := topology.NewMapOracle([]int32{0}, 0)
	reg := registry.New()

	if _, err := Alloc(oracle, reg, nil); err != ErrNoSpecs {
		t.Fatalf("Alloc(nil specs) = %v, want ErrNoSpecs", err)
	}
}

func TestAllocRejectsInvalidNodeBeforeAnyOSCall(t *testing.T) {
	oracle := topology.NewMapOracle([]int32{0}, 0) // only app index 0 is valid
	reg := registry.New()

	specs := []MemorySpec{{Size: 4096, NUMANode: 999}}
	if _, err := Alloc(oracle, reg, specs); err == nil {
		t.Fatal("Alloc with an unresolvable NUMA node should fail")
	}
	if reg.Len() != 0 {
		t.Fatal("a rejected allocation must not touch the registry")
	}
}

func TestAllocRejectsZeroEffectiveSize(t *testing.T) {
	oracle := topology.NewMapOracle([]int32{0, 0, 0}, 0)
	reg := registry.New()

	g := rounding.Granularity(false)
	tiny := g/2 - 1 // every piece rounds to zero

	specs := []MemorySpec{
		{Size: tiny, NUMANode: 0},
		{Size: tiny, NUMANode: 1},
		{Size: tiny, NUMANode: 2},
	}
	if _, err := Alloc(oracle, reg, specs); err == nil {
		t.Fatal("Alloc where every piece rounds to zero should fail")
	}
	if reg.Len() != 0 {
		t.Fatal("a zero-effective-size allocation must not touch the registry")
	}
}

func TestAllocSingleNodeHappyPath(t *testing.T) {
	oracle := topology.NewMapOracle([]int32{0}, 0)
	reg := registry.New()

	specs := []MemorySpec{{Size: 8192, NUMANode: 0}}
	base, err := Alloc(oracle, reg, specs)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if base == 0 {
		t.Fatal("Alloc returned a zero base on success")
	}

	rec, ok := reg.Retrieve(base)
	if !ok {
		t.Fatal("successful Alloc left no registry entry")
	}
	if len(rec.Pieces) != 1 {
		t.Fatalf("single-spec Alloc produced %d pieces, want 1", len(rec.Pieces))
	}
	if rec.Pieces[0].Size < specs[0].Size {
		t.Fatalf("piece size %d undershoots requested size %d", rec.Pieces[0].Size, specs[0].Size)
	}

	freePieces(rec.Pieces)
	reg.Erase(base)
}

func TestAllocAdjacentPieces(t *testing.T) {
	oracle := topology.NewMapOracle([]int32{0, 0}, 0)
	reg := registry.New()

	specs := []MemorySpec{
		{Size: 4096, NUMANode: 0},
		{Size: 4096, NUMANode: 1},
	}
	base, err := Alloc(oracle, reg, specs)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}

	rec, ok := reg.Retrieve(base)
	if !ok {
		t.Fatal("successful Alloc left no registry entry")
	}
	for i := 0; i+1 < len(rec.Pieces); i++ {
		want := rec.Pieces[i].Base + uintptr(rec.Pieces[i].Size)
		if rec.Pieces[i+1].Base != want {
			t.Fatalf("piece %d not adjacent to piece %d: %#x + %d != %#x",
				i, i+1, rec.Pieces[i].Base, rec.Pieces[i].Size, rec.Pieces[i+1].Base)
		}
	}

	freePieces(rec.Pieces)
	reg.Erase(base)
}
