//go:build linux && cgo
// +build linux,cgo

// File: osmem/osmem_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux allocate-then-migrate primitives (Family B) via libnuma/cgo, the
// same binding style as the teacher's pool/numa_linux.go and
// internal/concurrency/affinity_linux.go (both #cgo LDFLAGS: -lnuma).
package osmem

/*
#cgo LDFLAGS: -lnuma
#include <numa.h>
#include <numaif.h>
#include <stdint.h>
#include <errno.h>

static void* go_numa_alloc_onnode(size_t size, int node) {
	return numa_alloc_onnode(size, node);
}

static int go_numa_tonode_memory(void* addr, size_t size, int node) {
	numa_tonode_memory(addr, size, node);
	return 0;
}

static long go_move_pages_query(void* addr, int* status) {
	void* pages[1];
	pages[0] = addr;
	return move_pages(0, 1, pages, NULL, status, 0);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Granularity returns the ordinary page size, or the huge-page size when
// largePages is requested.
func Granularity(largePages bool) uint64 {
	if largePages {
		return hugePageSize()
	}
	return uint64(unix.Getpagesize())
}

// hugePageSize reports the configured Linux transparent/explicit huge page
// size. 2 MiB covers every common x86_64/arm64 deployment this module
// targets; a more elaborate implementation would parse
// /sys/kernel/mm/hugepages, which is out of scope here.
func hugePageSize() uint64 {
	const defaultHugePageSize = 2 << 20
	return defaultHugePageSize
}

// AllocOnNode allocates size bytes bound to osNode, via numa_alloc_onnode.
func AllocOnNode(size uint64, osNode int32) (uintptr, error) {
	if size == 0 {
		return 0, fmt.Errorf("osmem: %w: zero size", ErrAlloc)
	}
	ptr := C.go_numa_alloc_onnode(C.size_t(size), C.int(osNode))
	if ptr == nil {
		return 0, fmt.Errorf("osmem: numa_alloc_onnode(node=%d): %w", osNode, ErrAlloc)
	}
	return uintptr(ptr), nil
}

// Free releases a buffer previously obtained from AllocOnNode.
func Free(addr uintptr, size uint64) {
	if addr == 0 {
		return
	}
	C.numa_free(unsafe.Pointer(addr), C.size_t(size)) //nolint:govet
}

// MigrateRange moves an already-allocated interior range onto osNode.
// libnuma's numa_tonode_memory reports no failure signal of its own; the
// caller is expected to observe success later via NodeOf (see spec §7,
// "migration failures ... are not treated as fatal to the call").
func MigrateRange(addr uintptr, size uint64, osNode int32) error {
	if addr == 0 || size == 0 {
		return fmt.Errorf("osmem: migrate: %w", ErrAlloc)
	}
	C.go_numa_tonode_memory(unsafe.Pointer(addr), C.size_t(size), C.int(osNode)) //nolint:govet
	return nil
}

// AdviseHugePage opportunistically requests transparent huge page backing
// for [addr, addr+size). Failure is non-fatal: it only affects performance.
func AdviseHugePage(addr uintptr, size uint64) error {
	if addr == 0 || size == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size) //nolint:govet
	return unix.Madvise(b, unix.MADV_HUGEPAGE)
}

// NodeOf resolves the OS NUMA node currently backing addr, forcing page
// residency with one retry if the kernel reports the page as unfaulted.
func NodeOf(addr uintptr) (int32, error) {
	node, err := queryNode(addr)
	if err == nil {
		return node, nil
	}

	touch(addr)

	node, err = queryNode(addr)
	if err != nil {
		return 0, fmt.Errorf("osmem: %w", ErrNotResident)
	}
	return node, nil
}

func queryNode(addr uintptr) (int32, error) {
	var status C.int
	ret := C.go_move_pages_query(unsafe.Pointer(addr), &status) //nolint:govet
	if ret != 0 {
		return 0, fmt.Errorf("osmem: move_pages failed")
	}
	if status < 0 {
		// Negative status values are -errno (e.g. -EFAULT for an unfaulted page).
		return 0, fmt.Errorf("osmem: move_pages status %d", int(status))
	}
	return int32(status), nil
}
