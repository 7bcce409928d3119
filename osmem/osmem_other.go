//go:build !linux && !windows
// +build !linux,!windows

// File: osmem/osmem_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Degraded fallback for platforms with neither libnuma nor Win32 NUMA
// calls, mirroring the teacher's pool/numa_stub.go: allocation succeeds but
// node binding is not honored, there is exactly one pseudo-node, and
// migration/large-page advice are unsupported.
package osmem

import (
	"fmt"
	"sync"
	"unsafe"
)

var (
	pinMu  sync.Mutex
	pinned = map[uintptr][]byte{}
)

func Granularity(bool) uint64 {
	return 4096
}

func AllocOnNode(size uint64, _ int32) (uintptr, error) {
	if size == 0 {
		return 0, fmt.Errorf("osmem: %w: zero size", ErrAlloc)
	}
	b := make([]byte, size)
	addr := uintptr(unsafe.Pointer(&b[0]))

	pinMu.Lock()
	pinned[addr] = b
	pinMu.Unlock()

	return addr, nil
}

func Free(addr uintptr, _ uint64) {
	pinMu.Lock()
	delete(pinned, addr)
	pinMu.Unlock()
}

func MigrateRange(uintptr, uint64, int32) error {
	return fmt.Errorf("osmem: migrate: %w", ErrUnsupported)
}

func AdviseHugePage(uintptr, uint64) error {
	return fmt.Errorf("osmem: advise: %w", ErrUnsupported)
}

func NodeOf(uintptr) (int32, error) {
	return 0, nil
}
