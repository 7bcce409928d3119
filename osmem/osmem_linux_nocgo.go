//go:build linux && !cgo
// +build linux,!cgo

// File: osmem/osmem_linux_nocgo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Degraded Linux fallback for builds with CGO disabled: libnuma is
// unavailable, so allocation ignores the requested node and migration is
// unsupported. Mirrors the teacher's pin_linux_nocgo.go no-op stance for
// CGO-disabled builds.
package osmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func Granularity(largePages bool) uint64 {
	if largePages {
		return 2 << 20
	}
	return uint64(unix.Getpagesize())
}

func AllocOnNode(size uint64, _ int32) (uintptr, error) {
	if size == 0 {
		return 0, fmt.Errorf("osmem: %w: zero size", ErrAlloc)
	}
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		return 0, fmt.Errorf("osmem: mmap: %w", ErrAlloc)
	}
	return uintptr(unsafe.Pointer(&b[0])), nil
}

func Free(addr uintptr, size uint64) {
	if addr == 0 {
		return
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	_ = unix.Munmap(b)
}

func MigrateRange(uintptr, uint64, int32) error {
	return fmt.Errorf("osmem: migrate: %w (cgo disabled)", ErrUnsupported)
}

func AdviseHugePage(addr uintptr, size uint64) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return unix.Madvise(b, unix.MADV_HUGEPAGE)
}

func NodeOf(uintptr) (int32, error) {
	return 0, fmt.Errorf("osmem: node query: %w (cgo disabled)", ErrUnsupported)
}
