// File: osmem/osmem.go
// Package osmem wraps the platform-specific memory primitives the allocator
// needs: allocation-unit query, node-pinned alloc/free, interior-range
// migration, optional large-page advice, and address-to-node resolution.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concrete bodies live in osmem_linux.go, osmem_linux_nocgo.go,
// osmem_windows.go and osmem_other.go, selected by build tags exactly the
// way the teacher splits pool/numa_linux.go / numa_windows.go / numa_stub.go.
package osmem

import (
	"errors"
	"unsafe"
)

// ErrUnsupported is returned by primitives that have no implementation on
// the current platform/build (e.g. migration without cgo).
var ErrUnsupported = errors.New("osmem: unsupported on this platform/build")

// ErrAlloc is returned when the underlying OS allocation call fails.
var ErrAlloc = errors.New("osmem: allocation failed")

// ErrNotResident is returned by NodeOf when a page's node cannot be
// determined even after the forced-fault retry.
var ErrNotResident = errors.New("osmem: address not resident")

//go:noinline
func consumeByte(b byte) byte {
	// Exists purely so the compiler cannot elide the read-then-write used
	// to page in an unresident address before querying its node.
	return b
}

// touch forces the page containing addr to fault in by reading then
// writing one byte at that address. Used by NodeOf before its retry.
func touch(addr uintptr) {
	p := (*byte)(unsafe.Pointer(addr)) //nolint:govet // deliberate raw-address access
	*p = consumeByte(*p)
}
