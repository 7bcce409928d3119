//go:build windows
// +build windows

// File: osmem/osmem_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows reserve-then-place primitives (Family A) via VirtualAllocExNuma /
// VirtualFreeEx, manually bound through NewLazySystemDLL/NewProc exactly as
// the teacher's pool/numa_windows.go, pool/bufferpool_windows_numa.go and
// internal/concurrency/numa_windows.go do (golang.org/x/sys/windows does not
// wrap VirtualAllocExNuma or QueryWorkingSetEx, so both are bound by hand).
package osmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	memCommit     = 0x00001000
	memReserve    = 0x00002000
	memRelease    = 0x00008000
	memLargePages = 0x20000000
	pageReadWrite = 0x04
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	psapi    = windows.NewLazySystemDLL("psapi.dll")

	procVirtualAllocExNuma = kernel32.NewProc("VirtualAllocExNuma")
	procVirtualFreeEx      = kernel32.NewProc("VirtualFreeEx")
	procQueryWorkingSetEx  = psapi.NewProc("QueryWorkingSetEx")
)

// psapiWorkingSetExInformation mirrors PSAPI_WORKING_SET_EX_INFORMATION.
type psapiWorkingSetExInformation struct {
	VirtualAddress uintptr
	VirtualAttributes uint64
}

// Granularity returns the largest of the system allocation granularity,
// page size, and (if requested) large-page minimum — mirroring
// siloOSMemoryGetGranularity in the original C++ source exactly.
func Granularity(largePages bool) uint64 {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)

	unit := uint64(info.DwAllocationGranularity)
	if uint64(info.DwPageSize) > unit {
		unit = uint64(info.DwPageSize)
	}
	if largePages {
		if lp := getLargePageMinimum(); lp > unit {
			unit = lp
		}
	}
	return unit
}

func getLargePageMinimum() uint64 {
	proc := kernel32.NewProc("GetLargePageMinimum")
	ret, _, _ := proc.Call()
	return uint64(ret)
}

// AllocOnNode allocates size bytes bound to osNode with a single commit call
// and no address hint — used for single-node buffers. The Family A probe
// reservation goes through ReserveProbe instead.
func AllocOnNode(size uint64, osNode int32) (uintptr, error) {
	return allocAt(size, osNode, 0, true, false)
}

// ReserveProbe reserves (does not commit) size bytes anywhere viable, solely
// to obtain a base address for piece-wise hint-address placement.
func ReserveProbe(size uint64, largePages bool) (uintptr, error) {
	return allocAt(size, 0, 0, false, largePages)
}

// AllocAtHint commits size bytes at hint, bound to osNode. Used once per
// piece of a multi-node array after the probe reservation is released.
func AllocAtHint(size uint64, osNode int32, hint uintptr, largePages bool) (uintptr, error) {
	return allocAt(size, osNode, hint, true, largePages)
}

func allocAt(size uint64, osNode int32, hint uintptr, commit bool, largePages bool) (uintptr, error) {
	flags := uintptr(memReserve)
	if commit {
		flags |= memCommit
	}
	if largePages {
		flags |= memLargePages
	}
	hProc := windows.CurrentProcess()
	ret, _, callErr := procVirtualAllocExNuma.Call(
		uintptr(hProc),
		hint,
		uintptr(size),
		flags,
		uintptr(pageReadWrite),
		uintptr(osNode),
	)
	if ret == 0 {
		return 0, fmt.Errorf("osmem: VirtualAllocExNuma(node=%d): %w: %v", osNode, ErrAlloc, callErr)
	}
	return ret, nil
}

// Free releases a buffer previously obtained from this package.
func Free(addr uintptr, _ uint64) {
	if addr == 0 {
		return
	}
	hProc := windows.CurrentProcess()
	procVirtualFreeEx.Call(uintptr(hProc), addr, 0, uintptr(memRelease))
}

// NodeOf resolves the NUMA node currently backing addr via QueryWorkingSetEx,
// forcing residency with one retry if the page is reported not-yet-valid.
func NodeOf(addr uintptr) (int32, error) {
	node, err := queryWorkingSetNode(addr)
	if err == nil {
		return node, nil
	}

	touch(addr)

	node, err = queryWorkingSetNode(addr)
	if err != nil {
		return 0, fmt.Errorf("osmem: %w", ErrNotResident)
	}
	return node, nil
}

func queryWorkingSetNode(addr uintptr) (int32, error) {
	info := psapiWorkingSetExInformation{VirtualAddress: addr}
	hProc := windows.CurrentProcess()
	ret, _, callErr := procQueryWorkingSetEx.Call(
		uintptr(hProc),
		uintptr(unsafe.Pointer(&info)),
		unsafe.Sizeof(info),
	)
	if ret == 0 {
		return 0, fmt.Errorf("osmem: QueryWorkingSetEx: %v", callErr)
	}

	// VirtualAttributes bit layout (PSAPI_WORKING_SET_EX_BLOCK):
	//   bit 0       Valid
	//   bits 1-5    ShareCount
	//   bits 6-10   Win32Protection
	//   bit 11      Shared
	//   bits 12-15  Reserved
	//   bits 16-21  Node
	const validBit = 1 << 0
	const nodeShift = 16
	const nodeMask = 0x3F

	if info.VirtualAttributes&validBit == 0 {
		return 0, fmt.Errorf("osmem: %w", ErrNotResident)
	}
	node := int32((info.VirtualAttributes >> nodeShift) & nodeMask)
	return node, nil
}
