//go:build windows
// +build windows

// File: topology/oracle_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows oracle using GetNumaHighestNodeNumber / GetNumaProcessorNode,
// manually bound via NewLazySystemDLL/NewProc in the same style as
// osmem_windows.go and the teacher's pool/numa_windows.go.
package topology

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procGetNumaHighestNodeNumber = kernel32.NewProc("GetNumaHighestNodeNumber")
	procGetNumaProcessorNode     = kernel32.NewProc("GetNumaProcessorNode")
	procGetCurrentProcessorNum   = kernel32.NewProc("GetCurrentProcessorNumber")
)

func newPlatformOracle() Oracle {
	return &winOracle{}
}

type winOracle struct{}

func (winOracle) OSNodeFor(appIndex int) (int32, error) {
	var highest uint32
	ret, _, _ := procGetNumaHighestNodeNumber.Call(uintptr(unsafe.Pointer(&highest)))
	if ret == 0 {
		return 0, fmt.Errorf("%w: GetNumaHighestNodeNumber failed", ErrInvalidNode)
	}
	if appIndex < 0 || uint32(appIndex) > highest {
		return 0, fmt.Errorf("%w: %d", ErrInvalidNode, appIndex)
	}
	return int32(appIndex), nil
}

func (winOracle) CurrentOSNode() (int32, error) {
	cpuRet, _, _ := procGetCurrentProcessorNum.Call()
	var node byte
	ret, _, callErr := procGetNumaProcessorNode.Call(cpuRet, uintptr(unsafe.Pointer(&node)))
	if ret == 0 {
		return 0, fmt.Errorf("%w: GetNumaProcessorNode: %v", ErrUnknownCurrentNode, callErr)
	}
	return int32(node), nil
}
