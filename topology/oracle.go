// File: topology/oracle.go
// Package topology resolves application-visible NUMA node indices to
// OS-specific NUMA node identifiers, and reports the calling thread's
// current OS NUMA node. It is an external collaborator to the allocator,
// not "the core" (see spec §1) — platform bodies stay deliberately small.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package topology

import "errors"

// ErrInvalidNode is returned by OSNodeFor when appIndex has no corresponding
// OS NUMA node on this host.
var ErrInvalidNode = errors.New("topology: invalid application NUMA node index")

// ErrUnknownCurrentNode is returned by CurrentOSNode when the platform
// cannot determine the calling thread's NUMA node.
var ErrUnknownCurrentNode = errors.New("topology: current NUMA node unknown")

// Oracle translates application NUMA indices to OS NUMA identifiers and
// reports the calling thread's current OS NUMA identifier.
type Oracle interface {
	// OSNodeFor resolves a zero-based application NUMA node index to the
	// OS-specific NUMA node identifier, or ErrInvalidNode if unresolvable.
	OSNodeFor(appIndex int) (int32, error)
	// CurrentOSNode reports the OS NUMA node the calling thread is
	// currently running on, or ErrUnknownCurrentNode if undetermined.
	CurrentOSNode() (int32, error)
}

// Default is the process-wide oracle backing the package-level facade
// (see silo.go). Tests do not modify it: they hand a NewMapOracle to a
// separate facade through silo.WithOracle.
var Default Oracle = newPlatformOracle()
