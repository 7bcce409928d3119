//go:build linux
// +build linux

// File: topology/oracle_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux oracle backed by sysfs, in the style of the pack's
// BabuSrithar-cockroach numa_linux.go (same /sys/devices/system/node walk,
// same nodeN directory-name regexp) plus a raw getcpu(2) syscall
// for the calling thread's current CPU — no cgo/libnuma dependency, unlike
// osmem's allocation path, since this is pure topology discovery.
package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const sysfsNodePath = "/sys/devices/system/node"

var nodeDirRegexp = regexp.MustCompile(`^node(\d+)$`)

func newPlatformOracle() Oracle {
	return &sysfsOracle{root: sysfsNodePath}
}

type sysfsOracle struct {
	root string

	once  sync.Once
	nodes []int32 // sorted OS node ids, index == application node index
	err   error
}

func (o *sysfsOracle) load() {
	o.once.Do(func() {
		entries, err := os.ReadDir(o.root)
		if err != nil {
			// No NUMA sysfs tree: treat the host as single-node.
			o.nodes = []int32{0}
			return
		}

		var ids []int32
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			m := nodeDirRegexp.FindStringSubmatch(e.Name())
			if m == nil {
				continue
			}
			id, convErr := strconv.Atoi(m[1])
			if convErr != nil {
				continue
			}
			ids = append(ids, int32(id))
		}
		if len(ids) == 0 {
			ids = []int32{0}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		o.nodes = ids
	})
}

func (o *sysfsOracle) OSNodeFor(appIndex int) (int32, error) {
	o.load()
	if appIndex < 0 || appIndex >= len(o.nodes) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidNode, appIndex)
	}
	return o.nodes[appIndex], nil
}

func (o *sysfsOracle) CurrentOSNode() (int32, error) {
	o.load()

	var cpuID uint32
	if _, _, errno := unix.RawSyscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpuID)), 0, 0); errno != 0 {
		return 0, fmt.Errorf("%w: getcpu: %v", ErrUnknownCurrentNode, errno)
	}
	cpu := int(cpuID)

	for _, node := range o.nodes {
		inNode, err := cpuInNode(o.root, node, cpu)
		if err == nil && inNode {
			return node, nil
		}
	}
	return 0, fmt.Errorf("%w: cpu %d not found in any node's cpulist", ErrUnknownCurrentNode, cpu)
}

func cpuInNode(root string, node int32, cpu int) (bool, error) {
	path := filepath.Join(root, fmt.Sprintf("node%d", node), "cpulist")
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return cpuListContains(strings.TrimSpace(string(data)), cpu), nil
}

// cpuListContains parses a Linux cpulist ("0-3,8,10-11") and reports
// whether cpu is a member.
func cpuListContains(list string, cpu int) bool {
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			loN, err1 := strconv.Atoi(lo)
			hiN, err2 := strconv.Atoi(hi)
			if err1 == nil && err2 == nil && cpu >= loN && cpu <= hiN {
				return true
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err == nil && n == cpu {
			return true
		}
	}
	return false
}
