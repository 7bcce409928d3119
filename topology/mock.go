// File: topology/mock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package topology

// MapOracle is a test/embedding-friendly Oracle backed by an explicit
// application-index -> OS-node-id map, so multi-node behavior can be
// exercised on single-node development hosts.
type MapOracle struct {
	Nodes   map[int]int32
	Current int32
}

// NewMapOracle builds a MapOracle whose application index i maps to
// OS node nodes[i], with current set as the current-thread node.
func NewMapOracle(nodes []int32, current int32) *MapOracle {
	m := make(map[int]int32, len(nodes))
	for i, n := range nodes {
		m[i] = n
	}
	return &MapOracle{Nodes: m, Current: current}
}

func (o *MapOracle) OSNodeFor(appIndex int) (int32, error) {
	n, ok := o.Nodes[appIndex]
	if !ok {
		return 0, ErrInvalidNode
	}
	return n, nil
}

func (o *MapOracle) CurrentOSNode() (int32, error) {
	return o.Current, nil
}
