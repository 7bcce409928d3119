package topology

import "testing"

func TestMapOracle(t *testing.T) {
	o := NewMapOracle([]int32{5, 7}, 5)

	got, err := o.OSNodeFor(0)
	if err != nil || got != 5 {
		t.Fatalf("OSNodeFor(0) = (%d, %v), want (5, nil)", got, err)
	}
	got, err = o.OSNodeFor(1)
	if err != nil || got != 7 {
		t.Fatalf("OSNodeFor(1) = (%d, %v), want (7, nil)", got, err)
	}

	if _, err := o.OSNodeFor(2); err != ErrInvalidNode {
		t.Fatalf("OSNodeFor(2) err = %v, want ErrInvalidNode", err)
	}

	cur, err := o.CurrentOSNode()
	if err != nil || cur != 5 {
		t.Fatalf("CurrentOSNode() = (%d, %v), want (5, nil)", cur, err)
	}
}
