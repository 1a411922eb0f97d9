package node

import (
	"testing"

	"github.com/orbitfold/constellation-sim/internal/simtime"
)

func TestTopologyRejectsDuplicateNodeID(t *testing.T) {
	topo := NewTopology("leo", 0)
	start, _ := simtime.Parse("2024-01-01 00:00:00")
	end, _ := simtime.Parse("2024-01-01 01:00:00")
	n1 := New("SatBasic", 1, 0, KindSatellite, start, end, 1)
	n2 := New("SatBasic", 1, 0, KindSatellite, start, end, 1)

	if err := topo.AddNode(n1); err != nil {
		t.Fatalf("first AddNode: %v", err)
	}
	if err := topo.AddNode(n2); err == nil {
		t.Fatalf("expected error adding duplicate node id")
	}
}

func TestNodeAdvanceTracksLockstep(t *testing.T) {
	start, _ := simtime.Parse("2024-01-01 00:00:00")
	end, _ := simtime.Parse("2024-01-01 01:00:00")
	n := New("GSBasic", 1, 0, KindGroundStation, start, end, 2)

	n.Advance()
	if got := n.Timestamp().SinceSeconds(start); got != 2 {
		t.Fatalf("timestamp offset = %v, want 2", got)
	}
}

func TestNodesOfKindFilters(t *testing.T) {
	topo := NewTopology("mixed", 0)
	start, _ := simtime.Parse("2024-01-01 00:00:00")
	end, _ := simtime.Parse("2024-01-01 01:00:00")
	sat := New("SatBasic", 1, 0, KindSatellite, start, end, 1)
	gs := New("GSBasic", 2, 0, KindGroundStation, start, end, 1)
	_ = topo.AddNode(sat)
	_ = topo.AddNode(gs)

	if got := topo.NodesOfKind(KindSatellite); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("NodesOfKind(SAT) = %v, want [sat]", got)
	}
}
