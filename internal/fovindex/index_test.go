package fovindex

import (
	"context"
	"testing"

	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

type fakeOrbital struct {
	model.Base
	passes []model.Pass
}

func newFakeOrbital(passes []model.Pass) *fakeOrbital {
	f := &fakeOrbital{passes: passes}
	f.Base = model.Base{
		NameValue: "FakeOrbital",
		TagValue:  model.TagOrbital,
		NodeKinds: []string{"SAT"},
		APIs:      map[string]model.API{},
	}
	return f
}

func (f *fakeOrbital) InSunlight() bool { return true }

func (f *fakeOrbital) GetPasses(peerNodeID, peerKind int, start, end simtime.Time, minElevationDeg float64) []model.Pass {
	return f.passes
}

func (f *fakeOrbital) Execute() error { return nil }

func newTestNode(id int, kind node.Kind) *node.Node {
	start, _ := simtime.Parse("2026-01-01 00:00:00")
	end, _ := simtime.Parse("2026-01-01 01:00:00")
	return node.New("test", id, 0, kind, start, end, 1)
}

func buildTopology(t *testing.T, sat, gs *node.Node) *node.Topology {
	t.Helper()
	topo := node.NewTopology("t", 0)
	if err := topo.AddNode(sat); err != nil {
		t.Fatalf("AddNode(sat): %v", err)
	}
	if err := topo.AddNode(gs); err != nil {
		t.Fatalf("AddNode(gs): %v", err)
	}
	return topo
}

func TestComputeFOVsPopulatesBothSidesSymmetrically(t *testing.T) {
	start, _ := simtime.Parse("2026-01-01 00:00:00")
	end, _ := simtime.Parse("2026-01-01 00:10:00")
	passStart := start.AddSeconds(60)
	passEnd := start.AddSeconds(120)

	sat := newTestNode(1, node.KindSatellite)
	gs := newTestNode(2, node.KindGroundStation)

	orbital := newFakeOrbital([]model.Pass{
		{Start: passStart, End: passEnd, PeerID: gs.ID, PeerKind: int(node.KindGroundStation)},
	})
	sat.AddModels([]model.Model{orbital})

	topo := buildTopology(t, sat, gs)

	idx := New([]*node.Topology{topo}, start, end, 10)
	if idx.Preloaded() {
		t.Fatal("Preloaded() = true before ComputeFOVs")
	}
	if err := idx.ComputeFOVs(context.Background(), 2); err != nil {
		t.Fatalf("ComputeFOVs: %v", err)
	}
	if !idx.Preloaded() {
		t.Fatal("Preloaded() = false after ComputeFOVs")
	}

	satEntries := idx.Entries(sat.ID)
	if len(satEntries) != 1 || satEntries[0].PeerID != gs.ID {
		t.Fatalf("satellite entries = %+v, want one row for gs", satEntries)
	}
	if !satEntries[0].Start.Equal(passStart) || !satEntries[0].End.Equal(passEnd) {
		t.Fatalf("satellite entry window = %v-%v, want %v-%v", satEntries[0].Start, satEntries[0].End, passStart, passEnd)
	}

	gsEntries := idx.Entries(gs.ID)
	if len(gsEntries) != 1 || gsEntries[0].PeerID != sat.ID {
		t.Fatalf("ground station entries = %+v, want one row for sat", gsEntries)
	}
	if gsEntries[0].PeerKind != int(node.KindSatellite) {
		t.Fatalf("ground station entry peer kind = %v, want satellite", gsEntries[0].PeerKind)
	}
}

func TestViewFiltersByTimeAndKind(t *testing.T) {
	start, _ := simtime.Parse("2026-01-01 00:00:00")
	end, _ := simtime.Parse("2026-01-01 00:10:00")
	passStart := start.AddSeconds(60)
	passEnd := start.AddSeconds(120)

	sat := newTestNode(1, node.KindSatellite)
	gs := newTestNode(2, node.KindGroundStation)
	orbital := newFakeOrbital([]model.Pass{
		{Start: passStart, End: passEnd, PeerID: gs.ID, PeerKind: int(node.KindGroundStation)},
	})
	sat.AddModels([]model.Model{orbital})
	topo := buildTopology(t, sat, gs)

	idx := New([]*node.Topology{topo}, start, end, 10)
	if err := idx.ComputeFOVs(context.Background(), 1); err != nil {
		t.Fatalf("ComputeFOVs: %v", err)
	}

	if peers := idx.View(sat.ID, passStart.AddSeconds(10), int(node.KindGroundStation)); len(peers) != 1 || peers[0] != gs.ID {
		t.Fatalf("View during pass = %v, want [%d]", peers, gs.ID)
	}
	if peers := idx.View(sat.ID, start, int(node.KindGroundStation)); len(peers) != 0 {
		t.Fatalf("View before pass = %v, want none", peers)
	}
	if peers := idx.View(sat.ID, passStart.AddSeconds(10), int(node.KindEndDevice)); len(peers) != 0 {
		t.Fatalf("View with mismatched peer kind = %v, want none", peers)
	}
}

func TestComputeFOVsSkipsNodesWithoutOrbitalModel(t *testing.T) {
	start, _ := simtime.Parse("2026-01-01 00:00:00")
	end, _ := simtime.Parse("2026-01-01 00:10:00")

	sat := newTestNode(1, node.KindSatellite)
	gs := newTestNode(2, node.KindGroundStation)
	topo := buildTopology(t, sat, gs)

	idx := New([]*node.Topology{topo}, start, end, 10)
	if err := idx.ComputeFOVs(context.Background(), 2); err != nil {
		t.Fatalf("ComputeFOVs: %v", err)
	}
	if entries := idx.Entries(sat.ID); len(entries) != 0 {
		t.Fatalf("entries for orbital-less satellite = %v, want none", entries)
	}
}

func TestSaveAndLoadFOVsRoundTrip(t *testing.T) {
	start, _ := simtime.Parse("2026-01-01 00:00:00")
	end, _ := simtime.Parse("2026-01-01 00:10:00")
	passStart := start.AddSeconds(60)
	passEnd := start.AddSeconds(120)

	sat := newTestNode(1, node.KindSatellite)
	gs := newTestNode(2, node.KindGroundStation)
	orbital := newFakeOrbital([]model.Pass{
		{Start: passStart, End: passEnd, PeerID: gs.ID, PeerKind: int(node.KindGroundStation)},
	})
	sat.AddModels([]model.Model{orbital})
	topo := buildTopology(t, sat, gs)

	idx := New([]*node.Topology{topo}, start, end, 10)
	if err := idx.ComputeFOVs(context.Background(), 1); err != nil {
		t.Fatalf("ComputeFOVs: %v", err)
	}

	dbPath := t.TempDir() + "/fov.db"
	if err := idx.SaveFOVs(dbPath); err != nil {
		t.Fatalf("SaveFOVs: %v", err)
	}

	loaded := New([]*node.Topology{topo}, start, end, 10)
	if err := loaded.LoadFOVs(dbPath); err != nil {
		t.Fatalf("LoadFOVs: %v", err)
	}
	if !loaded.Preloaded() {
		t.Fatal("Preloaded() = false after LoadFOVs")
	}

	got := loaded.Entries(sat.ID)
	want := idx.Entries(sat.ID)
	if len(got) != len(want) {
		t.Fatalf("loaded entries = %+v, want %+v", got, want)
	}
	for i := range got {
		if got[i].PeerID != want[i].PeerID || got[i].PeerKind != want[i].PeerKind {
			t.Fatalf("loaded entry %d = %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Fatalf("loaded entry %d window = %v-%v, want %v-%v", i, got[i].Start, got[i].End, want[i].Start, want[i].End)
		}
	}
}
