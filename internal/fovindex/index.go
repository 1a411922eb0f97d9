// Package fovindex implements the shared field-of-view precompute: the
// global table of pass (rise/set) windows per node pair, filled in parallel
// across a node's orbital model. Every read takes the index's read lock,
// also once the table is preloaded.
// Grounded on the original simulator's
// models/models_fov/modelfovtimebased.py, which keeps the same table as a
// pair of class-level (static) dictionaries shared across every node's
// model instance rather than per-node state.
package fovindex

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// Entry is one contact window in a node's pass sequence: the reciprocal of
// model.Pass, carried from the peer's point of view.
type Entry struct {
	Start, End simtime.Time
	PeerID     int
	PeerKind   int
}

// Index is the precomputed, node-keyed table of pass windows. The zero
// value is not usable; construct with New. Safe for concurrent use: writes
// only happen during ComputeFOVs/LoadFOVs, under mu, and readers take the
// read lock so a View call never races a refill.
type Index struct {
	topologies      []*node.Topology
	start, end      simtime.Time
	minElevationDeg float64

	mu        sync.RWMutex
	byNode    map[int][]Entry
	preloaded atomic.Bool
}

// New constructs an Index over every node in topologies. start/end bound
// the pass search horizon (normally the simulation's start/end time) and
// minElevationDeg is the default minimum elevation a pass must clear,
// mirroring modelfovtimebased.py's per-model __minElevation.
func New(topologies []*node.Topology, start, end simtime.Time, minElevationDeg float64) *Index {
	return &Index{
		topologies:      topologies,
		start:           start,
		end:             end,
		minElevationDeg: minElevationDeg,
		byNode:          make(map[int][]Entry),
	}
}

// Preloaded reports whether ComputeFOVs or LoadFOVs has populated the index.
func (x *Index) Preloaded() bool { return x.preloaded.Load() }

// View returns the peer ids of the given kind visible from nodeID at time
// at, the Go analogue of __get_View. Returns nil if the index has not been
// preloaded or the node has no rows.
func (x *Index) View(nodeID int, at simtime.Time, peerKind int) []int {
	x.mu.RLock()
	entries := x.byNode[nodeID]
	x.mu.RUnlock()

	var out []int
	for _, e := range entries {
		if e.PeerKind != peerKind {
			continue
		}
		if at.Before(e.Start) || e.End.Before(at) {
			continue
		}
		out = append(out, e.PeerID)
	}
	return out
}

// Entries returns a copy of nodeID's full pass sequence, sorted by start
// time. Used by the persistence layer and by tests.
func (x *Index) Entries(nodeID int) []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	src := x.byNode[nodeID]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

type nodeEntries struct {
	nodeID  int
	entries []Entry
}

// ComputeFOVs fans the pass search out across numWorkers goroutines, one
// satellite node per unit of work, then merges and sorts the results and
// swaps them in under the write lock. Grounded on spec.md's precompute
// algorithm: satellites are the only side that ever calls GetPasses (a
// stationary ModelFixedOrbit's GetPasses always returns nil, per
// modelfixedorbit.py's API table having no get_Passes entry), so iterating
// satellites alone is both necessary and sufficient to cover every pair.
func (x *Index) ComputeFOVs(ctx context.Context, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}

	var satellites, peers []*node.Node
	for _, t := range x.topologies {
		for _, n := range t.Nodes() {
			if n.Kind == node.KindSatellite {
				satellites = append(satellites, n)
			} else {
				peers = append(peers, n)
			}
		}
	}

	resultsCh := make(chan []nodeEntries, len(satellites))
	sem := make(chan struct{}, numWorkers)
	var wg sync.WaitGroup

	for _, sat := range satellites {
		if ctx.Err() != nil {
			break
		}
		sat := sat
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			resultsCh <- x.computeForSatellite(sat, peers)
		}()
	}
	wg.Wait()
	close(resultsCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	merged := make(map[int][]Entry, len(peers)+len(satellites))
	for partials := range resultsCh {
		for _, p := range partials {
			merged[p.nodeID] = append(merged[p.nodeID], p.entries...)
		}
	}
	for id := range merged {
		sort.Slice(merged[id], func(i, j int) bool {
			return merged[id][i].Start.Before(merged[id][j].Start)
		})
	}

	x.mu.Lock()
	x.byNode = merged
	x.mu.Unlock()
	x.preloaded.Store(true)
	return nil
}

// computeForSatellite asks sat's orbital model for passes against every
// peer and returns the partial rows for both sides of each pair found,
// appended symmetrically per modelfovtimebased.py's __find_Passes (a pass
// discovered from one side is recorded on both).
func (x *Index) computeForSatellite(sat *node.Node, peers []*node.Node) []nodeEntries {
	mdl, ok := sat.HasModelWithTag(model.TagOrbital)
	if !ok {
		return nil
	}
	orbital, ok := mdl.(model.OrbitalAPI)
	if !ok {
		return nil
	}

	satRows := nodeEntries{nodeID: sat.ID}
	out := make([]nodeEntries, 0, len(peers)+1)

	for _, peer := range peers {
		passes := orbital.GetPasses(peer.ID, int(peer.Kind), x.start, x.end, x.minElevationDeg)
		if len(passes) == 0 {
			continue
		}
		peerRows := nodeEntries{nodeID: peer.ID, entries: make([]Entry, 0, len(passes))}
		for _, p := range passes {
			satRows.entries = append(satRows.entries, Entry{
				Start: p.Start, End: p.End, PeerID: peer.ID, PeerKind: int(peer.Kind),
			})
			peerRows.entries = append(peerRows.entries, Entry{
				Start: p.Start, End: p.End, PeerID: sat.ID, PeerKind: int(sat.Kind),
			})
		}
		out = append(out, peerRows)
	}
	out = append(out, satRows)
	return out
}
