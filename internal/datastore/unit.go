// Package datastore implements the onboard application-data models: a
// Poisson-arrival generator, a bounded queue, and a relay that moves
// received data onto an outbound queue. Grounded on the original
// simulator's models/network/data/genericdata.py (the data-unit value
// type) and models/models_data/modeldatarelay.py (the relay).
package datastore

import (
	"sync/atomic"

	"github.com/orbitfold/constellation-sim/internal/simtime"
)

var globalUnitID atomic.Uint64

// NextUnitID mints a globally monotonic data-unit id, the same per-scope
// counter pattern internal/frame uses for frame ids (spec.md §9).
func NextUnitID() uint64 { return globalUnitID.Add(1) - 1 }

// ResetUnitIDs restarts data-unit ids from zero. The Manager does not call it.
func ResetUnitIDs() { globalUnitID.Store(0) }

// Unit is one application-layer data item, the Go analogue of GenericData:
// a payload's size and provenance, not its bytes (a radio frame's airtime
// depends only on size, so there is nothing to gain from carrying real
// payload bytes through the queue).
type Unit struct {
	ID           uint64
	CreationTime simtime.Time
	SourceNodeID int
	Size         int
}
