// Package scheduling implements the on-board scheduler model (C14):
// picking which peer a satellite hands its next data unit to, either from a
// precomputed per-node schedule or, absent one, from whichever node of the
// configured peer kind is currently in view. Grounded on the original
// simulator's models_scheduling/modeledgecompute.py.
package scheduling

import (
	"github.com/orbitfold/constellation-sim/internal/mac"
	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
	"github.com/orbitfold/constellation-sim/internal/radio"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// Window is one scheduled transmit opportunity: from Start to End, send to
// the node identified by DestinationID. Mirrors the (id, starttime, endtime)
// tuples modeledgecompute.py loads from its schedule file.
type Window struct {
	DestinationID int
	Start         simtime.Time
	End           simtime.Time
}

// EdgeCompute is the scheduler model (ModelEdgeCompute). Each step it holds
// at most one payload pulled from its data source and resends it every step
// until the radio admits the transmission: if Schedule is non-empty, the
// destination is whichever window's [Start, End] contains the current time;
// otherwise it falls back to the first peer FallbackTargets reports visible,
// matching the original's "no schedule: try the ground station in view"
// default.
type EdgeCompute struct {
	model.Base

	ownerNode *node.Node
	device    *radio.Device
	source    mac.DataSource
	schedule  []Window

	resolveRadio    func(nodeID int) (*radio.Device, bool)
	resolveNode     func(nodeID int) (*node.Node, bool)
	fallbackTargets func() []radio.SendTarget

	pending    []byte
	hasPending bool
}

// New constructs an EdgeCompute scheduler. resolveRadio/resolveNode resolve
// a scheduled destination id to its radio device and position; fallbackTargets
// supplies the currently-visible-peer list used when schedule is empty.
func New(
	ownerNode *node.Node,
	device *radio.Device,
	source mac.DataSource,
	schedule []Window,
	resolveRadio func(nodeID int) (*radio.Device, bool),
	resolveNode func(nodeID int) (*node.Node, bool),
	fallbackTargets func() []radio.SendTarget,
) *EdgeCompute {
	e := &EdgeCompute{
		ownerNode:       ownerNode,
		device:          device,
		source:          source,
		schedule:        schedule,
		resolveRadio:    resolveRadio,
		resolveNode:     resolveNode,
		fallbackTargets: fallbackTargets,
	}
	e.Base = model.Base{
		NameValue: "ModelEdgeCompute",
		TagValue:  model.TagScheduler,
		NodeKinds: []string{"SAT"},
		Dependencies: [][]string{
			{"ModelPower"},
			{"ModelDataGenerator", "ModelDataRelay"},
			{"ModelImagingRadio"},
		},
	}
	return e
}

// currentTarget returns the send target for now, or false if neither the
// schedule nor the fallback has a candidate this step.
func (e *EdgeCompute) currentTarget(now simtime.Time) (radio.SendTarget, bool) {
	for _, w := range e.schedule {
		if now.Before(w.Start) || now.After(w.End) {
			continue
		}
		dev, ok := e.resolveRadio(w.DestinationID)
		if !ok {
			continue
		}
		dist := 0.0
		if peer, ok := e.resolveNode(w.DestinationID); ok {
			dist = e.ownerNode.Position(now).DistanceMeters(peer.Position(now))
		}
		return radio.SendTarget{Device: dev, DistanceMeters: dist}, true
	}
	if len(e.schedule) > 0 {
		// A schedule is configured but no window covers now: don't fall
		// back to broadcast, matching the original's in-schedule-only send.
		return radio.SendTarget{}, false
	}
	if e.fallbackTargets == nil {
		return radio.SendTarget{}, false
	}
	targets := e.fallbackTargets()
	if len(targets) == 0 {
		return radio.SendTarget{}, false
	}
	return targets[0], true
}

// Execute pulls a new payload if none is pending, then attempts to send the
// pending payload to this step's target. A send that the radio doesn't
// admit (busy, no channel) leaves the payload pending for the next step.
func (e *EdgeCompute) Execute() error {
	if !e.hasPending {
		if payload, ok := e.source.NextPayload(); ok {
			e.pending = payload
			e.hasPending = true
		}
	}
	if !e.hasPending {
		return nil
	}

	now := e.ownerNode.Timestamp()
	target, ok := e.currentTarget(now)
	if !ok {
		return nil
	}

	res := e.device.Send(now, e.pending, []radio.SendTarget{target})
	if res.OK {
		e.pending = nil
		e.hasPending = false
	}
	return nil
}
