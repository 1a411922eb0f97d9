// Package orbit implements the two orbital-position capability models
// spec.md §4.2/§9 names: SGP4 propagation and pass-finding for satellites
// (ModelOrbit) and a stationary point in space for ground stations and
// end-devices (ModelFixedOrbit). Grounded on
// original_source/src/models/models_orbital/modelorbit.py and
// modelfixedorbit.py. Propagation itself is delegated to akhenakh/sgp4
// rather than hand-rolled: spec.md §1 treats "concrete orbital/geodetic
// math and the ephemeris files it consults" as an external collaborator,
// and the teacher repository already depends on this library for exactly
// this purpose (internal/predict/tle.go, predict.go).
package orbit

import (
	"fmt"

	"github.com/akhenakh/sgp4"

	"github.com/orbitfold/constellation-sim/internal/geo"
	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// passStepSeconds matches the step the teacher's own ComputePasses call
// uses ("1-second step for precision").
const passStepSeconds = 1

// PeerResolver looks a node up by id, across whatever topology holds it.
// The orchestrator supplies this at construction time so the orbital
// model can turn a peer id (the only thing GetPasses' capability-interface
// signature carries) into an actual position, without the model package
// needing a back-reference to the Manager.
type PeerResolver func(nodeID int) (*node.Node, bool)

// Model is the satellite orbital-propagation model (ModelOrbit).
type Model struct {
	model.Base

	ownerNode   *node.Node
	tle         *sgp4.TLE
	resolvePeer PeerResolver

	cachedAt     simtime.Time
	cachedSunlit bool
	haveCache    bool
}

// New parses tleGroup (a 2- or 3-line TLE group, matching TLEStore's own
// parsing in the teacher repo) and constructs a satellite orbital model,
// wiring its position function onto ownerNode.
func New(ownerNode *node.Node, tleGroup string, resolvePeer PeerResolver) (*Model, error) {
	tle, err := sgp4.ParseTLE(tleGroup)
	if err != nil {
		return nil, fmt.Errorf("orbit: parse TLE: %w", err)
	}
	m := &Model{
		ownerNode:   ownerNode,
		tle:         tle,
		resolvePeer: resolvePeer,
	}
	m.Base = model.Base{
		NameValue: "ModelOrbit",
		TagValue:  model.TagOrbital,
		NodeKinds: []string{"SAT"},
		APIs: map[string]model.API{
			"in_sunlight":  m.apiInSunlight,
			"get_passes":   m.apiGetPasses,
			"get_position": m.apiGetPosition,
		},
	}
	ownerNode.SetPositionFunc(m.positionAt)
	return m, nil
}

// positionAt propagates the TLE to t and returns the satellite's position,
// at its propagated altitude, as an ECEF position. akhenakh/sgp4 hands back WGS-84 geodetic coordinates
// directly (this is a satellite-tracking library; lat/lon/alt is its
// native output), which geo.FromGeodetic converts the rest of the way.
func (m *Model) positionAt(t simtime.Time) geo.Position {
	lat, lon, alt, err := m.tle.Position(t.Std())
	if err != nil {
		return geo.Position{}
	}
	return geo.FromGeodetic(lat, lon, alt)
}

// InSunlight implements model.OrbitalAPI. Unlike the Python original's
// binary-search precompute (needed because skyfield calls are expensive),
// this computes directly for the node's current timestamp: both the SGP4
// propagation and the low-precision solar position are cheap. The result
// is cached for that timestamp only, so repeated calls in one step reuse it.
func (m *Model) InSunlight() bool {
	now := m.ownerNode.Timestamp()
	if m.haveCache && m.cachedAt.Equal(now) {
		return m.cachedSunlit
	}

	pos := m.positionAt(now)
	x, y, z := pos.ECEF()
	satECEF := [3]float64{x, y, z}
	sunDir := sunDirectionECEF(now.Std())

	m.cachedAt = now
	m.cachedSunlit = sunlitECEF(satECEF, sunDir)
	m.haveCache = true
	return m.cachedSunlit
}

// GetPasses implements model.OrbitalAPI: rise/set windows against a
// stationary peer, found by akhenakh/sgp4's own SGP4-backed search
// (mirroring predict.go's ComputePasses: propagate, then drop passes below
// the caller's minimum elevation).
func (m *Model) GetPasses(peerNodeID, peerKind int, start, end simtime.Time, minElevationDeg float64) []model.Pass {
	peer, ok := m.resolvePeer(peerNodeID)
	if !ok {
		return nil
	}
	lat, lon, alt := peer.Position(start).Geodetic()

	rawPasses, err := m.tle.GeneratePasses(lat, lon, alt, start.Std(), end.Std(), passStepSeconds)
	if err != nil {
		return nil
	}

	out := make([]model.Pass, 0, len(rawPasses))
	for _, rp := range rawPasses {
		if rp.MaxElevation < minElevationDeg {
			continue
		}
		out = append(out, model.Pass{
			Start:    simtime.New(rp.AOS),
			End:      simtime.New(rp.LOS),
			PeerID:   peerNodeID,
			PeerKind: peerKind,
		})
	}
	return out
}

func (m *Model) apiInSunlight(args map[string]any) (map[string]any, error) {
	return map[string]any{"sunlit": m.InSunlight()}, nil
}

func (m *Model) apiGetPasses(args map[string]any) (map[string]any, error) {
	peerNodeID, _ := args["peer_node_id"].(int)
	peerKind, _ := args["peer_kind"].(int)
	start, _ := args["start"].(simtime.Time)
	end, _ := args["end"].(simtime.Time)
	minElev, _ := args["min_elevation_deg"].(float64)
	return map[string]any{"passes": m.GetPasses(peerNodeID, peerKind, start, end, minElev)}, nil
}

func (m *Model) apiGetPosition(args map[string]any) (map[string]any, error) {
	t, ok := args["time"].(simtime.Time)
	if !ok {
		t = m.ownerNode.Timestamp()
	}
	return map[string]any{"position": m.positionAt(t)}, nil
}

// Execute computes and caches the sunlight state for this step on every
// step; there is no option to turn this off. Position is not cached: callers
// pull it through node.Position, which propagates on each call.
func (m *Model) Execute() error {
	m.InSunlight()
	return nil
}
