package orbit

import (
	"github.com/orbitfold/constellation-sim/internal/geo"
	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// FixedModel is the stationary orbital-position model (ModelFixedOrbit)
// ground stations and end-devices carry. Grounded on
// original_source/src/models/models_orbital/modelfixedorbit.py: a constant
// position and a constant, construction-time sunlit flag (ground equipment
// doesn't eclipse).
type FixedModel struct {
	model.Base

	position geo.Position
	sunlit   bool
}

// NewFixed constructs a stationary orbital model at the given WGS-84
// geodetic position, pinning ownerNode's position to it.
func NewFixed(ownerNode *node.Node, latDeg, lonDeg, altM float64, sunlit bool) *FixedModel {
	m := &FixedModel{
		position: geo.FromGeodetic(latDeg, lonDeg, altM),
		sunlit:   sunlit,
	}
	m.Base = model.Base{
		NameValue: "ModelFixedOrbit",
		TagValue:  model.TagOrbital,
		NodeKinds: []string{"GS", "IoT"},
		APIs: map[string]model.API{
			"in_sunlight":  m.apiInSunlight,
			"get_position": m.apiGetPosition,
		},
	}
	ownerNode.SetFixedPosition(m.position)
	return m
}

// InSunlight implements model.OrbitalAPI.
func (m *FixedModel) InSunlight() bool { return m.sunlit }

// GetPasses implements model.OrbitalAPI. ModelFixedOrbit's Python API
// table has no get_Passes entry at all: only a satellite's orbital model
// is ever asked to find passes, never a stationary peer's.
func (m *FixedModel) GetPasses(peerNodeID, peerKind int, start, end simtime.Time, minElevationDeg float64) []model.Pass {
	return nil
}

func (m *FixedModel) apiInSunlight(args map[string]any) (map[string]any, error) {
	return map[string]any{"sunlit": m.sunlit}, nil
}

func (m *FixedModel) apiGetPosition(args map[string]any) (map[string]any, error) {
	return map[string]any{"position": m.position}, nil
}

// Execute is a no-op: a fixed position never changes.
func (m *FixedModel) Execute() error { return nil }
