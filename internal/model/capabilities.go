package model

import "github.com/orbitfold/constellation-sim/internal/simtime"

// Pass is a contact window during which two nodes can see each other,
// as computed by an OrbitalAPI implementation's GetPasses.
type Pass struct {
	Start, End   simtime.Time
	PeerID       int
	PeerKind     int
}

// OrbitalAPI is the narrow capability interface satisfied by orbital
// models (ModelOrbit-equivalents). Spec.md §9 calls for per-tag typed
// capability interfaces in place of the source's name-keyed dispatch;
// this is the one FOV precompute and the power model consult.
type OrbitalAPI interface {
	// InSunlight reports whether the owning node is currently illuminated.
	InSunlight() bool

	// GetPasses returns every contact window against peerNodeID (of
	// peerKind) between start and end at which the peer's elevation as
	// seen from this node is at least minElevationDeg.
	GetPasses(peerNodeID, peerKind int, start, end simtime.Time, minElevationDeg float64) []Pass
}

// PowerAPI is the narrow capability interface satisfied by the power
// model.
type PowerAPI interface {
	ConsumeEnergyForTag(tag string, durationSeconds float64) bool
	ConsumeEnergyJoules(joules float64) bool
	HasEnergy(tag string) bool
	AvailableEnergyJoules() float64
}
