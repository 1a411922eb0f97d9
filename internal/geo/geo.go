// Package geo implements the Earth-centered Earth-fixed position type and
// the geometry used to decide ground-station visibility.
package geo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// WGS-84 ellipsoid constants.
const (
	semiMajorAxis = 6378137.0
	flattening    = 1 / 298.257223563
)

// Position is an Earth-centered Earth-fixed Cartesian triple in meters.
type Position struct {
	v r3.Vec
}

// FromECEF builds a Position from ECEF coordinates in meters.
func FromECEF(x, y, z float64) Position {
	return Position{v: r3.Vec{X: x, Y: y, Z: z}}
}

// FromGeodetic converts WGS-84 latitude/longitude (degrees) and elevation
// (meters) into an ECEF Position.
func FromGeodetic(latDeg, lonDeg, elevM float64) Position {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	e2 := flattening * (2 - flattening)
	sinLat := math.Sin(lat)
	n := semiMajorAxis / math.Sqrt(1-e2*sinLat*sinLat)

	x := (n + elevM) * math.Cos(lat) * math.Cos(lon)
	y := (n + elevM) * math.Cos(lat) * math.Sin(lon)
	z := (n*(1-e2) + elevM) * sinLat
	return FromECEF(x, y, z)
}

// Geodetic converts the position back to WGS-84 latitude/longitude
// (degrees) and elevation (meters), using Bowring's iterative method.
func (p Position) Geodetic() (latDeg, lonDeg, elevM float64) {
	x, y, z := p.v.X, p.v.Y, p.v.Z
	e2 := flattening * (2 - flattening)
	lon := math.Atan2(y, x)

	p2 := math.Hypot(x, y)
	lat := math.Atan2(z, p2*(1-e2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := semiMajorAxis / math.Sqrt(1-e2*sinLat*sinLat)
		elevM = p2/math.Cos(lat) - n
		lat = math.Atan2(z, p2*(1-e2*n/(n+elevM)))
	}
	sinLat := math.Sin(lat)
	n := semiMajorAxis / math.Sqrt(1-e2*sinLat*sinLat)
	elevM = p2/math.Cos(lat) - n

	return lat * 180 / math.Pi, lon * 180 / math.Pi, elevM
}

// ECEF returns the raw Cartesian coordinates in meters.
func (p Position) ECEF() (x, y, z float64) { return p.v.X, p.v.Y, p.v.Z }

// DistanceMeters returns the Euclidean distance between two positions.
func (p Position) DistanceMeters(other Position) float64 {
	return r3.Norm(r3.Sub(p.v, other.v))
}

// ElevationAngle returns the angle, in degrees, at which observer sees
// target above its local horizon. Negative values mean target is below
// the horizon as seen from observer.
func (observer Position) ElevationAngle(target Position) float64 {
	toTarget := r3.Sub(target.v, observer.v)
	up := r3.Unit(observer.v)
	rangeVec := r3.Unit(toTarget)
	cosZenith := r3.Dot(up, rangeVec)
	zenith := math.Acos(clamp(cosZenith, -1, 1))
	return 90 - zenith*180/math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
