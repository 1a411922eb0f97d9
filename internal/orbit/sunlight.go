package orbit

import (
	"math"
	"time"
)

const earthRadiusMeters = 6378137.0

// sunDirectionECEF returns the unit vector from Earth's center to the Sun,
// expressed in the Earth-fixed (ECEF) frame, at t. It uses the standard
// low-precision solar-coordinates approximation (good to about 0.01 degrees,
// the Astronomical Almanac's "low precision formula"), not an ephemeris
// file: spec.md §1 carves ephemeris files out of scope, and no pack library
// supplies solar position without one (the VSOP87 planetary theory used by
// magnitudespace-smd's HelioOrbitAtJD needs the same class of binary data
// files skyfield does).
func sunDirectionECEF(t time.Time) [3]float64 {
	d := julianDaysSinceJ2000(t)

	meanLongitudeDeg := math.Mod(280.460+0.9856474*d, 360)
	meanAnomalyDeg := math.Mod(357.528+0.9856003*d, 360)
	meanAnomaly := meanAnomalyDeg * math.Pi / 180

	eclipticLonDeg := meanLongitudeDeg + 1.915*math.Sin(meanAnomaly) + 0.020*math.Sin(2*meanAnomaly)
	eclipticLon := eclipticLonDeg * math.Pi / 180
	obliquity := (23.439 - 0.0000004*d) * math.Pi / 180

	sinLon, cosLon := math.Sincos(eclipticLon)
	sinObl, cosObl := math.Sincos(obliquity)

	eci := [3]float64{cosLon, cosObl * sinLon, sinObl * sinLon}
	return rotateZ(eci, -gmstRadians(t))
}

// julianDaysSinceJ2000 returns the (possibly fractional) number of days
// between t and the J2000.0 epoch (2000-01-01 12:00 UTC).
func julianDaysSinceJ2000(t time.Time) float64 {
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	return t.UTC().Sub(j2000).Hours() / 24
}

// gmstRadians returns Greenwich Mean Sidereal Time as an angle in radians,
// via the standard IAU 1982 polynomial. Grounded on the ECI->ECEF rotation
// pattern in other_examples' gnssgo tle.go.go (TlePos builds an R3(gmst)
// rotation matrix from cos/sin(gmst) the same way rotateZ does here).
func gmstRadians(t time.Time) float64 {
	d := julianDaysSinceJ2000(t)
	hours := math.Mod(18.697374558+24.06570982441908*d, 24)
	if hours < 0 {
		hours += 24
	}
	return hours / 24 * 2 * math.Pi
}

// rotateZ rotates v by angle radians about the Z axis.
func rotateZ(v [3]float64, angle float64) [3]float64 {
	s, c := math.Sincos(angle)
	return [3]float64{
		c*v[0] - s*v[1],
		s*v[0] + c*v[1],
		v[2],
	}
}

// sunlitECEF reports whether a point at satECEF (meters, Earth-fixed frame)
// is illuminated, using the cylindrical shadow model: a body is in shadow
// only if it is on the night side of Earth's center AND within the
// Earth-radius cylinder extending away from the Sun. This ignores
// penumbra/antumbra, which is standard for LEO eclipse timing at this
// precision.
func sunlitECEF(satECEF [3]float64, sunDir [3]float64) bool {
	dot := satECEF[0]*sunDir[0] + satECEF[1]*sunDir[1] + satECEF[2]*sunDir[2]
	if dot > 0 {
		return true
	}
	normSq := satECEF[0]*satECEF[0] + satECEF[1]*satECEF[1] + satECEF[2]*satECEF[2]
	perpSq := normSq - dot*dot
	if perpSq < 0 {
		perpSq = 0
	}
	return math.Sqrt(perpSq) > earthRadiusMeters
}
