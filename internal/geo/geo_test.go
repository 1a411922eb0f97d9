package geo

import "testing"

func TestGeodeticRoundTrip(t *testing.T) {
	p := FromGeodetic(45.0, -93.0, 250.0)
	lat, lon, elev := p.Geodetic()
	if diff := abs(lat - 45.0); diff > 1e-6 {
		t.Fatalf("lat = %v, want ~45", lat)
	}
	if diff := abs(lon + 93.0); diff > 1e-6 {
		t.Fatalf("lon = %v, want ~-93", lon)
	}
	if diff := abs(elev - 250.0); diff > 1e-3 {
		t.Fatalf("elev = %v, want ~250", elev)
	}
}

func TestDistanceMeters(t *testing.T) {
	a := FromECEF(0, 0, 0)
	b := FromECEF(3, 4, 0)
	if got := a.DistanceMeters(b); got != 5 {
		t.Fatalf("distance = %v, want 5", got)
	}
}

func TestElevationAngleOverhead(t *testing.T) {
	ground := FromGeodetic(0, 0, 0)
	overhead := FromGeodetic(0, 0, 500000)
	if got := ground.ElevationAngle(overhead); got < 89 {
		t.Fatalf("elevation = %v, want ~90 for directly overhead satellite", got)
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
