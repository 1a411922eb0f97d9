package orbit

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestSunlitECEFDirectlySunward(t *testing.T) {
	sat := [3]float64{earthRadiusMeters + 500000, 0, 0}
	sun := [3]float64{1, 0, 0}
	if !sunlitECEF(sat, sun) {
		t.Fatal("satellite on the sunward side should be sunlit regardless of distance")
	}
}

func TestSunlitECEFDirectlyBehindEarth(t *testing.T) {
	sat := [3]float64{-(earthRadiusMeters + 500000), 0, 0}
	sun := [3]float64{1, 0, 0}
	if sunlitECEF(sat, sun) {
		t.Fatal("satellite directly behind Earth from the Sun should be in shadow")
	}
}

func TestSunlitECEFOffAxisEscapesShadow(t *testing.T) {
	r := earthRadiusMeters
	sat := [3]float64{-r, 1.5 * r, 0}
	sun := [3]float64{1, 0, 0}
	if !sunlitECEF(sat, sun) {
		t.Fatal("satellite far enough off the anti-sun axis should clear the shadow cylinder")
	}
}

func TestRotateZQuarterTurn(t *testing.T) {
	got := rotateZ([3]float64{1, 0, 0}, math.Pi/2)
	if !almostEqual(got[0], 0, 1e-9) || !almostEqual(got[1], 1, 1e-9) || !almostEqual(got[2], 0, 1e-9) {
		t.Fatalf("rotateZ((1,0,0), pi/2) = %v, want ~(0,1,0)", got)
	}
}

func TestJulianDaysSinceJ2000AtEpoch(t *testing.T) {
	epoch := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := julianDaysSinceJ2000(epoch); got != 0 {
		t.Fatalf("days at J2000 epoch = %v, want 0", got)
	}
	oneDayLater := epoch.Add(24 * time.Hour)
	if got := julianDaysSinceJ2000(oneDayLater); !almostEqual(got, 1, 1e-9) {
		t.Fatalf("days one day after J2000 = %v, want 1", got)
	}
}

func TestGMSTRadiansInRange(t *testing.T) {
	got := gmstRadians(time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC))
	if got < 0 || got >= 2*math.Pi {
		t.Fatalf("gmstRadians = %v, want in [0, 2pi)", got)
	}
}

func TestSunDirectionECEFIsUnitish(t *testing.T) {
	v := sunDirectionECEF(time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC))
	norm := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if !almostEqual(norm, 1, 1e-3) {
		t.Fatalf("sunDirectionECEF norm = %v, want ~1 (low-precision formula uses unit AU-less trig)", norm)
	}
}
