package power

import (
	"testing"

	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

type fakeOrbital struct{ sunlit bool }

func (f fakeOrbital) InSunlight() bool { return f.sunlit }
func (f fakeOrbital) GetPasses(peerNodeID, peerKind int, start, end simtime.Time, minElevationDeg float64) []model.Pass {
	return nil
}

func TestChargesWhileInSunlight(t *testing.T) {
	m := New(Config{
		MaxChargeJoules:     1000,
		MinChargeJoules:     0,
		InitialChargeJoules: 500,
		PowerGenerationW:    10,
		BatteryEfficiency:   1,
		TimestepSeconds:     1,
	}, fakeOrbital{sunlit: true}, nil)

	if err := m.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, want := m.AvailableEnergyJoules(), 510.0; got != want {
		t.Fatalf("charge = %v, want %v", got, want)
	}
}

func TestChargeClampsToMax(t *testing.T) {
	m := New(Config{
		MaxChargeJoules:     1000,
		InitialChargeJoules: 995,
		PowerGenerationW:    10,
		BatteryEfficiency:   1,
		TimestepSeconds:     1,
	}, fakeOrbital{sunlit: true}, nil)
	_ = m.Execute()
	if got := m.AvailableEnergyJoules(); got != 1000 {
		t.Fatalf("charge = %v, want clamped to 1000", got)
	}
}

func TestConsumeEnergyRejectsBelowMinCharge(t *testing.T) {
	m := New(Config{
		MaxChargeJoules:     1000,
		MinChargeJoules:     100,
		InitialChargeJoules: 150,
	}, fakeOrbital{}, nil)

	if !m.ConsumeEnergyJoules(40) {
		t.Fatal("consume 40J from 150J with 100J floor: want granted")
	}
	if got := m.AvailableEnergyJoules(); got != 110 {
		t.Fatalf("charge after consume = %v, want 110", got)
	}
	if m.ConsumeEnergyJoules(40) {
		t.Fatal("consume 40J from 110J with 100J floor: want denied")
	}
	if got := m.AvailableEnergyJoules(); got != 110 {
		t.Fatalf("charge after denied consume = %v, want unchanged 110", got)
	}
}

func TestConsumeEnergyByTagRate(t *testing.T) {
	m := New(Config{
		MaxChargeJoules:     1000,
		InitialChargeJoules: 1000,
		ConsumptionPerTagW:  map[string]float64{"TXRADIO": 2},
	}, fakeOrbital{}, nil)

	if !m.ConsumeEnergyForTag("TXRADIO", 5) {
		t.Fatal("consume TXRADIO for 5s at 2W: want granted")
	}
	if got := m.AvailableEnergyJoules(); got != 990 {
		t.Fatalf("charge = %v, want 990", got)
	}
}

func TestConsumeEnergyUnknownTagDefaultsToZero(t *testing.T) {
	m := New(Config{MaxChargeJoules: 1000, InitialChargeJoules: 1000}, fakeOrbital{}, nil)
	if !m.ConsumeEnergyForTag("MYSTERY", 10) {
		t.Fatal("consume unknown tag: want granted (assumed 0W)")
	}
	if got := m.AvailableEnergyJoules(); got != 1000 {
		t.Fatalf("charge = %v, want unchanged 1000", got)
	}
}

func TestHasEnergyKnownAndUnknownTags(t *testing.T) {
	m := New(Config{
		MaxChargeJoules:      1000,
		MinChargeJoules:      50,
		InitialChargeJoules:  200,
		RequiredEnergyJoules: map[string]float64{"IMAGING": 500},
	}, fakeOrbital{}, nil)

	if m.HasEnergy("IMAGING") {
		t.Fatal("HasEnergy(IMAGING) with 200J<500J required: want false")
	}
	if !m.HasEnergy("TXRADIO") {
		t.Fatal("HasEnergy(unregistered tag) with charge>minCharge: want true")
	}
}

func TestAlwaysOnDrainsEverySte(t *testing.T) {
	m := New(Config{
		MaxChargeJoules:     1000,
		InitialChargeJoules: 1000,
		TimestepSeconds:     1,
		ConsumptionPerTagW:  map[string]float64{"HEATER": 1},
		AlwaysOnTags:        []string{"HEATER"},
	}, fakeOrbital{sunlit: false}, nil)

	for i := 0; i < 3; i++ {
		if err := m.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}
	if got, want := m.AvailableEnergyJoules(), 997.0; got != want {
		t.Fatalf("charge after 3 steps = %v, want %v", got, want)
	}
}
