package radio

import (
	"testing"

	"github.com/orbitfold/constellation-sim/internal/frame"
	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

func TestDeviceModelExecuteRunsUpdateTimestepAtNodeTimestamp(t *testing.T) {
	start, _ := simtime.Parse("2024-01-01 00:00:00")
	end, _ := simtime.Parse("2024-01-01 01:00:00")
	n := node.New("test", 1, 0, node.KindSatellite, start, end, 1)

	device := NewDevice(n.ID, frame.Address{Value: n.ID}, testPhysics(), TopologyBroadcast)
	m := NewDeviceModel("ModelLoraRadio", n, device)

	if m.Name() != "ModelLoraRadio" {
		t.Fatalf("Name() = %q, want ModelLoraRadio", m.Name())
	}
	if m.ModelTag() != model.TagRadio {
		t.Fatalf("ModelTag() = %v, want TagRadio", m.ModelTag())
	}
	if m.Device() != device {
		t.Fatal("Device() should return the wrapped device")
	}
	if err := m.Execute(); err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
}
