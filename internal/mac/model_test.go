package mac

import (
	"testing"

	"github.com/orbitfold/constellation-sim/internal/frame"
	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

func newModelTestNode(kind node.Kind) *node.Node {
	start, _ := simtime.Parse("2024-01-01 00:00:00")
	end, _ := simtime.Parse("2024-01-01 01:00:00")
	return node.New("test", 1, 0, kind, start, end, 1)
}

func TestEndDeviceModelExecutesAtNodeTimestamp(t *testing.T) {
	n := newModelTestNode(node.KindEndDevice)
	r := newFakeRadio()
	src := &fakeDataSource{queue: [][]byte{[]byte("hello")}}
	sm := NewEndDevice(n.ID, src, r, 0, 10)
	sm.rng = func() float64 { return 0 }

	m := NewEndDeviceModel(n, sm)
	if m.Name() != "ModelMACIot" {
		t.Fatalf("Name() = %q, want ModelMACIot", m.Name())
	}
	if m.ModelTag() != model.TagMAC {
		t.Fatalf("ModelTag() = %v, want TagMAC", m.ModelTag())
	}
	if err := m.Execute(); err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if sm.state != iotAwaitBeacon {
		t.Fatalf("state after Execute = %v, want iotAwaitBeacon", sm.state)
	}
}

func TestGatewayModelExecutesAtNodeTimestamp(t *testing.T) {
	n := newModelTestNode(node.KindSatellite)
	uplink := newFakeRadio()
	beacon := newFakeRadio()
	sink := &fakeSink{}
	sm := NewGateway(n.ID, uplink, beacon, sink, 60, 10, n.Timestamp())

	m := NewGatewayModel(n, sm)
	if err := m.Execute(); err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if m.ModelTag() != model.TagMAC {
		t.Fatalf("ModelTag() = %v, want TagMAC", m.ModelTag())
	}
}

func TestDownlinkSatelliteModelExecutesAtNodeTimestamp(t *testing.T) {
	n := newModelTestNode(node.KindSatellite)
	r := newFakeRadio()
	provider := &fakeProvider{units: []DataUnit{{ID: 1, Payload: []byte("a")}}}
	sm := NewDownlinkSatellite(n.ID, r, provider, 60, n.Timestamp())

	m := NewDownlinkSatelliteModel(n, sm)
	if err := m.Execute(); err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if len(r.sent) != 1 {
		t.Fatalf("beacons sent = %d, want 1", len(r.sent))
	}
}

func TestGroundStationModelExecutesAtNodeTimestamp(t *testing.T) {
	n := newModelTestNode(node.KindGroundStation)
	r := newFakeRadio()
	sink := &fakeSink{}
	sm := NewGroundStation(n.ID, r, sink, 2, 5)

	m := NewGroundStationModel(n, sm)
	if m.ModelTag() != model.TagMAC {
		t.Fatalf("ModelTag() = %v, want TagMAC", m.ModelTag())
	}

	r.deliver(frame.MACUnit{Kind: frame.MACBeacon, SourceRadio: 7})
	if err := m.Execute(); err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if sm.state != groundRequest {
		t.Fatalf("state = %v, want groundRequest", sm.state)
	}
}
