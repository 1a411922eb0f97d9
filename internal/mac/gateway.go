package mac

import (
	"math/rand"

	"github.com/orbitfold/constellation-sim/internal/frame"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// Gateway is the gateway satellite MAC state machine from spec.md §4.4: it
// relays inbound data into its local store, acks each packet individually
// on the uplink, and emits a periodic beacon with random jitter on the
// beacon frequency. Grounded on modelmacgateway.py.
type Gateway struct {
	NodeID int
	Uplink RadioPort // relays data + acks
	Beacon RadioPort // broadcasts beacons
	Store  DataSink
	Log    Log

	beaconInterval float64 // seconds, base period B
	beaconJitter   float64 // seconds, extra U(0, B')
	rng            func() float64

	nextBeaconAt simtime.Time
}

// NewGateway constructs a gateway MAC; its first beacon fires at
// construction time plus one jittered interval.
func NewGateway(nodeID int, uplink, beacon RadioPort, store DataSink, intervalSeconds, jitterSeconds float64, now simtime.Time) *Gateway {
	g := &Gateway{
		NodeID:         nodeID,
		Uplink:         uplink,
		Beacon:         beacon,
		Store:          store,
		Log:            nopLog{},
		beaconInterval: intervalSeconds,
		beaconJitter:   jitterSeconds,
		rng:            rand.Float64,
	}
	g.scheduleNextBeacon(now)
	return g
}

func (g *Gateway) scheduleNextBeacon(now simtime.Time) {
	jitter := g.rng() * g.beaconJitter
	g.nextBeaconAt = now.AddSeconds(g.beaconInterval + jitter)
}

// Execute runs one step: relay any inbound data with a per-packet ack, then
// beacon if due.
func (g *Gateway) Execute(now simtime.Time) {
	raw := g.Uplink.PopReceived()
	for _, b := range raw {
		unit, err := DecodeUnit(b)
		if err != nil || unit.Kind != frame.MACData {
			continue
		}
		g.Store.Store(unit.Data, unit.SourceRadio)

		ack := frame.MACUnit{
			Kind:        frame.MACAck,
			CreatedAt:   now,
			SourceRadio: g.NodeID,
			DestRadio:   unit.SourceRadio,
			Sequence:    int(nextSequence()),
			AckedID:     uint64(unit.Sequence),
		}
		if wire, err := EncodeUnit(ack); err == nil {
			g.Uplink.Send(now, wire)
		}
		g.Log.LogMACEvent(g.NodeID, "relaying", "data relayed and acked")
	}

	if now.After(g.nextBeaconAt) || now.Equal(g.nextBeaconAt) {
		beacon := frame.MACUnit{
			Kind:        frame.MACBeacon,
			CreatedAt:   now,
			SourceRadio: g.NodeID,
			DestRadio:   frame.BroadcastRadioID,
		}
		if wire, err := EncodeUnit(beacon); err == nil {
			g.Beacon.Send(now, wire)
		}
		g.scheduleNextBeacon(now)
		g.Log.LogMACEvent(g.NodeID, "beacon", "beacon sent")
	}
}
