package mac

import (
	"github.com/orbitfold/constellation-sim/internal/frame"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

type groundState int

const (
	groundListenBeacon groundState = iota
	groundRequest
	groundReceive
	groundTimeout
)

// GroundStation is the ground-station MAC state machine from spec.md §4.4.
// Grounded on modelmacgs.py.
type GroundStation struct {
	NodeID int
	Radio  RadioPort
	Store  DataSink
	Log    Log

	requestCount  int     // N packets requested per batch
	inactivity    float64 // seconds of silence before a bulk-ack fires early

	state         groundState
	servingPeer   int
	receivedIDs   []uint64
	lastActivity  simtime.Time
}

// NewGroundStation constructs a ground-station MAC, starting in
// groundListenBeacon.
func NewGroundStation(nodeID int, radio RadioPort, store DataSink, requestCount int, inactivityTimeoutSeconds float64) *GroundStation {
	return &GroundStation{
		NodeID:     nodeID,
		Radio:      radio,
		Store:      store,
		Log:        nopLog{},
		requestCount: requestCount,
		inactivity: inactivityTimeoutSeconds,
		state:      groundListenBeacon,
	}
}

// Execute runs one step of the state machine.
func (g *GroundStation) Execute(now simtime.Time) {
	units := g.decodeReceived()

	switch g.state {
	case groundListenBeacon:
		for _, u := range units {
			if u.Kind == frame.MACBeacon {
				g.servingPeer = u.SourceRadio
				g.state = groundRequest
				break
			}
		}

	case groundRequest:
		control := frame.MACUnit{
			Kind:           frame.MACControl,
			CreatedAt:      now,
			SourceRadio:    g.NodeID,
			DestRadio:      g.servingPeer,
			Sequence:       int(nextSequence()),
			RequestedCount: g.requestCount,
		}
		if wire, err := EncodeUnit(control); err == nil && g.Radio.Send(now, wire) {
			g.receivedIDs = nil
			g.lastActivity = now
			g.state = groundReceive
			g.Log.LogMACEvent(g.NodeID, "request", "control sent")
		}
		// Radio busy: stay in groundRequest and retry next step.

	case groundReceive:
		terminal := false
		for _, u := range units {
			switch u.Kind {
			case frame.MACData:
				g.receivedIDs = append(g.receivedIDs, uint64(u.Sequence))
				g.Store.Store(u.Data, u.SourceRadio)
				g.lastActivity = now
			case frame.MACControl:
				// A second control from the satellite ("sent N") is
				// terminal for this service.
				terminal = true
			}
		}

		if terminal {
			g.state = groundTimeout
			return
		}
		if now.SinceSeconds(g.lastActivity) > g.inactivity {
			g.state = groundTimeout
		}

	case groundTimeout:
		bulkAck := frame.MACUnit{
			Kind:        frame.MACBulkAck,
			CreatedAt:   now,
			SourceRadio: g.NodeID,
			DestRadio:   g.servingPeer,
			ReceivedIDs: g.receivedIDs,
		}
		if wire, err := EncodeUnit(bulkAck); err == nil {
			g.Radio.Send(now, wire)
		}
		g.state = groundListenBeacon
		g.Log.LogMACEvent(g.NodeID, "timeout", "bulk-ack sent, returning to beacon listening")
	}
}

func (g *GroundStation) decodeReceived() []frame.MACUnit {
	raw := g.Radio.PopReceived()
	units := make([]frame.MACUnit, 0, len(raw))
	for _, b := range raw {
		if u, err := DecodeUnit(b); err == nil {
			units = append(units, u)
		}
	}
	return units
}
