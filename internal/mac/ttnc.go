package mac

import (
	"github.com/orbitfold/constellation-sim/internal/frame"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// DataUnit pairs a queued payload with the id the downlink satellite must
// track it by until a ground station bulk-acks it.
type DataUnit struct {
	ID      uint64
	Payload []byte
}

// DataProvider is the onboard store a TTnC satellite pulls queued data
// units from when a ground station requests a batch.
type DataProvider interface {
	Pull(n int) []DataUnit
}

type ttncState int

const (
	ttncBeaconWait        ttncState = iota // waiting for the beacon timer
	ttncAwaitControlOrAck                  // beaconed, waiting for a control or bulk-ack
	ttncServing                            // transmitting queued units one per step
	ttncConfirming                         // queue drained, send the "sent N" control
)

// DownlinkSatellite is the TTnC (telemetry/tracking and command) downlink
// satellite MAC state machine from spec.md §4.4. Grounded on
// modelmacttnc.py.
type DownlinkSatellite struct {
	NodeID int
	Radio  RadioPort
	Data   DataProvider
	Log    Log

	beaconInterval float64
	nextBeaconAt   simtime.Time

	state ttncState

	servingPeer     int
	pendingQueue    []DataUnit
	unacked         map[uint64][]byte
	sentThisService int
}

// NewDownlinkSatellite constructs a TTnC MAC, beaconing immediately on the
// first step whose time has reached now (the caller picks a start offset).
func NewDownlinkSatellite(nodeID int, radio RadioPort, data DataProvider, beaconIntervalSeconds float64, now simtime.Time) *DownlinkSatellite {
	return &DownlinkSatellite{
		NodeID:         nodeID,
		Radio:          radio,
		Data:           data,
		Log:            nopLog{},
		beaconInterval: beaconIntervalSeconds,
		nextBeaconAt:   now,
		state:          ttncBeaconWait,
		unacked:        make(map[uint64][]byte),
	}
}

// Execute runs one step of the state machine.
func (s *DownlinkSatellite) Execute(now simtime.Time) {
	units := s.decodeReceived()

	switch s.state {
	case ttncBeaconWait:
		if now.After(s.nextBeaconAt) || now.Equal(s.nextBeaconAt) {
			beacon := frame.MACUnit{
				Kind:        frame.MACBeacon,
				CreatedAt:   now,
				SourceRadio: s.NodeID,
				DestRadio:   frame.BroadcastRadioID,
			}
			if wire, err := EncodeUnit(beacon); err == nil {
				s.Radio.Send(now, wire)
			}
			s.nextBeaconAt = now.AddSeconds(s.beaconInterval)
			s.state = ttncAwaitControlOrAck
			s.Log.LogMACEvent(s.NodeID, "beacon-wait", "beacon sent")
		}

	case ttncAwaitControlOrAck:
		for _, u := range units {
			switch u.Kind {
			case frame.MACControl:
				s.beginServing(u)
				return
			case frame.MACBulkAck:
				s.ackReceivedIDs(u.ReceivedIDs)
			}
		}

	case ttncServing:
		if len(s.pendingQueue) == 0 {
			s.state = ttncConfirming
			return
		}
		unit := s.pendingQueue[0]
		dataUnit := frame.MACUnit{
			Kind:        frame.MACData,
			CreatedAt:   now,
			SourceRadio: s.NodeID,
			DestRadio:   s.servingPeer,
			Sequence:    int(unit.ID),
			Data:        unit.Payload,
			Size:        len(unit.Payload),
		}
		wire, err := EncodeUnit(dataUnit)
		if err == nil && s.Radio.Send(now, wire) {
			s.pendingQueue = s.pendingQueue[1:]
			s.sentThisService++
		}
		// Radio busy: stay in ttncServing and retry the same head-of-queue
		// unit next step, per spec.md §4.4's failure semantics.

	case ttncConfirming:
		control := frame.MACUnit{
			Kind:           frame.MACControl,
			CreatedAt:      now,
			SourceRadio:    s.NodeID,
			DestRadio:      s.servingPeer,
			RequestedCount: s.sentThisService,
		}
		if wire, err := EncodeUnit(control); err == nil {
			s.Radio.Send(now, wire)
		}
		s.state = ttncBeaconWait
		s.Log.LogMACEvent(s.NodeID, "confirming", "service complete")
	}

	// Bulk-acks can arrive in any state once a service has started; honor
	// them outside the per-state switch so they aren't missed mid-service.
	if s.state == ttncServing || s.state == ttncConfirming {
		for _, u := range units {
			if u.Kind == frame.MACBulkAck {
				s.ackReceivedIDs(u.ReceivedIDs)
			}
		}
	}
}

func (s *DownlinkSatellite) beginServing(control frame.MACUnit) {
	s.servingPeer = control.SourceRadio
	requested := control.RequestedCount

	// Prior unacked units are retried first, then fresh units are pulled to
	// fill out the remainder of the requested batch.
	var queue []DataUnit
	for id, payload := range s.unacked {
		if len(queue) >= requested {
			break
		}
		queue = append(queue, DataUnit{ID: id, Payload: payload})
	}
	if remaining := requested - len(queue); remaining > 0 {
		queue = append(queue, s.Data.Pull(remaining)...)
	}
	for _, u := range queue {
		s.unacked[u.ID] = u.Payload
	}

	s.pendingQueue = queue
	s.sentThisService = 0
	s.state = ttncServing
}

func (s *DownlinkSatellite) ackReceivedIDs(ids []uint64) {
	for _, id := range ids {
		delete(s.unacked, id)
	}
}

func (s *DownlinkSatellite) decodeReceived() []frame.MACUnit {
	raw := s.Radio.PopReceived()
	units := make([]frame.MACUnit, 0, len(raw))
	for _, b := range raw {
		if u, err := DecodeUnit(b); err == nil {
			units = append(units, u)
		}
	}
	return units
}
