package mac

import (
	"math/rand"

	"github.com/orbitfold/constellation-sim/internal/frame"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// iotState numbers the end-device state machine exactly as
// modelmaciot.py's Execute comments enumerate them, so a reader diffing
// against the original can follow along state-for-state.
type iotState int

const (
	iotAwaitingData      iotState = 1 // no data queued, asking generator each step
	iotAwaitBeacon       iotState = 2 // data ready, tuned to beacon frequency
	iotBackoffPending    iotState = 3 // beacon seen, about to choose a backoff
	iotBackoff           iotState = 4 // counting down a chosen backoff
	iotSending           iotState = 5 // backoff expired, transmitting now
	iotAwaitAck          iotState = 6 // sent, waiting for a matching ack
)

// EndDevice is the IoT end-device MAC state machine from spec.md §4.4.
type EndDevice struct {
	NodeID int
	Data   DataSource
	Radio  RadioPort
	Log    Log

	backoffMax     float64 // seconds, U(0, backoffMax)
	retransmitTime float64 // seconds before an unacked send is retried
	rng            func() float64

	state          iotState
	pendingPayload []byte
	backoffUntil   simtime.Time
	sentID         uint64
	ackDeadline    simtime.Time
}

// NewEndDevice constructs an IoT MAC state machine, starting in state 1
// (awaiting data) per ModelMACiot.__init__.
func NewEndDevice(nodeID int, data DataSource, radio RadioPort, backoffMaxSeconds, retransmitSeconds float64) *EndDevice {
	return &EndDevice{
		NodeID:         nodeID,
		Data:           data,
		Radio:          radio,
		Log:            nopLog{},
		backoffMax:     backoffMaxSeconds,
		retransmitTime: retransmitSeconds,
		rng:            rand.Float64,
		state:          iotAwaitingData,
	}
}

// Execute runs one step of the state machine.
func (d *EndDevice) Execute(now simtime.Time) {
	units := d.decodeReceived()

	// State 6 is handled first since it concerns the previous step's send.
	if d.state == iotAwaitAck {
		if d.hasMatchingAck(units) {
			d.state = iotAwaitingData
			d.Log.LogMACEvent(d.NodeID, "await-ack", "ack received, returning to idle")
		} else if now.After(d.ackDeadline) || now.Equal(d.ackDeadline) {
			d.state = iotAwaitBeacon
			d.Log.LogMACEvent(d.NodeID, "await-ack", "timeout, retransmit pending")
		} else {
			return
		}
	}

	switch d.state {
	case iotAwaitingData:
		payload, ok := d.Data.NextPayload()
		if ok {
			d.pendingPayload = payload
			d.state = iotAwaitBeacon
			d.Log.LogMACEvent(d.NodeID, "idle", "data ready, awaiting beacon")
		}

	case iotAwaitBeacon:
		if d.hasBeacon(units) {
			d.state = iotBackoffPending
		}

	case iotBackoffPending:
		backoff := d.rng() * d.backoffMax
		d.backoffUntil = now.AddSeconds(backoff)
		d.state = iotBackoff
		d.Log.LogMACEvent(d.NodeID, "backoff", "entering backoff window")

	case iotBackoff:
		if now.After(d.backoffUntil) || now.Equal(d.backoffUntil) {
			d.state = iotSending
		}

	case iotSending:
		id := nextSequence()
		unit := frame.MACUnit{
			Kind:        frame.MACData,
			CreatedAt:   now,
			SourceRadio: d.NodeID,
			DestRadio:   frame.BroadcastRadioID,
			Sequence:    int(id),
			Data:        d.pendingPayload,
			Size:        len(d.pendingPayload),
		}
		wire, err := EncodeUnit(unit)
		if err == nil && d.Radio.Send(now, wire) {
			d.sentID = id
			d.ackDeadline = now.AddSeconds(d.retransmitTime)
			d.state = iotAwaitAck
			d.Log.LogMACEvent(d.NodeID, "sending", "data transmitted, awaiting ack")
		} else {
			// Radio busy or out of range: revert to awaiting the next
			// beacon and retry from there, matching modelmaciot.py's
			// State 5 failure path.
			d.state = iotAwaitBeacon
		}
	}
}

func (d *EndDevice) decodeReceived() []frame.MACUnit {
	raw := d.Radio.PopReceived()
	units := make([]frame.MACUnit, 0, len(raw))
	for _, b := range raw {
		if u, err := DecodeUnit(b); err == nil {
			units = append(units, u)
		}
	}
	return units
}

func (d *EndDevice) hasBeacon(units []frame.MACUnit) bool {
	for _, u := range units {
		if u.Kind == frame.MACBeacon {
			return true
		}
	}
	return false
}

func (d *EndDevice) hasMatchingAck(units []frame.MACUnit) bool {
	for _, u := range units {
		if u.Kind == frame.MACAck && u.AckedID == d.sentID {
			return true
		}
	}
	return false
}
