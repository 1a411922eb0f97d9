package radio

import (
	"math/rand"
	"sync"

	"github.com/orbitfold/constellation-sim/internal/frame"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// MTU is the fixed frame-size ceiling, matching the original's
// get_MTU() (255 bytes for every radio family).
const MTU = 255

// captureMarginDB is the LoRa capture threshold: a stronger frame wins
// outright if it exceeds the weaker by at least this many dB.
const captureMarginDB = 6

// SendTarget is one recipient of a Send call: the peer device and the
// current distance to it (evaluated by the caller from node positions).
type SendTarget struct {
	Device         *Device
	DistanceMeters float64
}

type window struct{ start, end simtime.Time }

func (w window) overlaps(s, e simtime.Time) bool {
	startAfterEnd := s.After(w.end) || s.Equal(w.end)
	endBeforeStart := e.Before(w.start) || e.Equal(w.start)
	return !(startAfterEnd || endBeforeStart)
}

// Device is the unified LoRa/imaging radio state machine. Grounded on
// radiodevice.py (abstract base) and lora/loraradiodevice.py (concrete
// send/receive/update-timestep algorithm), which spec.md §4.3 names as
// the canonical reference both families share.
type Device struct {
	OwnerNodeID int
	Address     frame.Address
	Physics     LinkPhysics
	Topology    Topology

	// PowerCharger, if set, is invoked after a successful send with the
	// TXRADIO tag and the longest per-peer time-on-air in seconds. It
	// mirrors has_ModelWithTag(POWER)/consume_Energy in the original.
	PowerCharger func(tag string, durationSeconds float64) bool

	// Log receives structured send/receive events. Defaults to a no-op
	// sink so Device is usable without a logger wired up in tests.
	Log Sink

	// RandFloat64 draws a uniform [0,1) sample for Bernoulli drop checks.
	// Overridable for deterministic tests.
	RandFloat64 func() float64

	mu              sync.Mutex
	receivable      bool
	transmitWindows []window
	pending         []frame.Frame
	receiveCallback func(frame.Frame)
	rxQueue         []frame.Frame
}

// NewDevice constructs a Device ready to transmit and receive.
func NewDevice(ownerNodeID int, addr frame.Address, physics LinkPhysics, topo Topology) *Device {
	return &Device{
		OwnerNodeID: ownerNodeID,
		Address:     addr,
		Physics:     physics,
		Topology:    topo,
		receivable:  true,
		Log:         nopSink{},
		RandFloat64: rand.Float64,
	}
}

// SetReceiveCallback installs the function notified on successful
// delivery; if unset, delivered frames accumulate in the rx queue.
func (d *Device) SetReceiveCallback(fn func(frame.Frame)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receiveCallback = fn
}

// PopReceived drains and returns the rx queue.
func (d *Device) PopReceived() []frame.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.rxQueue
	d.rxQueue = nil
	return out
}

// StopReceiving / StartReceiving toggle whether the device accepts
// inbound frames, as in the original's stop_Receiving/start_Receiving.
func (d *Device) StopReceiving() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receivable = false
}

func (d *Device) StartReceiving() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receivable = true
}

// IsTxBusy reports whether now falls inside any transmission window this
// device currently has open.
func (d *Device) IsTxBusy(now simtime.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range d.transmitWindows {
		if !now.Before(w.start) && !now.After(w.end) {
			return true
		}
	}
	return false
}

// SendResult reports the outcome of a Send call's admission checks.
// Per-peer delivery outcomes are visible only through the receivers' own
// logs, matching spec.md §7's "propagated to the sender as a false send
// result" for the admission-level failures only.
type SendResult struct {
	OK            bool
	MTUDrop       bool
	BusyDrop      bool
	NoChannelDrop bool
}

// Send attempts to transmit payload to every target, in the precedence
// order mtuDrop → busyDrop → noValidChannelDrop described in spec.md §4.3.
func (d *Device) Send(now simtime.Time, payload []byte, targets []SendTarget) SendResult {
	if len(payload) > MTU {
		d.Log.LogRadioEvent(Event{Action: "send", MTUDrop: true})
		return SendResult{MTUDrop: true}
	}
	if d.IsTxBusy(now) {
		d.Log.LogRadioEvent(Event{Action: "send", BusyDrop: true})
		return SendResult{BusyDrop: true}
	}
	if len(targets) == 0 {
		d.Log.LogRadioEvent(Event{Action: "send", NoChannelDrop: true})
		return SendResult{NoChannelDrop: true}
	}

	base := frame.New(d.Address, len(payload), payload)
	maxSecondsToTransmit := 0.0
	anySucceeded := false

	for i, target := range targets {
		if target.Device == d {
			continue
		}
		instanceID := i + 1
		tx := base.CopyForInstance(instanceID)

		dist := target.DistanceMeters
		snr := d.Physics.SNR(dist)
		rssi := d.Physics.ReceivedSignalStrength(dist)

		var toaMillis, plr float64
		switch d.Physics.Family {
		case FamilyLoRa:
			toaMillis = LoRaTimeOnAirMillis(d.Physics, len(payload))
			plr = PLR(d.Physics.SpreadingFactor, rssi, snr)
		case FamilyImaging:
			toaMillis = imagingTimeOnAirMillisAt(d.Physics, len(payload), snr)
			plr = 0
		}
		secondsToTransmit := toaMillis / 1000
		propDelay := PropagationDelay(dist)

		tx.StartTransmission = now
		tx.EndTransmission = now.AddSeconds(secondsToTransmit)
		tx.StartReception = now.AddSeconds(propDelay)
		tx.EndReception = tx.StartReception.AddSeconds(secondsToTransmit)
		tx.RSSI = rssi
		tx.SNR = snr
		tx.PLR = plr
		tx.CodingRate = d.Physics.CodingRate
		tx.Bandwidth = int(d.Physics.Bandwidth)
		tx.SF = d.Physics.SpreadingFactor

		switch d.Physics.Family {
		case FamilyLoRa:
			ber, _ := BER(d.Physics.SpreadingFactor, snr)
			tx.PER = PERFromBER(ber, len(payload), d.Physics.BitsAllowed)
		case FamilyImaging:
			tx.PER = imagingPER(len(payload))
		}

		delivered := target.Device.receive(tx)
		if delivered {
			anySucceeded = true
			if secondsToTransmit > maxSecondsToTransmit {
				maxSecondsToTransmit = secondsToTransmit
			}
		}
		d.Log.LogRadioEvent(Event{
			Action: "send", FrameID: tx.ID, InstanceID: tx.InstanceID,
			Success: delivered, RSSI: rssi, SNR: snr,
			ToASeconds: secondsToTransmit, PLR: plr, PER: tx.PER, PeerCount: len(targets),
		})
	}

	d.mu.Lock()
	d.transmitWindows = append(d.transmitWindows, window{start: now, end: now.AddSeconds(maxSecondsToTransmit)})
	d.mu.Unlock()

	if anySucceeded && d.PowerCharger != nil {
		d.PowerCharger("TXRADIO", maxSecondsToTransmit)
	}

	return SendResult{OK: true}
}

// receive is the admission-time half of reception: bandwidth/SF matching
// and the PLR Bernoulli drop happen here, before the frame is queued for
// the delayed collision/capture/PER pass in UpdateTimestep.
func (d *Device) receive(f frame.Frame) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.receivable {
		d.Log.LogRadioEvent(Event{Action: "receive", FrameID: f.ID, CRBWDrop: true})
		return false
	}
	if f.Bandwidth != int(d.Physics.Bandwidth) || (d.Physics.Family == FamilyLoRa && f.SF != d.Physics.SpreadingFactor) {
		d.Log.LogRadioEvent(Event{Action: "receive", FrameID: f.ID, CRBWDrop: true})
		return false
	}
	if d.RandFloat64() < f.PLR {
		d.Log.LogRadioEvent(Event{Action: "receive", FrameID: f.ID, PLRDrop: true})
		return false
	}
	d.pending = append(d.pending, f)
	return true
}

// UpdateTimestep ages out completed transmission windows and finalizes
// every pending frame whose reception window has ended by now: collision
// and capture detection, coding-rate check, half-duplex check, and the
// PER Bernoulli draw, in that order — per spec.md §9's resolution of the
// drop-reason precedence open question.
func (d *Device) UpdateTimestep(now simtime.Time) {
	d.mu.Lock()

	var completed []frame.Frame
	remaining := append([]frame.Frame(nil), d.pending...)
	for i := 0; i < len(remaining); {
		f := remaining[i]
		if f.EndReception.After(now) {
			i++
			continue
		}
		remaining = append(remaining[:i], remaining[i+1:]...)
		for j := range remaining {
			if f.Overlaps(remaining[j]) {
				d.resolveCollision(&f, &remaining[j])
			}
		}
		completed = append(completed, f)
	}
	d.pending = remaining

	earliest := now
	for _, f := range remaining {
		if f.StartReception.Before(earliest) {
			earliest = f.StartReception
		}
	}
	var keptWindows []window
	for _, w := range d.transmitWindows {
		if w.end.Before(earliest) || w.end.Equal(earliest) {
			continue
		}
		keptWindows = append(keptWindows, w)
	}
	d.transmitWindows = keptWindows

	windows := append([]window(nil), d.transmitWindows...)
	d.mu.Unlock()

	for _, f := range completed {
		d.finalize(f, windows)
	}
}

// resolveCollision marks f and/or other collided, per the capture rule
// (LoRa) or the any-overlap rule (imaging).
func (d *Device) resolveCollision(f, other *frame.Frame) {
	if d.Physics.Family == FamilyImaging {
		f.AddCollidedID(other.ID)
		other.AddCollidedID(f.ID)
		return
	}

	rssiDiff := f.RSSI - other.RSSI
	if rssiDiff < 0 {
		rssiDiff = -rssiDiff
	}
	if rssiDiff < captureMarginDB {
		f.AddCollidedID(other.ID)
		other.AddCollidedID(f.ID)
		return
	}

	stronger, weaker := f, other
	if other.RSSI > f.RSSI {
		stronger, weaker = other, f
	}

	if stronger.StartReception.Before(weaker.StartReception) {
		weaker.AddCollidedID(stronger.ID)
		return
	}

	symbolTime := pow2(d.Physics.SpreadingFactor) / d.Physics.Bandwidth
	lockOnSeconds := symbolTime * 4
	timeDiff := weaker.StartReception.SinceSeconds(stronger.StartReception)
	if timeDiff > lockOnSeconds {
		stronger.AddCollidedID(weaker.ID)
		weaker.AddCollidedID(stronger.ID)
		return
	}
	weaker.AddCollidedID(stronger.ID)
}

func pow2(n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= 2
	}
	return r
}

func (d *Device) finalize(f frame.Frame, windows []window) {
	if f.Collided() {
		d.Log.LogRadioEvent(Event{Action: "receive", FrameID: f.ID, Collision: true, CollidedIDs: f.CollidedIDs})
		return
	}
	if f.CodingRate != d.Physics.CodingRate {
		d.Log.LogRadioEvent(Event{Action: "receive", FrameID: f.ID, CRBWDrop: true})
		return
	}
	for _, w := range windows {
		if w.overlaps(f.StartReception, f.EndReception) {
			d.Log.LogRadioEvent(Event{Action: "receive", FrameID: f.ID, TxBusyDrop: true})
			return
		}
	}
	if d.RandFloat64() < f.PER {
		d.Log.LogRadioEvent(Event{Action: "receive", FrameID: f.ID, PERDrop: true})
		return
	}

	d.Log.LogRadioEvent(Event{Action: "receive", FrameID: f.ID, Success: true})
	d.mu.Lock()
	cb := d.receiveCallback
	d.mu.Unlock()
	if cb != nil {
		cb(f)
	} else {
		d.mu.Lock()
		d.rxQueue = append(d.rxQueue, f)
		d.mu.Unlock()
	}
}
