// Package mac implements the four link-layer state machines spec.md §4.4
// names: an IoT end-device, a gateway satellite, a downlink/TTnC
// satellite, and a ground station. Grounded on the original simulator's
// models/models_mac/modelmaciot.py, modelmacgateway.py, modelmacttnc.py,
// and modelmacgs.py — each a small numbered-state machine driven once per
// Execute(), consulting its radio's received-frame queue and a handful of
// timers.
package mac

import (
	"sync/atomic"

	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// DataSource is the narrow capability an end-device MAC needs from its
// node's data-generator model: whether it has a unit of data ready to send.
type DataSource interface {
	NextPayload() ([]byte, bool)
}

// DataSink receives data units a gateway or ground-station MAC extracts
// from inbound frames.
type DataSink interface {
	Store(payload []byte, sourceRadio int)
}

// RadioPort is the slice of radio.Device a MAC state machine drives: send
// raw bytes to whatever target set the adapter was built with, and drain
// whatever payload bytes arrived since the last step. MAC units are
// marshalled to/from bytes in wire.go; RadioPort stays payload-shaped so
// this package doesn't need to import internal/radio's SendTarget/Frame
// types, keeping the state machines trivially testable with fakes.
type RadioPort interface {
	Send(now simtime.Time, payload []byte) bool
	PopReceived() [][]byte
}

// Log receives one line per state transition; internal/simlog implements it.
type Log interface {
	LogMACEvent(nodeID int, state string, detail string)
}

type nopLog struct{}

func (nopLog) LogMACEvent(int, string, string) {}

// globalSequence hands out the monotonic control-sequence numbers ground
// stations stamp on their requests, per spec.md §9's one-counter-per-entity-
// kind resolution (frames get their own counter in internal/frame).
var globalSequence atomic.Uint64

func nextSequence() uint64 {
	return globalSequence.Add(1)
}
