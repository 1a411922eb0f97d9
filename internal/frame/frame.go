// Package frame implements the radio-layer data-unit value types: Frame
// and the MAC units carried in its payload, grounded on the original
// simulator's models/network/frame.py and the MAC payload variants
// scattered across models_mac/*.py.
package frame

import (
	"sync/atomic"

	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// Address is a radio device's addressable identifier.
type Address struct {
	Value int
}

func (a Address) String() string { return itoa(a.Value) }

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

var globalFrameID atomic.Uint64

// NextFrameID mints a globally monotonic frame id. Spec.md §9 ("process-
// wide counters → per-scope generators") places this atomic counter where
// the Manager can reset it for deterministic replay between runs, but the
// counter itself lives here so every caller shares it without importing
// the manager package.
func NextFrameID() uint64 { return globalFrameID.Add(1) - 1 }

// ResetFrameIDs restarts frame ids from zero. Tests call it to make frame
// ids deterministic; the Manager does not call it.
func ResetFrameIDs() { globalFrameID.Store(0) }

// Frame is an in-flight radio unit. Each destination receives its own
// copy, tagged with a per-link InstanceID; the original frame sent by the
// source carries InstanceID 0.
type Frame struct {
	ID         uint64
	InstanceID int
	Source     Address
	Size       int
	Payload    []byte

	StartTransmission simtime.Time
	EndTransmission    simtime.Time
	StartReception     simtime.Time
	EndReception       simtime.Time

	PLR  float64
	PER  float64
	RSSI float64
	SNR  float64

	CodingRate float64
	Bandwidth  int
	SF         int

	CollidedIDs []uint64
}

// New creates a fresh Frame with a new global id and InstanceID 0.
func New(source Address, size int, payload []byte) Frame {
	return Frame{
		ID:      NextFrameID(),
		Source:  source,
		Size:    size,
		Payload: payload,
	}
}

// CopyForInstance returns a deep copy of f tagged with the given per-link
// instance id, as produced for each recipient on a channel.
func (f Frame) CopyForInstance(instanceID int) Frame {
	cp := f
	cp.InstanceID = instanceID
	cp.Payload = append([]byte(nil), f.Payload...)
	cp.CollidedIDs = append([]uint64(nil), f.CollidedIDs...)
	return cp
}

// AddCollidedID records that f collided with the frame identified by id.
func (f *Frame) AddCollidedID(id uint64) {
	f.CollidedIDs = append(f.CollidedIDs, id)
}

// Collided reports whether f has been marked as collided with anything.
func (f Frame) Collided() bool { return len(f.CollidedIDs) > 0 }

// Overlaps reports whether f's reception window time-overlaps other's,
// using the same "not (start >= otherEnd or end <= otherStart)" test as
// the collision/capture check in update_Timestep.
func (f Frame) Overlaps(other Frame) bool {
	startAfterOtherEnd := f.StartReception.After(other.EndReception) || f.StartReception.Equal(other.EndReception)
	endBeforeOtherStart := f.EndReception.Before(other.StartReception) || f.EndReception.Equal(other.StartReception)
	return !(startAfterOtherEnd || endBeforeOtherStart)
}
