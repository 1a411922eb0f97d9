package frame

import "github.com/orbitfold/constellation-sim/internal/simtime"

// MACKind discriminates the tagged variant carried by a MACUnit.
type MACKind int

const (
	MACBeacon MACKind = iota
	MACControl
	MACData
	MACAck
	MACBulkAck
)

func (k MACKind) String() string {
	switch k {
	case MACBeacon:
		return "beacon"
	case MACControl:
		return "control"
	case MACData:
		return "data"
	case MACAck:
		return "ack"
	case MACBulkAck:
		return "bulk-ack"
	default:
		return "unknown"
	}
}

// BroadcastRadioID is used as MACUnit.DestRadioID to mean "no specific
// destination".
const BroadcastRadioID = -1

// MACUnit is an application-layer message carried in a Frame's payload.
type MACUnit struct {
	Kind         MACKind
	CreatedAt    simtime.Time
	SourceRadio  int
	DestRadio    int // BroadcastRadioID for broadcast
	Sequence     int
	Size         int

	// Variant-specific payloads; only the field matching Kind is valid.
	DeviceCount     int      // Beacon
	RequestedCount  int      // Control
	Data            []byte   // Data
	AckedID         uint64   // Ack
	ReceivedIDs     []uint64 // BulkAck
}

// FitsMTU reports whether the unit's size fits within an MTU once the
// link-layer header of headerSize bytes is subtracted.
func (u MACUnit) FitsMTU(mtu, headerSize int) bool {
	return u.Size <= mtu-headerSize
}
