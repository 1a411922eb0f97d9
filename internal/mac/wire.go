package mac

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/orbitfold/constellation-sim/internal/frame"
)

// EncodeUnit marshals a MACUnit to the bytes carried in a radio Frame's
// payload. CBOR keeps the on-the-wire representation compact relative to a
// self-describing text format, matching the byte-budget concern spec.md
// §4.3 raises for frame sizing against MTU.
func EncodeUnit(u frame.MACUnit) ([]byte, error) {
	return cbor.Marshal(u)
}

// DecodeUnit reverses EncodeUnit.
func DecodeUnit(b []byte) (frame.MACUnit, error) {
	var u frame.MACUnit
	err := cbor.Unmarshal(b, &u)
	return u, err
}
