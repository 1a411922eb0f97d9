package simtime

import (
	"time"

	"github.com/fxamacker/cbor/v2"
)

// MarshalCBOR and UnmarshalCBOR let Time travel inside CBOR-encoded
// structures (MAC units on the wire, FOV index persistence) without
// exposing its unexported time.Time field — encoded as Unix microseconds,
// matching the package's own microsecond truncation.
func (t Time) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(t.t.UnixMicro())
}

func (t *Time) UnmarshalCBOR(data []byte) error {
	var micros int64
	if err := cbor.Unmarshal(data, &micros); err != nil {
		return err
	}
	*t = New(time.UnixMicro(micros))
	return nil
}
