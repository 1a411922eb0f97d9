package mac

import (
	"github.com/orbitfold/constellation-sim/internal/radio"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// RadioAdapter adapts a concrete radio.Device (plus a fixed target set) to
// the RadioPort interface the state machines drive. Orchestrator wiring
// rebuilds the target set each time the peer set changes (e.g. as FOV
// visibility comes and goes); the adapter itself is stateless beyond that.
type RadioAdapter struct {
	Device  *radio.Device
	Targets []radio.SendTarget

	// TargetsFunc, if set, is called at Send time to produce the current
	// target set instead of using the static Targets field — the FOV
	// index changes who's in view step to step, so the orchestrator wires
	// this to a query against it rather than a fixed list.
	TargetsFunc func() []radio.SendTarget
}

// Send implements RadioPort.
func (a *RadioAdapter) Send(now simtime.Time, payload []byte) bool {
	targets := a.Targets
	if a.TargetsFunc != nil {
		targets = a.TargetsFunc()
	}
	if len(targets) == 0 {
		return false
	}
	return a.Device.Send(now, payload, targets).OK
}

// PopReceived implements RadioPort.
func (a *RadioAdapter) PopReceived() [][]byte {
	frames := a.Device.PopReceived()
	out := make([][]byte, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Payload)
	}
	return out
}
