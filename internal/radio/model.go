package radio

import (
	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
)

// DeviceModel adapts a Device to model.Model so the orchestrator can add it
// to a node's model list under whichever iname the scenario config used
// (ModelGenericRadio/ModelLoraRadio/ModelImagingRadio all share this same
// state machine, distinguished only by their LinkPhysics table, per
// spec.md §9's unification of the two class trees).
type DeviceModel struct {
	model.Base

	ownerNode *node.Node
	device    *Device
}

// NewDeviceModel wraps device under the given model name, tagged TagRadio.
func NewDeviceModel(name string, ownerNode *node.Node, device *Device) *DeviceModel {
	m := &DeviceModel{ownerNode: ownerNode, device: device}
	m.Base = model.Base{
		NameValue: name,
		TagValue:  model.TagRadio,
	}
	return m
}

// Device returns the underlying radio device, for MAC-layer wiring that
// needs the concrete type (a RadioAdapter, channel targets).
func (m *DeviceModel) Device() *Device { return m.device }

// Execute ages out stale transmission bookkeeping and resolves pending
// receptions for this step; send/receive themselves happen synchronously
// from whichever MAC model calls RadioAdapter.Send in the same step.
func (m *DeviceModel) Execute() error {
	m.device.UpdateTimestep(m.ownerNode.Timestamp())
	return nil
}
