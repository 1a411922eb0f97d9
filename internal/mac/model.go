package mac

import (
	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
)

// The four state machines above take their current time as an Execute
// argument, since that's all the MAC-layer logic in modelmaciot.py et al.
// actually needs; these thin wrappers are what let the Manager's step loop
// drive them as ordinary model.Model instances through a node's model list.

// EndDeviceModel adapts EndDevice to model.Model.
type EndDeviceModel struct {
	model.Base
	ownerNode *node.Node
	sm        *EndDevice
}

// NewEndDeviceModel wraps sm for the given node, tagged TagMAC.
func NewEndDeviceModel(ownerNode *node.Node, sm *EndDevice) *EndDeviceModel {
	m := &EndDeviceModel{ownerNode: ownerNode, sm: sm}
	m.Base = model.Base{
		NameValue: "ModelMACIot",
		TagValue:  model.TagMAC,
		NodeKinds: []string{"IoT"},
	}
	return m
}

func (m *EndDeviceModel) Execute() error {
	m.sm.Execute(m.ownerNode.Timestamp())
	return nil
}

// GatewayModel adapts Gateway to model.Model.
type GatewayModel struct {
	model.Base
	ownerNode *node.Node
	sm        *Gateway
}

// NewGatewayModel wraps sm for the given node, tagged TagMAC.
func NewGatewayModel(ownerNode *node.Node, sm *Gateway) *GatewayModel {
	m := &GatewayModel{ownerNode: ownerNode, sm: sm}
	m.Base = model.Base{
		NameValue: "ModelMACGateway",
		TagValue:  model.TagMAC,
		NodeKinds: []string{"SAT"},
	}
	return m
}

func (m *GatewayModel) Execute() error {
	m.sm.Execute(m.ownerNode.Timestamp())
	return nil
}

// DownlinkSatelliteModel adapts DownlinkSatellite to model.Model.
type DownlinkSatelliteModel struct {
	model.Base
	ownerNode *node.Node
	sm        *DownlinkSatellite
}

// NewDownlinkSatelliteModel wraps sm for the given node, tagged TagMAC.
func NewDownlinkSatelliteModel(ownerNode *node.Node, sm *DownlinkSatellite) *DownlinkSatelliteModel {
	m := &DownlinkSatelliteModel{ownerNode: ownerNode, sm: sm}
	m.Base = model.Base{
		NameValue: "ModelMACTTnC",
		TagValue:  model.TagMAC,
		NodeKinds: []string{"SAT"},
	}
	return m
}

func (m *DownlinkSatelliteModel) Execute() error {
	m.sm.Execute(m.ownerNode.Timestamp())
	return nil
}

// GroundStationModel adapts GroundStation to model.Model.
type GroundStationModel struct {
	model.Base
	ownerNode *node.Node
	sm        *GroundStation
}

// NewGroundStationModel wraps sm for the given node, tagged TagMAC.
func NewGroundStationModel(ownerNode *node.Node, sm *GroundStation) *GroundStationModel {
	m := &GroundStationModel{ownerNode: ownerNode, sm: sm}
	m.Base = model.Base{
		NameValue: "ModelMACGS",
		TagValue:  model.TagMAC,
		NodeKinds: []string{"GS"},
	}
	return m
}

func (m *GroundStationModel) Execute() error {
	m.sm.Execute(m.ownerNode.Timestamp())
	return nil
}
