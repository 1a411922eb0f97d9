package radio

// Topology records which channel style a device belongs to. Device.Send
// does not read it: the caller's target list alone decides who hears a
// frame.
// Grounded on the original's channel.py (one shared Channel per
// frequency) versus the imaging radio's point-to-point channel
// construction — spec.md §4.3 unifies both as one state machine that
// differs only in channel topology and link physics.
type Topology int

const (
	// TopologyBroadcast is the LoRa style: every radio tuned to the same
	// frequency and currently visible to the sender is one shared channel.
	TopologyBroadcast Topology = iota
	// TopologyPointToPoint is the imaging style: one channel per visible
	// peer, each channel holding exactly the two endpoints.
	TopologyPointToPoint
)

// Peer is the minimal view a Device needs of another device to compute a
// link: its address, position-dependent distance, and receive hook.
type Peer struct {
	Device   *Device
	Distance func() float64 // meters, evaluated at send time
}
