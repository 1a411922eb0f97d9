package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/orbitfold/constellation-sim/internal/datastore"
	"github.com/orbitfold/constellation-sim/internal/fovindex"
	"github.com/orbitfold/constellation-sim/internal/frame"
	"github.com/orbitfold/constellation-sim/internal/mac"
	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
	"github.com/orbitfold/constellation-sim/internal/orbit"
	"github.com/orbitfold/constellation-sim/internal/power"
	"github.com/orbitfold/constellation-sim/internal/radio"
	"github.com/orbitfold/constellation-sim/internal/scheduling"
	"github.com/orbitfold/constellation-sim/internal/simlog"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// buildContext carries everything a model factory needs: the owning node
// and its scenario entry, the node's logger, the models already built for
// this node (in config order, so a later model can find an earlier
// sibling), the simulation step size, and resolvers over the whole scenario
// (every node, and every node's radio device by id) plus the shared FOV
// index. Those last three are only ever called from inside a closure run
// during Execute, long after every node and model in the scenario exists,
// even though the buildContext itself is assembled node by node while the
// scenario is still being built.
type buildContext struct {
	node     *node.Node
	nodeCfg  NodeConfig
	logger   *simlog.Logger
	deltaSec float64
	built    []model.Model

	resolvePeer  orbit.PeerResolver
	resolveNode  func(nodeID int) (*node.Node, bool)
	resolveRadio func(nodeID int) (*radio.Device, bool)
	fov          *fovindex.Index
}

func (c *buildContext) findTag(tag model.Tag) (model.Model, bool) {
	for _, m := range c.built {
		if m.ModelTag() == tag {
			return m, true
		}
	}
	return nil, false
}

// targetsFunc closes over the FOV index and the scenario-wide node/radio
// resolvers to produce the current send-target set for a radio tuned to
// talk to nodes of peerKind: the set of currently-visible peers of that
// kind, each paired with the live distance to it.
func (c *buildContext) targetsFunc(peerKind node.Kind) func() []radio.SendTarget {
	return func() []radio.SendTarget {
		if c.fov == nil || !c.fov.Preloaded() {
			return nil
		}
		now := c.node.Timestamp()
		peerIDs := c.fov.View(c.node.ID, now, int(peerKind))
		if len(peerIDs) == 0 {
			return nil
		}
		myPos := c.node.Position(now)
		out := make([]radio.SendTarget, 0, len(peerIDs))
		for _, pid := range peerIDs {
			peerDevice, ok := c.resolveRadio(pid)
			if !ok {
				continue
			}
			peerNode, ok := c.resolveNode(pid)
			if !ok {
				continue
			}
			out = append(out, radio.SendTarget{
				Device:         peerDevice,
				DistanceMeters: myPos.DistanceMeters(peerNode.Position(now)),
			})
		}
		return out
	}
}

// Factory builds one model instance from its scenario entry.
type Factory func(ctx *buildContext, raw json.RawMessage) (model.Model, error)

var registry = map[string]Factory{
	"ModelOrbit":         buildOrbit,
	"ModelFixedOrbit":    buildFixedOrbit,
	"ModelPower":         buildPower,
	"ModelDataGenerator": buildDataGenerator,
	"ModelDataRelay":     buildDataRelay,
	"ModelGenericRadio":  buildGenericRadio,
	"ModelLoraRadio":     buildLoraRadio,
	"ModelImagingRadio":  buildImagingRadio,
	"ModelMACIot":        buildMACIot,
	"ModelMACGateway":    buildMACGateway,
	"ModelMACTTnC":       buildMACTTnC,
	"ModelMACGS":         buildMACGroundStation,
	"ModelEdgeCompute":   buildScheduler,
}

func buildOrbit(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	if ctx.nodeCfg.TLE1 == "" || ctx.nodeCfg.TLE2 == "" {
		return nil, fmt.Errorf("ModelOrbit: node %d missing tle_1/tle_2", ctx.node.ID)
	}
	tleGroup := ctx.nodeCfg.IName + "\n" + ctx.nodeCfg.TLE1 + "\n" + ctx.nodeCfg.TLE2
	return orbit.New(ctx.node, tleGroup, ctx.resolvePeer)
}

type fixedOrbitParams struct {
	AltitudeMeters float64 `json:"altitude_meters"`
	Sunlit         *bool   `json:"sunlit,omitempty"`
}

func buildFixedOrbit(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	if ctx.nodeCfg.Latitude == nil || ctx.nodeCfg.Longitude == nil {
		return nil, fmt.Errorf("ModelFixedOrbit: node %d missing latitude/longitude", ctx.node.ID)
	}
	var p fixedOrbitParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ModelFixedOrbit: node %d: %w", ctx.node.ID, err)
	}
	sunlit := true
	if p.Sunlit != nil {
		sunlit = *p.Sunlit
	}
	return orbit.NewFixed(ctx.node, *ctx.nodeCfg.Latitude, *ctx.nodeCfg.Longitude, p.AltitudeMeters, sunlit), nil
}

type powerParams struct {
	MaxChargeJoules      float64            `json:"max_charge_joules"`
	MinChargeJoules      float64            `json:"min_charge_joules"`
	InitialChargeJoules  float64            `json:"initial_charge_joules"`
	PowerGenerationW     float64            `json:"power_generation_w"`
	BatteryEfficiency    float64            `json:"battery_efficiency"`
	ConsumptionPerTagW   map[string]float64 `json:"consumption_per_tag_w"`
	RequiredEnergyJoules map[string]float64 `json:"required_energy_joules"`
	AlwaysOnTags         []string           `json:"always_on_tags"`
}

func buildPower(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	var p powerParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ModelPower: node %d: %w", ctx.node.ID, err)
	}
	orbital, ok := ctx.findTag(model.TagOrbital)
	if !ok {
		return nil, fmt.Errorf("ModelPower: node %d has no orbital model built yet (check model order)", ctx.node.ID)
	}
	orbitalAPI, ok := orbital.(model.OrbitalAPI)
	if !ok {
		return nil, fmt.Errorf("ModelPower: node %d orbital model %s doesn't implement OrbitalAPI", ctx.node.ID, orbital.Name())
	}
	ownerNode := ctx.node
	m := power.New(power.Config{
		MaxChargeJoules:      p.MaxChargeJoules,
		MinChargeJoules:      p.MinChargeJoules,
		InitialChargeJoules:  p.InitialChargeJoules,
		PowerGenerationW:     p.PowerGenerationW,
		BatteryEfficiency:    p.BatteryEfficiency,
		TimestepSeconds:      ctx.deltaSec,
		ConsumptionPerTagW:   p.ConsumptionPerTagW,
		RequiredEnergyJoules: p.RequiredEnergyJoules,
		AlwaysOnTags:         p.AlwaysOnTags,
	}, orbitalAPI, ownerNode.Timestamp)
	if ctx.logger != nil {
		m.Log = ctx.logger
	}
	return m, nil
}

type dataGeneratorParams struct {
	RatePerStep float64 `json:"rate_per_step"`
	UnitSize    int     `json:"unit_size_bytes"`
	Capacity    int     `json:"queue_capacity"`
}

func buildDataGenerator(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	var p dataGeneratorParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ModelDataGenerator: node %d: %w", ctx.node.ID, err)
	}
	return datastore.NewGenerator(ctx.node, p.RatePerStep, p.UnitSize, p.Capacity), nil
}

type dataRelayParams struct {
	Capacity int `json:"queue_capacity"`
}

func buildDataRelay(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	var p dataRelayParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ModelDataRelay: node %d: %w", ctx.node.ID, err)
	}
	return datastore.NewRelay(p.Capacity), nil
}

type radioParams struct {
	Frequency         float64 `json:"frequency_hz"`
	Bandwidth         float64 `json:"bandwidth_hz"`
	SpreadingFactor   int     `json:"spreading_factor"`
	CodingRate        float64 `json:"coding_rate"`
	Preamble          int     `json:"preamble_symbols"`
	TxAntennaGain     float64 `json:"tx_antenna_gain_db"`
	TxPower           float64 `json:"tx_power_dbw"`
	TxLineLoss        float64 `json:"tx_line_loss_db"`
	RxAntennaGain     float64 `json:"rx_antenna_gain_db"`
	RxLineLoss        float64 `json:"rx_line_loss_db"`
	GainToTemperature float64 `json:"gain_to_temperature_db"`
	BitsAllowed       int     `json:"bits_allowed"`
	AtmosphereLoss    float64 `json:"atmosphere_loss_db"`
	SymbolRate        float64 `json:"symbol_rate_baud"`
	NumChannels       int     `json:"num_channels"`
}

func (p radioParams) toPhysics(family radio.Family) radio.LinkPhysics {
	atmosphereLoss := p.AtmosphereLoss
	if atmosphereLoss == 0 {
		atmosphereLoss = 1.8
	}
	return radio.LinkPhysics{
		Family:            family,
		Frequency:         p.Frequency,
		Bandwidth:         p.Bandwidth,
		SpreadingFactor:   p.SpreadingFactor,
		CodingRate:        p.CodingRate,
		Preamble:          p.Preamble,
		TxAntennaGain:     p.TxAntennaGain,
		TxPower:           p.TxPower,
		TxLineLoss:        p.TxLineLoss,
		RxAntennaGain:     p.RxAntennaGain,
		RxLineLoss:        p.RxLineLoss,
		GainToTemperature: p.GainToTemperature,
		BitsAllowed:       p.BitsAllowed,
		AtmosphereLoss:    atmosphereLoss,
		SymbolRate:        p.SymbolRate,
		NumChannels:       p.NumChannels,
	}
}

func buildRadioDevice(ctx *buildContext, raw json.RawMessage, name string, family radio.Family, topo radio.Topology) (model.Model, error) {
	var p radioParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%s: node %d: %w", name, ctx.node.ID, err)
	}
	device := radio.NewDevice(ctx.node.ID, frame.Address{Value: ctx.node.ID}, p.toPhysics(family), topo)
	if ctx.logger != nil {
		device.Log = ctx.logger
	}
	if pw, ok := ctx.findTag(model.TagPower); ok {
		if powerAPI, ok := pw.(model.PowerAPI); ok {
			device.PowerCharger = func(tag string, durationSeconds float64) bool {
				return powerAPI.ConsumeEnergyForTag(tag, durationSeconds)
			}
		}
	}
	return radio.NewDeviceModel(name, ctx.node, device), nil
}

func buildGenericRadio(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	return buildRadioDevice(ctx, raw, "ModelGenericRadio", radio.FamilyLoRa, radio.TopologyBroadcast)
}

func buildLoraRadio(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	return buildRadioDevice(ctx, raw, "ModelLoraRadio", radio.FamilyLoRa, radio.TopologyBroadcast)
}

func buildImagingRadio(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	return buildRadioDevice(ctx, raw, "ModelImagingRadio", radio.FamilyImaging, radio.TopologyPointToPoint)
}

// findRadioDevice returns the first built sibling model tagged TagRadio, as
// a concrete *radio.Device so it can be wrapped in a mac.RadioAdapter.
func (c *buildContext) findRadioDevice() (*radio.Device, bool) {
	m, ok := c.findTag(model.TagRadio)
	if !ok {
		return nil, false
	}
	dm, ok := m.(*radio.DeviceModel)
	if !ok {
		return nil, false
	}
	return dm.Device(), true
}

func (c *buildContext) findDataSource() (mac.DataSource, bool) {
	if m, ok := c.findTag(model.TagDataGenerator); ok {
		if src, ok := m.(mac.DataSource); ok {
			return src, true
		}
	}
	return nil, false
}

func (c *buildContext) findDataSink() (mac.DataSink, bool) {
	if m, ok := c.findTag(model.TagDataStore); ok {
		if sink, ok := m.(mac.DataSink); ok {
			return sink, true
		}
	}
	return nil, false
}

type macIotParams struct {
	BackoffMaxSeconds float64 `json:"backoff_max_seconds"`
	RetransmitSeconds float64 `json:"retransmit_seconds"`
}

func buildMACIot(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	var p macIotParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ModelMACIot: node %d: %w", ctx.node.ID, err)
	}
	device, ok := ctx.findRadioDevice()
	if !ok {
		return nil, fmt.Errorf("ModelMACIot: node %d has no radio model built yet", ctx.node.ID)
	}
	src, ok := ctx.findDataSource()
	if !ok {
		return nil, fmt.Errorf("ModelMACIot: node %d has no data generator built yet", ctx.node.ID)
	}
	port := &mac.RadioAdapter{Device: device, TargetsFunc: ctx.targetsFunc(node.KindSatellite)}
	sm := mac.NewEndDevice(ctx.node.ID, src, port, p.BackoffMaxSeconds, p.RetransmitSeconds)
	if ctx.logger != nil {
		sm.Log = ctx.logger
	}
	return mac.NewEndDeviceModel(ctx.node, sm), nil
}

type macGatewayParams struct {
	IntervalSeconds float64 `json:"interval_seconds"`
	JitterSeconds   float64 `json:"jitter_seconds"`
}

func buildMACGateway(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	var p macGatewayParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ModelMACGateway: node %d: %w", ctx.node.ID, err)
	}
	device, ok := ctx.findRadioDevice()
	if !ok {
		return nil, fmt.Errorf("ModelMACGateway: node %d has no radio model built yet", ctx.node.ID)
	}
	sink, ok := ctx.findDataSink()
	if !ok {
		return nil, fmt.Errorf("ModelMACGateway: node %d has no data relay built yet", ctx.node.ID)
	}
	targets := ctx.targetsFunc(node.KindEndDevice)
	uplink := &mac.RadioAdapter{Device: device, TargetsFunc: targets}
	beacon := &mac.RadioAdapter{Device: device, TargetsFunc: targets}
	sm := mac.NewGateway(ctx.node.ID, uplink, beacon, sink, p.IntervalSeconds, p.JitterSeconds, ctx.node.Timestamp())
	if ctx.logger != nil {
		sm.Log = ctx.logger
	}
	return mac.NewGatewayModel(ctx.node, sm), nil
}

type macTTnCParams struct {
	BeaconIntervalSeconds float64 `json:"beacon_interval_seconds"`
}

func buildMACTTnC(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	var p macTTnCParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ModelMACTTnC: node %d: %w", ctx.node.ID, err)
	}
	device, ok := ctx.findRadioDevice()
	if !ok {
		return nil, fmt.Errorf("ModelMACTTnC: node %d has no radio model built yet", ctx.node.ID)
	}
	relayModel, ok := ctx.findTag(model.TagDataStore)
	if !ok {
		return nil, fmt.Errorf("ModelMACTTnC: node %d has no data relay built yet", ctx.node.ID)
	}
	provider, ok := relayModel.(mac.DataProvider)
	if !ok {
		return nil, fmt.Errorf("ModelMACTTnC: node %d data relay doesn't implement DataProvider", ctx.node.ID)
	}
	port := &mac.RadioAdapter{Device: device, TargetsFunc: ctx.targetsFunc(node.KindGroundStation)}
	sm := mac.NewDownlinkSatellite(ctx.node.ID, port, provider, p.BeaconIntervalSeconds, ctx.node.Timestamp())
	if ctx.logger != nil {
		sm.Log = ctx.logger
	}
	return mac.NewDownlinkSatelliteModel(ctx.node, sm), nil
}

type macGroundStationParams struct {
	RequestCount             int     `json:"request_count"`
	InactivityTimeoutSeconds float64 `json:"inactivity_timeout_seconds"`
}

func buildMACGroundStation(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	var p macGroundStationParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ModelMACGS: node %d: %w", ctx.node.ID, err)
	}
	device, ok := ctx.findRadioDevice()
	if !ok {
		return nil, fmt.Errorf("ModelMACGS: node %d has no radio model built yet", ctx.node.ID)
	}
	sink, ok := ctx.findDataSink()
	if !ok {
		return nil, fmt.Errorf("ModelMACGS: node %d has no data relay built yet", ctx.node.ID)
	}
	port := &mac.RadioAdapter{Device: device, TargetsFunc: ctx.targetsFunc(node.KindSatellite)}
	sm := mac.NewGroundStation(ctx.node.ID, port, sink, p.RequestCount, p.InactivityTimeoutSeconds)
	if ctx.logger != nil {
		sm.Log = ctx.logger
	}
	return mac.NewGroundStationModel(ctx.node, sm), nil
}

type scheduleWindowParams struct {
	DestinationNodeID int    `json:"destination_nodeid"`
	Start             string `json:"start"`
	End               string `json:"end"`
}

type schedulerParams struct {
	Schedule []scheduleWindowParams `json:"schedule"`
}

// findSchedulerSource returns the built sibling model the scheduler should
// drain, preferring a data generator and falling back to a relay, so the
// scheduler works equally on an end device (generates its own data) and a
// relay hop (forwards data received from elsewhere).
func (c *buildContext) findSchedulerSource() (mac.DataSource, bool) {
	if src, ok := c.findDataSource(); ok {
		return src, true
	}
	if m, ok := c.findTag(model.TagDataStore); ok {
		if src, ok := m.(mac.DataSource); ok {
			return src, true
		}
	}
	return nil, false
}

// buildScheduler constructs ModelEdgeCompute (C14): the on-board scheduler
// that decides, every step, which peer gets this node's next queued data
// unit. Grounded on modeledgecompute.py.
func buildScheduler(ctx *buildContext, raw json.RawMessage) (model.Model, error) {
	var p schedulerParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ModelEdgeCompute: node %d: %w", ctx.node.ID, err)
	}
	device, ok := ctx.findRadioDevice()
	if !ok {
		return nil, fmt.Errorf("ModelEdgeCompute: node %d has no radio model built yet", ctx.node.ID)
	}
	src, ok := ctx.findSchedulerSource()
	if !ok {
		return nil, fmt.Errorf("ModelEdgeCompute: node %d has no data generator or relay built yet", ctx.node.ID)
	}

	windows := make([]scheduling.Window, 0, len(p.Schedule))
	for _, w := range p.Schedule {
		start, err := simtime.Parse(w.Start)
		if err != nil {
			return nil, fmt.Errorf("ModelEdgeCompute: node %d: schedule start: %w", ctx.node.ID, err)
		}
		end, err := simtime.Parse(w.End)
		if err != nil {
			return nil, fmt.Errorf("ModelEdgeCompute: node %d: schedule end: %w", ctx.node.ID, err)
		}
		windows = append(windows, scheduling.Window{
			DestinationID: w.DestinationNodeID,
			Start:         start,
			End:           end,
		})
	}

	return scheduling.New(
		ctx.node,
		device,
		src,
		windows,
		ctx.resolveRadio,
		ctx.resolveNode,
		ctx.targetsFunc(node.KindGroundStation),
	), nil
}
