// Package power implements the rolling joule-bank energy model every
// satellite node carries. Grounded on the original simulator's
// models/models_power/modelpower.py: a battery with a min/max charge,
// solar charging while in sunlight, always-on per-tag draws each step, and
// budgeted energy withdrawals keyed by tag, power+duration, or a flat
// joule amount.
package power

import (
	"fmt"

	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// Stats is one step's accounting snapshot, the Go analogue of the fields
// __log_Stats formats into a line.
type Stats struct {
	Timestamp        simtime.Time
	CurrentCharge    float64
	ChargeGenerated  float64
	OutOfPower       bool
	Requested        map[string]bool
	Granted          map[string]bool
	Consumed         map[string]float64
}

// StatsSink receives one Stats record per step; internal/simlog implements
// this to format it into the CSV log line.
type StatsSink interface {
	LogPowerStats(Stats)
}

type nopSink struct{}

func (nopSink) LogPowerStats(Stats) {}

// Model is the joule-bank energy model. It implements model.Model via the
// embedded model.Base plus its own Execute, and implements model.PowerAPI
// directly for in-process callers that hold a typed reference.
type Model struct {
	model.Base

	orbital model.OrbitalAPI

	maxCharge     float64
	minCharge     float64
	currentCharge float64

	powerGeneration   float64 // W, while in sunlight
	batteryEfficiency float64 // charge efficiency, (0,1]
	timestepSeconds   float64

	consumptionPerTag map[string]float64 // W, per power-consumption tag
	requiredEnergyPerTag map[string]float64 // J, minimum charge gate per tag
	alwaysOn          []string           // tags drawn every step regardless of caller

	loggingTags []string
	requested   map[string]bool
	granted     map[string]bool
	consumed    map[string]float64

	Log       StatsSink
	timestamp func() simtime.Time
}

// Config bundles the construction-time parameters the orchestrator reads
// out of a node's power block in the scenario config.
type Config struct {
	MaxChargeJoules     float64
	MinChargeJoules     float64
	InitialChargeJoules float64
	PowerGenerationW    float64
	BatteryEfficiency   float64
	TimestepSeconds     float64
	ConsumptionPerTagW  map[string]float64
	RequiredEnergyJoules map[string]float64
	AlwaysOnTags        []string
}

// New constructs a power model for one node. orbital is the node's orbital
// capability, used each step to test for sunlight; timestampFn lets the
// model stamp log records without importing the node package.
func New(cfg Config, orbital model.OrbitalAPI, timestampFn func() simtime.Time) *Model {
	if cfg.BatteryEfficiency <= 0 {
		cfg.BatteryEfficiency = 1
	}
	m := &Model{
		orbital:              orbital,
		maxCharge:            cfg.MaxChargeJoules,
		minCharge:            cfg.MinChargeJoules,
		currentCharge:        cfg.InitialChargeJoules,
		powerGeneration:      cfg.PowerGenerationW,
		batteryEfficiency:    cfg.BatteryEfficiency,
		timestepSeconds:      cfg.TimestepSeconds,
		consumptionPerTag:    copyFloatMap(cfg.ConsumptionPerTagW),
		requiredEnergyPerTag: copyFloatMap(cfg.RequiredEnergyJoules),
		alwaysOn:             append([]string(nil), cfg.AlwaysOnTags...),
		requested:            make(map[string]bool),
		granted:              make(map[string]bool),
		consumed:             make(map[string]float64),
		Log:                  nopSink{},
		timestamp:            timestampFn,
	}
	m.Base = model.Base{
		NameValue:    "ModelPower",
		TagValue:     model.TagPower,
		Dependencies: [][]string{{"ModelFixedOrbit", "ModelOrbit"}},
		APIs: map[string]model.API{
			"consume_energy":      m.apiConsumeEnergy,
			"get_available_energy": m.apiGetAvailableEnergy,
			"get_min_charge":      m.apiGetMinCharge,
			"get_max_charge":      m.apiGetMaxCharge,
			"has_energy":          m.apiHasEnergy,
		},
	}
	for _, tag := range cfg.AlwaysOnTags {
		m.addKeyToLogs(tag)
	}
	return m
}

func copyFloatMap(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *Model) addKeyToLogs(tag string) {
	for _, t := range m.loggingTags {
		if t == tag {
			return
		}
	}
	m.loggingTags = append(m.loggingTags, tag)
	if _, ok := m.requested[tag]; !ok {
		m.requested[tag] = false
	}
	if _, ok := m.consumed[tag]; !ok {
		m.consumed[tag] = 0
	}
}

// ConsumeEnergyForTag implements model.PowerAPI.
func (m *Model) ConsumeEnergyForTag(tag string, durationSeconds float64) bool {
	ret, _ := m.apiConsumeEnergy(map[string]any{"tag": tag, "duration": durationSeconds})
	ok, _ := ret["ok"].(bool)
	return ok
}

// ConsumeEnergyJoules implements model.PowerAPI.
func (m *Model) ConsumeEnergyJoules(energy float64) bool {
	ret, _ := m.apiConsumeEnergy(map[string]any{"energy": energy})
	ok, _ := ret["ok"].(bool)
	return ok
}

// HasEnergy implements model.PowerAPI.
func (m *Model) HasEnergy(tag string) bool {
	ret, _ := m.apiHasEnergy(map[string]any{"tag": tag})
	ok, _ := ret["granted"].(bool)
	return ok
}

// AvailableEnergyJoules implements model.PowerAPI.
func (m *Model) AvailableEnergyJoules() float64 {
	return m.currentCharge
}

// apiConsumeEnergy is __consume_Energy translated: three mutually exclusive
// ways to specify the amount (direct joules, power*duration, or
// tag*duration looked up in consumptionPerTag), preferred in that order.
func (m *Model) apiConsumeEnergy(args map[string]any) (map[string]any, error) {
	loggerTag := "Other"
	var energyToConsume float64

	switch {
	case has(args, "energy"):
		energyToConsume = asFloat(args["energy"])
	case has(args, "power") && has(args, "duration"):
		energyToConsume = asFloat(args["power"]) * asFloat(args["duration"])
	case has(args, "tag") && has(args, "duration"):
		tag, _ := args["tag"].(string)
		loggerTag = tag
		if rate, ok := m.consumptionPerTag[tag]; ok {
			energyToConsume = rate * asFloat(args["duration"])
		} else {
			tagName, _ := args["tag"].(string)
			m.addKeyToLogs(tagName)
			m.consumptionPerTag[tagName] = 0
			energyToConsume = 0
		}
	default:
		tagName, _ := args["tag"].(string)
		m.addKeyToLogs(tagName)
		m.consumptionPerTag[tagName] = 0
		energyToConsume = 0
	}

	granted := false
	if m.currentCharge >= energyToConsume+m.minCharge {
		m.currentCharge -= energyToConsume
		granted = true
	} else {
		energyToConsume = 0
	}

	m.consumed[loggerTag] += energyToConsume
	return map[string]any{"ok": granted}, nil
}

func (m *Model) apiGetAvailableEnergy(args map[string]any) (map[string]any, error) {
	return map[string]any{"energy": m.currentCharge}, nil
}

func (m *Model) apiGetMinCharge(args map[string]any) (map[string]any, error) {
	return map[string]any{"charge": m.minCharge}, nil
}

func (m *Model) apiGetMaxCharge(args map[string]any) (map[string]any, error) {
	return map[string]any{"charge": m.maxCharge}, nil
}

// apiHasEnergy is __has_Energy translated: a tag absent from
// requiredEnergyPerTag is assumed to require 0 J (so it's granted whenever
// charge exceeds minCharge) rather than being rejected outright.
func (m *Model) apiHasEnergy(args map[string]any) (map[string]any, error) {
	tag, _ := args["tag"].(string)
	var granted bool
	if required, ok := m.requiredEnergyPerTag[tag]; ok {
		granted = m.currentCharge >= required
	} else {
		m.addKeyToLogs(tag)
		m.requiredEnergyPerTag[tag] = 0
		granted = m.currentCharge > m.minCharge
	}
	m.requested[tag] = true
	m.granted[tag] = granted
	return map[string]any{"granted": granted}, nil
}

func has(args map[string]any, key string) bool {
	v, ok := args[key]
	return ok && v != nil
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// Execute runs one step: charge from sunlight (if any), clamp to max, then
// debit every always-on tag, per ModelPower.Execute.
func (m *Model) Execute() error {
	if m.orbital == nil {
		return fmt.Errorf("power: ModelPower has no orbital capability wired")
	}

	previousCharge := m.currentCharge
	if m.orbital.InSunlight() {
		m.currentCharge += m.powerGeneration * m.timestepSeconds * m.batteryEfficiency
	}
	if m.currentCharge > m.maxCharge {
		m.currentCharge = m.maxCharge
	}
	chargeGenerated := m.currentCharge - previousCharge

	outOfPower := false
	for _, tag := range m.alwaysOn {
		ret, _ := m.apiConsumeEnergy(map[string]any{"tag": tag, "duration": m.timestepSeconds})
		if ok, _ := ret["ok"].(bool); !ok {
			outOfPower = true
		}
	}

	m.logStats(chargeGenerated, outOfPower)
	return nil
}

func (m *Model) logStats(chargeGenerated float64, outOfPower bool) {
	var ts simtime.Time
	if m.timestamp != nil {
		ts = m.timestamp()
	}
	requested := make(map[string]bool, len(m.loggingTags))
	granted := make(map[string]bool, len(m.loggingTags))
	consumed := make(map[string]float64, len(m.loggingTags))
	for _, tag := range m.loggingTags {
		requested[tag] = m.requested[tag]
		granted[tag] = m.granted[tag]
		consumed[tag] = m.consumed[tag]
	}
	m.Log.LogPowerStats(Stats{
		Timestamp:       ts,
		CurrentCharge:   m.currentCharge,
		ChargeGenerated: chargeGenerated,
		OutOfPower:      outOfPower,
		Requested:       requested,
		Granted:         granted,
		Consumed:        consumed,
	})

	for _, tag := range m.loggingTags {
		m.requested[tag] = false
		m.granted[tag] = false
		m.consumed[tag] = 0
	}
}
