package orchestrator

import (
	"encoding/json"
	"fmt"
)

// ScenarioConfig is the top-level JSON scenario document the CLI takes as
// its one required positional argument.
type ScenarioConfig struct {
	Topologies  []TopologyConfig  `json:"topologies"`
	SimTime     SimTimeConfig     `json:"simtime"`
	SimLogSetup SimLogSetupConfig `json:"simlogsetup"`
}

type TopologyConfig struct {
	Name  string       `json:"name"`
	ID    int          `json:"id"`
	Nodes []NodeConfig `json:"nodes"`
}

type NodeConfig struct {
	Type           string          `json:"type"`
	IName          string          `json:"iname"`
	NodeID         int             `json:"nodeid"`
	LogLevel       string          `json:"loglevel"`
	Latitude       *float64        `json:"latitude,omitempty"`
	Longitude      *float64        `json:"longitude,omitempty"`
	TLE1           string          `json:"tle_1,omitempty"`
	TLE2           string          `json:"tle_2,omitempty"`
	AdditionalArgs string          `json:"additionalargs,omitempty"`
	Models         []ModelConfig   `json:"models"`
}

type SimTimeConfig struct {
	StartTime string  `json:"starttime"`
	EndTime   string  `json:"endtime"`
	Delta     float64 `json:"delta"`
}

type SimLogSetupConfig struct {
	LogHandler   string `json:"loghandler"`
	LogFolder    string `json:"logfolder"`
	LogChunkSize int    `json:"logchunksize"`
}

// ModelConfig is one entry of a node's "models" array. Raw retains the
// whole object so a model's factory can pull its own fields out of it;
// IName is hoisted out during unmarshal since it drives the factory
// lookup in the registry.
type ModelConfig struct {
	IName string
	Raw   json.RawMessage
}

func (m *ModelConfig) UnmarshalJSON(data []byte) error {
	var head struct {
		IName string `json:"iname"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("orchestrator: decoding model entry: %w", err)
	}
	if head.IName == "" {
		return fmt.Errorf("orchestrator: model entry missing required \"iname\"")
	}
	m.IName = head.IName
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// LoadScenario reads and validates a scenario config file's required
// structure. It does not validate per-model fields; those are the
// responsibility of each model's factory.
func LoadScenario(data []byte) (*ScenarioConfig, error) {
	var cfg ScenarioConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("orchestrator: parsing scenario config: %w", err)
	}
	if cfg.SimTime.StartTime == "" || cfg.SimTime.EndTime == "" {
		return nil, fmt.Errorf("orchestrator: simtime.starttime and simtime.endtime are required")
	}
	if cfg.SimTime.Delta <= 0 {
		return nil, fmt.Errorf("orchestrator: simtime.delta must be positive, got %v", cfg.SimTime.Delta)
	}
	if len(cfg.Topologies) == 0 {
		return nil, fmt.Errorf("orchestrator: at least one topology is required")
	}
	for _, topo := range cfg.Topologies {
		if topo.Name == "" {
			return nil, fmt.Errorf("orchestrator: topology missing required \"name\"")
		}
	}
	if cfg.SimLogSetup.LogFolder == "" {
		return nil, fmt.Errorf("orchestrator: simlogsetup.logfolder is required")
	}
	if cfg.SimLogSetup.LogChunkSize <= 0 {
		return nil, fmt.Errorf("orchestrator: simlogsetup.logchunksize must be positive, got %d", cfg.SimLogSetup.LogChunkSize)
	}
	return &cfg, nil
}
