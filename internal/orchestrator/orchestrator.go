// Package orchestrator builds a simulation Environment from a scenario
// config document: the Go analogue of the original simulator's
// sim/orchestrator.py.
package orchestrator

import (
	"fmt"
	"log"

	"github.com/orbitfold/constellation-sim/internal/fovindex"
	"github.com/orbitfold/constellation-sim/internal/manager"
	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
	"github.com/orbitfold/constellation-sim/internal/radio"
	"github.com/orbitfold/constellation-sim/internal/simlog"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

const defaultMinElevationDeg = 10.0

// Environment is a fully built simulation: every topology, node and model
// wired together, plus the shared FOV index and the Manager that drives
// the step loop. Loggers is every per-node simlog.Logger the build opened;
// the caller owns closing them once the run finishes.
type Environment struct {
	Topologies []*node.Topology
	NumSteps   int
	Manager    *manager.Manager
	FOV        *fovindex.Index
	Loggers    []*simlog.Logger
}

// Build parses scenarioJSON and constructs the full node/model tree it
// describes, the Go analogue of create_SimEnv. opsLog is the ambient
// run-level logger handed to the Manager; it is distinct from the
// per-node simlog.Logger each node's models write their CSV events to.
func Build(scenarioJSON []byte, numWorkers int, opsLog *log.Logger) (*Environment, error) {
	cfg, err := LoadScenario(scenarioJSON)
	if err != nil {
		return nil, err
	}

	start, err := simtime.Parse(cfg.SimTime.StartTime)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: simtime.starttime: %w", err)
	}
	end, err := simtime.Parse(cfg.SimTime.EndTime)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: simtime.endtime: %w", err)
	}
	numSteps, err := simtime.Sequence(start, end, cfg.SimTime.Delta)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	b := &builder{
		cfg:       cfg,
		start:     start,
		end:       end,
		nodesByID: make(map[int]*node.Node),
	}

	topologies := make([]*node.Topology, 0, len(cfg.Topologies))
	for _, topoCfg := range cfg.Topologies {
		topo := node.NewTopology(topoCfg.Name, topoCfg.ID)
		for _, nodeCfg := range topoCfg.Nodes {
			n, logger, err := b.buildNode(topo.ID, nodeCfg)
			if err != nil {
				return nil, err
			}
			if err := topo.AddNode(n); err != nil {
				return nil, err
			}
			b.nodesByID[n.ID] = n
			b.loggers = append(b.loggers, logger)
		}
		topologies = append(topologies, topo)
	}

	// The FOV index needs every node to exist before it can be built, but
	// each node's buildContext (and the TargetsFunc closures its MAC
	// models captured) was created before that was possible. Patch the
	// index into every already-built context now; the closures only read
	// ctx.fov when Execute actually calls them, long after this point.
	fov := fovindex.New(topologies, start, end, defaultMinElevationDeg)
	for _, ctx := range b.pendingContexts {
		ctx.fov = fov
	}

	mgr := manager.New(topologies, numSteps, numWorkers, opsLog)
	mgr.FOV = fov
	for _, topo := range topologies {
		for _, n := range topo.Nodes() {
			n.SetManager(mgr)
		}
	}

	return &Environment{
		Topologies: topologies,
		NumSteps:   numSteps,
		Manager:    mgr,
		FOV:        fov,
		Loggers:    b.loggers,
	}, nil
}

// builder accumulates scenario-wide state while Build walks the config:
// every node built so far (so a sibling node's models can resolve a peer
// by id via closures that only fire at Execute time, long after the whole
// scenario exists) and every buildContext constructed so far (so the FOV
// index, which needs every node to exist, can be patched into each one
// once Build finishes the node loop).
type builder struct {
	cfg             *ScenarioConfig
	start, end      simtime.Time
	nodesByID       map[int]*node.Node
	loggers         []*simlog.Logger
	pendingContexts []*buildContext
}

func (b *builder) resolveNode(nodeID int) (*node.Node, bool) {
	n, ok := b.nodesByID[nodeID]
	return n, ok
}

func (b *builder) resolveRadio(nodeID int) (*radio.Device, bool) {
	n, ok := b.nodesByID[nodeID]
	if !ok {
		return nil, false
	}
	m, ok := n.HasModelWithTag(model.TagRadio)
	if !ok {
		return nil, false
	}
	dm, ok := m.(*radio.DeviceModel)
	if !ok {
		return nil, false
	}
	return dm.Device(), true
}

func (b *builder) buildNode(topologyID int, nodeCfg NodeConfig) (*node.Node, *simlog.Logger, error) {
	kind, err := node.ParseKind(nodeCfg.Type)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrator: topology %d node %d: %w", topologyID, nodeCfg.NodeID, err)
	}

	level, err := simlog.ParseLevel(nodeCfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrator: node %d: %w", nodeCfg.NodeID, err)
	}
	loggerName := fmt.Sprintf("topology%d_node%d_%s", topologyID, nodeCfg.NodeID, nodeCfg.IName)
	logger, err := simlog.New(b.cfg.SimLogSetup.LogFolder, loggerName, level, b.cfg.SimLogSetup.LogChunkSize)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrator: node %d: opening log: %w", nodeCfg.NodeID, err)
	}

	n := node.New(nodeCfg.IName, nodeCfg.NodeID, topologyID, kind, b.start, b.end, b.cfg.SimTime.Delta)

	ctx := &buildContext{
		node:         n,
		nodeCfg:      nodeCfg,
		logger:       logger,
		deltaSec:     b.cfg.SimTime.Delta,
		resolvePeer:  b.resolveNode,
		resolveNode:  b.resolveNode,
		resolveRadio: b.resolveRadio,
	}
	b.pendingContexts = append(b.pendingContexts, ctx)

	built, err := buildModels(ctx, nodeCfg.Models)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrator: node %d: %w", nodeCfg.NodeID, err)
	}
	n.AddModels(built)
	return n, logger, nil
}
