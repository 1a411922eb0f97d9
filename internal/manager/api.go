package manager

import (
	"context"
	"fmt"
)

// apiHandler mirrors the (self, **kwargs) -> ret shape of
// managerparallel.py's __apiHandlerDictionary entries.
type apiHandler func(m *Manager, args map[string]any) (map[string]any, error)

var apiHandlerTable = map[string]apiHandler{
	"call_model_api_by_name": (*Manager).apiCallModelAPIByName,
	"get_node_info":          (*Manager).apiGetNodeInfo,
	"pause_at_time":          (*Manager).apiPauseAtTime,
	"resume":                 (*Manager).apiResume,
	"get_topologies":         (*Manager).apiGetTopologies,
	"compute_fovs":           (*Manager).apiComputeFOVs,
	"load_fovs":              (*Manager).apiLoadFOVs,
	"run_one_step":           (*Manager).apiRunOneStep,
}

// CallAPI is the runtime API surface of the Manager, the Go equivalent of
// call_APIs in managerparallel.py: it's the boundary the ws/ctl layers (and
// models needing cross-node data) go through instead of reaching into
// Manager internals directly.
func (m *Manager) CallAPI(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	handler, ok := apiHandlerTable[name]
	if !ok {
		return nil, fmt.Errorf("manager: unknown API %q", name)
	}
	if args == nil {
		args = map[string]any{}
	}
	args["_ctx"] = ctx
	return handler(m, args)
}

func argCtx(args map[string]any) context.Context {
	if c, ok := args["_ctx"].(context.Context); ok {
		return c
	}
	return context.Background()
}

// apiCallModelAPIByName is call_ModelAPIsByModelName translated: look a node
// up by topology+id, find its model by name, and invoke the model's API
// table entry.
func (m *Manager) apiCallModelAPIByName(args map[string]any) (map[string]any, error) {
	topologyID, _ := args["topology_id"].(int)
	nodeID, ok := args["node_id"].(int)
	if !ok {
		return nil, fmt.Errorf("manager: call_model_api_by_name requires node_id")
	}
	modelName, ok := args["model_name"].(string)
	if !ok {
		return nil, fmt.Errorf("manager: call_model_api_by_name requires model_name")
	}
	apiName, ok := args["api_name"].(string)
	if !ok {
		return nil, fmt.Errorf("manager: call_model_api_by_name requires api_name")
	}
	apiArgs, _ := args["api_args"].(map[string]any)

	topo, ok := m.GetTopology(topologyID)
	if !ok {
		return nil, fmt.Errorf("manager: call_model_api_by_name: topology %d not found", topologyID)
	}
	n, ok := topo.GetNode(nodeID)
	if !ok {
		return nil, fmt.Errorf("manager: call_model_api_by_name: node %d not found in topology %d", nodeID, topologyID)
	}
	mdl, ok := n.HasModelWithName(modelName)
	if !ok {
		return nil, fmt.Errorf("manager: call_model_api_by_name: node %d has no model %q", nodeID, modelName)
	}
	return mdl.CallAPI(apiName, apiArgs)
}

// apiGetNodeInfo is get_NodeInfo translated: reads node.timestamp or
// node.Position(now) directly rather than through a model, matching the
// original's switch on infoType.
func (m *Manager) apiGetNodeInfo(args map[string]any) (map[string]any, error) {
	topologyID, _ := args["topology_id"].(int)
	nodeID, ok := args["node_id"].(int)
	if !ok {
		return nil, fmt.Errorf("manager: get_node_info requires node_id")
	}
	infoType, ok := args["info_type"].(string)
	if !ok {
		return nil, fmt.Errorf("manager: get_node_info requires info_type")
	}

	topo, ok := m.GetTopology(topologyID)
	if !ok {
		return nil, fmt.Errorf("manager: get_node_info: topology %d not found", topologyID)
	}
	n, ok := topo.GetNode(nodeID)
	if !ok {
		return nil, fmt.Errorf("manager: get_node_info: node %d not found in topology %d", nodeID, topologyID)
	}

	switch infoType {
	case "time":
		return map[string]any{"time": n.Timestamp()}, nil
	case "position":
		return map[string]any{"position": n.Position(n.Timestamp())}, nil
	default:
		return nil, fmt.Errorf("manager: get_node_info: unsupported info_type %q", infoType)
	}
}

// apiPauseAtTime is __pause_AtTime translated.
func (m *Manager) apiPauseAtTime(args map[string]any) (map[string]any, error) {
	step, ok := args["timestep"].(int)
	if !ok {
		return nil, fmt.Errorf("manager: pause_at_time requires timestep")
	}
	armed := m.PauseAtTime(step)
	return map[string]any{"armed": armed}, nil
}

// apiResume is __resume translated.
func (m *Manager) apiResume(args map[string]any) (map[string]any, error) {
	m.Resume()
	return map[string]any{"ok": true}, nil
}

// apiGetTopologies is __get_Topologies translated.
func (m *Manager) apiGetTopologies(args map[string]any) (map[string]any, error) {
	return map[string]any{"topologies": m.Topologies()}, nil
}

// apiComputeFOVs is __compute_FOVs translated: delegates to the Manager's
// FOVBuilder (wired to internal/fovindex at startup) rather than spawning
// OS processes per the original's multiprocessing.Process pool — Go's
// goroutines make the process-pool indirection unnecessary; the FOVBuilder
// is itself responsible for fanning the precompute out across numWorkers
// goroutines.
func (m *Manager) apiComputeFOVs(args map[string]any) (map[string]any, error) {
	if m.FOV == nil {
		return nil, fmt.Errorf("manager: compute_fovs: no FOV builder configured")
	}
	numWorkers, _ := args["num_workers"].(int)
	if numWorkers <= 0 {
		numWorkers = m.numWorkers
	}
	if err := m.FOV.ComputeFOVs(argCtx(args), numWorkers); err != nil {
		return nil, fmt.Errorf("manager: compute_fovs: %w", err)
	}
	if outputPath, ok := args["output_path"].(string); ok && outputPath != "" {
		if err := m.FOV.SaveFOVs(outputPath); err != nil {
			return nil, fmt.Errorf("manager: compute_fovs: save: %w", err)
		}
	}
	return map[string]any{"ok": true}, nil
}

// apiLoadFOVs is __load_FOVs translated.
func (m *Manager) apiLoadFOVs(args map[string]any) (map[string]any, error) {
	if m.FOV == nil {
		return nil, fmt.Errorf("manager: load_fovs: no FOV builder configured")
	}
	inputPath, ok := args["input_path"].(string)
	if !ok {
		return nil, fmt.Errorf("manager: load_fovs requires input_path")
	}
	if err := m.FOV.LoadFOVs(inputPath); err != nil {
		return nil, fmt.Errorf("manager: load_fovs: %w", err)
	}
	return map[string]any{"ok": true}, nil
}

// apiRunOneStep is __run_OneStep translated.
func (m *Manager) apiRunOneStep(args map[string]any) (map[string]any, error) {
	if err := m.RunOneStep(argCtx(args)); err != nil {
		return nil, err
	}
	return map[string]any{"step": m.CurrentStep()}, nil
}
