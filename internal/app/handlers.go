package app

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

func (a *App) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"state":          a.state.Load().(string),
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
	}
	if a.env != nil {
		resp["current_step"] = a.env.Manager.CurrentStep()
		resp["num_steps"] = a.env.NumSteps
		resp["topologies"] = len(a.env.Topologies)
	}
	if a.cfg.Sim.FOVDataRoot != "" {
		if du := diskUsage(a.cfg.Sim.FOVDataRoot); du != nil {
			resp["fov_data_disk"] = du
		}
	}
	writeJSON(w, resp)
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"version":    Version,
		"go_version": GoVersion,
		"built_at":   BuiltAt,
	})
}

type nodeSummary struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Models []string `json:"models"`
}

type topologySummary struct {
	ID    int           `json:"id"`
	Name  string        `json:"name"`
	Nodes []nodeSummary `json:"nodes"`
}

func (a *App) handleTopologies(w http.ResponseWriter, _ *http.Request) {
	if a.env == nil {
		jsonError(w, http.StatusServiceUnavailable, "scenario not yet built")
		return
	}
	out := make([]topologySummary, 0, len(a.env.Topologies))
	for _, topo := range a.env.Topologies {
		ts := topologySummary{ID: topo.ID, Name: topo.Name}
		for _, n := range topo.Nodes() {
			names := make([]string, 0, len(n.Models()))
			for _, m := range n.Models() {
				names = append(names, m.Name())
			}
			ts.Nodes = append(ts.Nodes, nodeSummary{
				ID:     n.ID,
				Name:   n.IName,
				Kind:   n.Kind.String(),
				Models: names,
			})
		}
		out = append(out, ts)
	}
	writeJSON(w, map[string]any{"topologies": out})
}

func (a *App) handleNodeInfo(w http.ResponseWriter, r *http.Request) {
	if a.env == nil {
		jsonError(w, http.StatusServiceUnavailable, "scenario not yet built")
		return
	}
	q := r.URL.Query()
	topologyID, _ := strconv.Atoi(q.Get("topology_id"))
	nodeID, err := strconv.Atoi(q.Get("node_id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "node_id is required")
		return
	}
	infoType := q.Get("info_type")
	if infoType == "" {
		infoType = "position"
	}

	result, err := a.env.Manager.CallAPI(r.Context(), "get_node_info", map[string]any{
		"topology_id": topologyID,
		"node_id":     nodeID,
		"info_type":   infoType,
	})
	if err != nil {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, formatNodeInfo(infoType, result))
}

// formatNodeInfo reshapes the raw CallAPI result into JSON-friendly values;
// simtime.Time and geo.Position don't marshal usefully on their own.
func formatNodeInfo(infoType string, result map[string]any) map[string]any {
	out := map[string]any{}
	switch infoType {
	case "time":
		if t, ok := result["time"]; ok {
			out["time"] = stringer(t)
		}
	case "position":
		if p, ok := result["position"].(interface {
			Geodetic() (float64, float64, float64)
		}); ok {
			lat, lon, elev := p.Geodetic()
			out["latitude_deg"] = lat
			out["longitude_deg"] = lon
			out["elevation_m"] = elev
		}
	}
	return out
}

func stringer(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

type modelCallRequest struct {
	TopologyID int            `json:"topology_id"`
	NodeID     int            `json:"node_id"`
	ModelName  string         `json:"model_name"`
	APIName    string         `json:"api_name"`
	APIArgs    map[string]any `json:"api_args"`
}

func (a *App) handleModelCall(w http.ResponseWriter, r *http.Request) {
	if a.env == nil {
		jsonError(w, http.StatusServiceUnavailable, "scenario not yet built")
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req modelCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	result, err := a.env.Manager.CallAPI(r.Context(), "call_model_api_by_name", map[string]any{
		"topology_id": req.TopologyID,
		"node_id":     req.NodeID,
		"model_name":  req.ModelName,
		"api_name":    req.APIName,
		"api_args":    req.APIArgs,
	})
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, result)
}

type pauseRequest struct {
	Timestep int `json:"timestep"`
}

func (a *App) handlePause(w http.ResponseWriter, r *http.Request) {
	if a.env == nil {
		jsonError(w, http.StatusServiceUnavailable, "scenario not yet built")
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req pauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	armed := a.env.Manager.PauseAtTime(req.Timestep)
	if armed {
		a.transition("PAUSED")
		a.emit("run", map[string]any{"type": "pause_armed", "timestep": req.Timestep})
	}
	writeJSON(w, map[string]any{"armed": armed})
}

func (a *App) handleResume(w http.ResponseWriter, r *http.Request) {
	if a.env == nil {
		jsonError(w, http.StatusServiceUnavailable, "scenario not yet built")
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	a.env.Manager.Resume()
	a.transition("RUNNING")
	a.emit("run", map[string]any{"type": "resumed"})
	writeJSON(w, map[string]any{"ok": true})
}

func (a *App) handleStep(w http.ResponseWriter, r *http.Request) {
	if a.env == nil {
		jsonError(w, http.StatusServiceUnavailable, "scenario not yet built")
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if err := a.env.Manager.RunOneStep(r.Context()); err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	step := a.env.Manager.CurrentStep()
	a.emit("run", map[string]any{"type": "step", "step": step})
	writeJSON(w, map[string]any{"step": step})
}

type fovComputeRequest struct {
	NumWorkers int    `json:"num_workers"`
	OutputPath string `json:"output_path"`
}

func (a *App) handleComputeFOVs(w http.ResponseWriter, r *http.Request) {
	if a.env == nil {
		jsonError(w, http.StatusServiceUnavailable, "scenario not yet built")
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req fovComputeRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	args := map[string]any{"num_workers": req.NumWorkers}
	if req.OutputPath != "" {
		args["output_path"] = req.OutputPath
	}
	if _, err := a.env.Manager.CallAPI(r.Context(), "compute_fovs", args); err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

type fovLoadRequest struct {
	InputPath string `json:"input_path"`
}

func (a *App) handleLoadFOVs(w http.ResponseWriter, r *http.Request) {
	if a.env == nil {
		jsonError(w, http.StatusServiceUnavailable, "scenario not yet built")
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req fovLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InputPath == "" {
		jsonError(w, http.StatusBadRequest, "input_path is required")
		return
	}
	if _, err := a.env.Manager.CallAPI(r.Context(), "load_fovs", map[string]any{"input_path": req.InputPath}); err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}
