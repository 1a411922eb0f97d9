package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http/httptest"
	"testing"

	"github.com/orbitfold/constellation-sim/internal/orchestrator"
)

func testScenarioJSON(logFolder string) []byte {
	return []byte(fmt.Sprintf(`{
		"topologies": [{
			"name": "test",
			"id": 0,
			"nodes": [{
				"type": "GS",
				"iname": "GroundStation",
				"nodeid": 1,
				"loglevel": "info",
				"latitude": 10.0,
				"longitude": 20.0,
				"models": [
					{"iname": "ModelFixedOrbit", "altitude_meters": 0}
				]
			}]
		}],
		"simtime": {"starttime": "2024-01-01 00:00:00", "endtime": "2024-01-01 00:01:00", "delta": 1},
		"simlogsetup": {"loghandler": "file", "logfolder": %q, "logchunksize": 1024}
	}`, logFolder))
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	env, err := orchestrator.Build(testScenarioJSON(t.TempDir()), 1, log.Default())
	if err != nil {
		t.Fatalf("orchestrator.Build: %v", err)
	}
	t.Cleanup(func() {
		for _, l := range env.Loggers {
			l.Close()
		}
	})

	a := New(Options{Logger: log.Default()})
	a.env = env
	a.state.Store("READY")
	return a
}

func TestHandleStatusReportsStepCount(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()
	a.handleStatus(rec, req)

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["num_steps"].(float64) != 60 {
		t.Fatalf("num_steps = %v, want 60", body["num_steps"])
	}
}

func TestHandleTopologiesListsNodesAndModels(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/topologies", nil)
	rec := httptest.NewRecorder()
	a.handleTopologies(rec, req)

	var body struct {
		Topologies []topologySummary `json:"topologies"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Topologies) != 1 {
		t.Fatalf("topologies = %d, want 1", len(body.Topologies))
	}
	if len(body.Topologies[0].Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(body.Topologies[0].Nodes))
	}
	if body.Topologies[0].Nodes[0].Models[0] != "ModelFixedOrbit" {
		t.Fatalf("models = %v, want [ModelFixedOrbit]", body.Topologies[0].Nodes[0].Models)
	}
}

func TestHandleStepAdvancesCurrentStep(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/step", nil)
	rec := httptest.NewRecorder()
	a.handleStep(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if a.env.Manager.CurrentStep() != 1 {
		t.Fatalf("CurrentStep = %d, want 1", a.env.Manager.CurrentStep())
	}
}

func TestHandleNodeInfoReturnsPosition(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/node?node_id=1&info_type=position", nil)
	rec := httptest.NewRecorder()
	a.handleNodeInfo(rec, req)

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["latitude_deg"]; !ok {
		t.Fatalf("expected latitude_deg in response, got %v", body)
	}
}

func TestNewAssignsDistinctRunIDs(t *testing.T) {
	a1 := New(Options{Logger: log.Default()})
	a2 := New(Options{Logger: log.Default()})
	if a1.runID == "" {
		t.Fatal("runID is empty")
	}
	if a1.runID == a2.runID {
		t.Fatalf("expected distinct run ids, got %q for both", a1.runID)
	}
}

func TestHandlePauseArmsGate(t *testing.T) {
	a := newTestApp(t)

	body, _ := json.Marshal(pauseRequest{Timestep: 5})
	req := httptest.NewRequest("POST", "/api/pause", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	a.handlePause(rec, req)

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["armed"] != true {
		t.Fatalf("armed = %v, want true", resp["armed"])
	}
}
