package telemetry

import (
	"encoding/json"
	"testing"
)

func TestNewRunIDIsUnique(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	if a == "" || b == "" {
		t.Fatal("NewRunID returned an empty string")
	}
	if a == b {
		t.Fatalf("expected distinct run ids, got %q twice", a)
	}
}

func TestHeartbeatMarshalsRunID(t *testing.T) {
	hb := Heartbeat{
		Event:         Event{Type: EventHeartbeat, TS: NowTS(), RunID: "run-1"},
		State:         "RUNNING",
		UptimeSeconds: 42,
		Step:          7,
	}
	data, err := json.Marshal(hb)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["run_id"] != "run-1" {
		t.Fatalf("run_id = %v, want run-1", decoded["run_id"])
	}
	if decoded["step"].(float64) != 7 {
		t.Fatalf("step = %v, want 7", decoded["step"])
	}
}

func TestStateTransitionMarshalsFromTo(t *testing.T) {
	st := StateTransition{
		Event: Event{Type: EventState, TS: NowTS(), RunID: "run-1"},
		From:  "READY",
		To:    "RUNNING",
	}
	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["from"] != "READY" || decoded["to"] != "RUNNING" {
		t.Fatalf("from/to = %v/%v, want READY/RUNNING", decoded["from"], decoded["to"])
	}
}
