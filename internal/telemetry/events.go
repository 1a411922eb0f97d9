// Package telemetry defines the typed event structs that flow over the
// WebSocket connection between simd and its clients, and the run-id tagging
// that lets a client watching across a reconnect tell one simd run apart
// from the next. These types document the event schema; handlers that need
// to attach extra ad-hoc fields still assemble map[string]any payloads.
package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of WebSocket event.
type EventType string

const (
	EventHeartbeat EventType = "heartbeat"
	EventState     EventType = "state"
	EventStep      EventType = "step"
	EventLog       EventType = "log"
)

// NewRunID generates a fresh identifier for one simd run, stamped onto every
// event the run emits.
func NewRunID() string {
	return uuid.NewString()
}

// Event is the base envelope shared by every event type.
type Event struct {
	Type  EventType `json:"type"`
	TS    string    `json:"ts"`
	RunID string    `json:"run_id"`
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching the
// timestamp format used across all events.
func NowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Heartbeat is sent periodically so clients can detect connectivity and
// monitor run progress.
type Heartbeat struct {
	Event
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Step          int    `json:"step"`
}

// StateTransition is emitted whenever the daemon moves between run states
// (e.g. READY -> RUNNING -> DONE).
type StateTransition struct {
	Event
	From string `json:"from"`
	To   string `json:"to"`
}

// LogLine carries a human-readable log message at a severity level.
type LogLine struct {
	Event
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Summary is the structured record of a finished run, suitable for
// persisting alongside the per-node simlog output.
type Summary struct {
	RunID         string `json:"run_id"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at"`
	FinalState    string `json:"final_state"`
	StepsRun      int    `json:"steps_run"`
	NumTopologies int    `json:"num_topologies"`
}
