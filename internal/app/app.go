// Package app wires together the HTTP server, WebSocket hub, and the
// simulation Manager. It owns the daemon's lifecycle and is the single
// source of truth for the current run state.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/orbitfold/constellation-sim/internal/config"
	"github.com/orbitfold/constellation-sim/internal/orchestrator"
	"github.com/orbitfold/constellation-sim/internal/telemetry"
	"github.com/orbitfold/constellation-sim/internal/ws"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger       *log.Logger
	Cfg          config.Config
	Bind         string
	ScenarioPath string
}

// App is the top-level daemon process. It manages the HTTP server, the
// WebSocket event hub, and the simulation run it drives.
type App struct {
	log          *log.Logger
	cfg          config.Config
	bind         string
	scenarioPath string
	server       *http.Server

	startedAt time.Time
	state     atomic.Value // current state string (BOOTING, READY, RUNNING, PAUSED, DONE, FAILED)
	runID     string

	wsHub *ws.Hub
	env   *orchestrator.Environment
}

// New creates an App in the BOOTING state. Call Run to start serving.
func New(opts Options) *App {
	a := &App{
		log:          opts.Logger,
		cfg:          opts.Cfg,
		bind:         opts.Bind,
		scenarioPath: opts.ScenarioPath,
		startedAt:    time.Now(),
		runID:        telemetry.NewRunID(),
		wsHub:        ws.NewHub(),
	}
	a.state.Store("BOOTING")
	return a
}

// Run loads the scenario, builds the simulation environment, starts the
// HTTP server, and drives the Manager's step loop to completion. It blocks
// until ctx is cancelled or the server returns an error; the server keeps
// serving after the run finishes.
func (a *App) Run(ctx context.Context) error {
	bind := a.bind
	if bind == "" && a.cfg.Server.Bind != "" {
		bind = a.cfg.Server.Bind
	}
	if bind == "" {
		bind = "0.0.0.0:8080"
	}

	scenarioJSON, err := os.ReadFile(a.scenarioPath)
	if err != nil {
		return fmt.Errorf("app: read scenario: %w", err)
	}

	env, err := orchestrator.Build(scenarioJSON, a.cfg.Sim.NumWorkers, a.log)
	if err != nil {
		return fmt.Errorf("app: build scenario: %w", err)
	}
	a.env = env
	a.log.Printf("scenario built: %d topologies, %d steps", len(env.Topologies), env.NumSteps)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/api/topologies", a.handleTopologies)
	mux.HandleFunc("/api/node", a.handleNodeInfo)
	mux.HandleFunc("/api/model_call", a.handleModelCall)
	mux.HandleFunc("/api/pause", a.handlePause)
	mux.HandleFunc("/api/resume", a.handleResume)
	mux.HandleFunc("/api/step", a.handleStep)
	mux.HandleFunc("/api/fov/compute", a.handleComputeFOVs)
	mux.HandleFunc("/api/fov/load", a.handleLoadFOVs)
	mux.Handle("/ws", a.wsHub.Handler())

	a.server = &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	a.log.Printf("listening on http://%s", bind)

	go a.wsHub.Run(ctx)
	a.transition("READY")
	go a.heartbeatLoop(ctx)
	go a.runSim(ctx)

	go func() {
		<-ctx.Done()
		a.log.Printf("shutdown requested")
		_ = a.server.Shutdown(context.Background())
	}()

	return a.server.Serve(ln)
}

// runSim drives the Manager's step loop to completion, broadcasting state
// transitions so connected simctl/dashboard clients can follow progress
// without polling.
func (a *App) runSim(ctx context.Context) {
	startedAt := telemetry.NowTS()
	a.transition("RUNNING")
	if err := a.env.Manager.RunSim(ctx); err != nil {
		a.log.Printf("sim: %v", err)
		a.emitLog("error", err.Error())
		a.transition("FAILED")
		a.logSummary(startedAt, "FAILED")
		return
	}
	a.transition("DONE")
	a.logSummary(startedAt, "DONE")
}

// logSummary writes a structured record of the finished run to the daemon
// log, tagged with the run id every WebSocket event carried.
func (a *App) logSummary(startedAt, finalState string) {
	steps := 0
	topologies := 0
	if a.env != nil {
		steps = a.env.Manager.CurrentStep()
		topologies = len(a.env.Topologies)
	}
	summary := telemetry.Summary{
		RunID:         a.runID,
		StartedAt:     startedAt,
		FinishedAt:    telemetry.NowTS(),
		FinalState:    finalState,
		StepsRun:      steps,
		NumTopologies: topologies,
	}
	data, _ := json.Marshal(summary)
	a.log.Printf("run summary: %s", data)
}

// transition atomically updates the daemon state and broadcasts the change
// to all connected WebSocket clients.
func (a *App) transition(newState string) {
	old, _ := a.state.Load().(string)
	if old == newState {
		return
	}
	a.state.Store(newState)

	a.wsHub.BroadcastJSON(telemetry.StateTransition{
		Event: telemetry.Event{Type: telemetry.EventState, TS: telemetry.NowTS(), RunID: a.runID},
		From:  old,
		To:    newState,
	})
}

// heartbeatLoop sends a periodic heartbeat event so clients can detect
// connectivity and track progress without polling the REST API.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			step := 0
			if a.env != nil {
				step = a.env.Manager.CurrentStep()
			}
			a.wsHub.BroadcastJSON(telemetry.Heartbeat{
				Event:         telemetry.Event{Type: telemetry.EventHeartbeat, TS: telemetry.NowTS(), RunID: a.runID},
				State:         a.state.Load().(string),
				UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
				Step:          step,
			})
		}
	}
}

// emit stamps a payload with a timestamp, run id, and component name, then
// pushes it to every connected WebSocket client.
func (a *App) emit(component string, payload map[string]any) {
	payload["ts"] = telemetry.NowTS()
	payload["run_id"] = a.runID
	payload["component"] = component
	a.wsHub.BroadcastJSON(payload)
}

// emitLog broadcasts a typed log line tagged with the run id.
func (a *App) emitLog(level, message string) {
	a.wsHub.BroadcastJSON(telemetry.LogLine{
		Event:   telemetry.Event{Type: telemetry.EventLog, TS: telemetry.NowTS(), RunID: a.runID},
		Level:   level,
		Message: message,
	})
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
