// Package manager implements the simulation runtime: the fixed-step
// execution loop, a worker pool that fans each step out across nodes, and a
// cooperative pause/resume gate. Grounded on the original simulator's
// sim/managerparallel.py, which drives one thread pool per step and
// synchronizes on a pair of threading.Event objects to implement pausing.
package manager

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/orbitfold/constellation-sim/internal/node"
)

// FOVBuilder is the narrow interface the Manager needs from internal/fovindex
// to implement the compute_fovs API (which can also save the result to a
// file) and the load_fovs API. Kept here (rather
// than importing fovindex directly) so fovindex can depend on node/model
// without creating an import cycle back through manager.
type FOVBuilder interface {
	ComputeFOVs(ctx context.Context, numWorkers int) error
	LoadFOVs(path string) error
	SaveFOVs(path string) error
}

// pauseGate implements the __stoppingCondition / __resumingCondition pair
// from managerparallel.py as Go channels instead of threading.Event: a
// Manager run loop checks armed/armedStep at the top of each step, and
// blocks on resumeCh when paused. pausedCh is closed (once, idempotently
// guarded by pausedOnce) the instant the loop actually stops. Nothing
// outside the gate reads pausedCh: PauseAtTime only reports whether the
// pause was armed, and gives its caller nothing to block on.
type pauseGate struct {
	mu         sync.Mutex
	armed      bool
	armedStep  int
	pausedCh   chan struct{}
	pausedOnce sync.Once
	resumeCh   chan struct{}
}

func newPauseGate() *pauseGate {
	return &pauseGate{resumeCh: make(chan struct{}, 1)}
}

// arm schedules a pause at step. Overwrites any previously armed step, per
// managerparallel.py's __pause_AtTime doc comment ("This will overwrite the
// previous pause"). Returns false if step has already passed.
func (g *pauseGate) arm(currentStep, step int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if step < currentStep {
		return false
	}
	g.armed = true
	g.armedStep = step
	g.pausedCh = make(chan struct{})
	g.pausedOnce = sync.Once{}
	return true
}

// checkAndWait blocks the run loop if step is the armed pause point. Called
// once per step, before that step's node fan-out.
func (g *pauseGate) checkAndWait(step int) {
	g.mu.Lock()
	if !g.armed || g.armedStep != step {
		g.mu.Unlock()
		return
	}
	g.armed = false
	pausedCh := g.pausedCh
	g.mu.Unlock()

	g.pausedOnce.Do(func() { close(pausedCh) })
	<-g.resumeCh
}

// resume unblocks a loop currently parked in checkAndWait. resumeCh holds
// one token: if the loop is not paused, the token stays buffered (further
// calls are dropped) and the next pause the loop reaches returns at once.
func (g *pauseGate) resume() {
	select {
	case g.resumeCh <- struct{}{}:
	default:
	}
}

// Manager owns the topologies under simulation and drives their step loop.
// It implements node.ManagerHandle so nodes can look up topologies (and,
// through them, peer nodes) via their back-reference.
type Manager struct {
	Log *log.Logger

	topologyOrder []int
	topologies    map[int]*node.Topology
	numSteps      int
	numWorkers int

	currentStep int
	stepMu      sync.Mutex

	gate *pauseGate

	FOV FOVBuilder
}

// New constructs a Manager over topologies, wires each node's back-reference,
// and returns it ready to run. numSteps and numWorkers mirror
// numOfSimSteps/numOfWorkers from the original's simEnv kwargs.
func New(topologies []*node.Topology, numSteps, numWorkers int, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	m := &Manager{
		Log:        logger,
		topologies: make(map[int]*node.Topology, len(topologies)),
		numSteps:   numSteps,
		numWorkers: numWorkers,
		gate:       newPauseGate(),
	}
	for _, t := range topologies {
		m.topologies[t.ID] = t
		m.topologyOrder = append(m.topologyOrder, t.ID)
		for _, n := range t.Nodes() {
			n.SetManager(m)
		}
	}
	return m
}

// GetTopology implements node.ManagerHandle.
func (m *Manager) GetTopology(id int) (*node.Topology, bool) {
	t, ok := m.topologies[id]
	return t, ok
}

// Topologies returns every topology the Manager is driving, in construction order.
func (m *Manager) Topologies() []*node.Topology {
	out := make([]*node.Topology, 0, len(m.topologyOrder))
	for _, id := range m.topologyOrder {
		out = append(out, m.topologies[id])
	}
	return out
}

// CurrentStep returns the step counter the run loop is currently on (or
// about to execute, before the loop has started).
func (m *Manager) CurrentStep() int {
	m.stepMu.Lock()
	defer m.stepMu.Unlock()
	return m.currentStep
}

// PauseAtTime arms a pause at the given step, per __pause_AtTime. Returns
// false if step has already been passed.
func (m *Manager) PauseAtTime(step int) bool {
	return m.gate.arm(m.CurrentStep(), step)
}

// Resume unblocks a run loop parked on a pause, per __resume.
func (m *Manager) Resume() {
	m.gate.resume()
}

// RunSim runs the fixed-step simulation to completion or until ctx is
// cancelled. Each step fans every node's Execute() out across numWorkers
// goroutines and joins before advancing, mirroring the original's
// ThreadPoolExecutor-per-step synchronization so nodes never drift out of
// lockstep.
func (m *Manager) RunSim(ctx context.Context) error {
	for {
		m.stepMu.Lock()
		step := m.currentStep
		done := step >= m.numSteps
		m.stepMu.Unlock()
		if done {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m.gate.checkAndWait(step)

		if step%60 == 0 {
			m.Log.Printf("sim: step %d/%d", step, m.numSteps)
		}

		if err := m.runStep(ctx); err != nil {
			return err
		}

		m.stepMu.Lock()
		m.currentStep++
		m.stepMu.Unlock()
	}
}

// runStep executes every node across every topology for the current step,
// using a bounded worker pool, and returns the first error encountered (if
// any) after every node has finished — so a failing node never leaves its
// peers mid-step.
func (m *Manager) runStep(ctx context.Context) error {
	var nodes []*node.Node
	for _, t := range m.Topologies() {
		nodes = append(nodes, t.Nodes()...)
	}

	if m.numWorkers <= 1 {
		var firstErr error
		for _, n := range nodes {
			if err := n.Execute(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	sem := make(chan struct{}, m.numWorkers)
	errCh := make(chan error, len(nodes))
	var wg sync.WaitGroup
	for _, n := range nodes {
		n := n
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := n.Execute(); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var firstErr error
	for err := range errCh {
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RunOneStep executes a single step immediately, outside the RunSim loop —
// the Go analogue of the __run_OneStep API, useful for interactive/REPL
// control via simctl.
func (m *Manager) RunOneStep(ctx context.Context) error {
	if err := m.runStep(ctx); err != nil {
		return fmt.Errorf("manager: step %d: %w", m.CurrentStep(), err)
	}
	m.stepMu.Lock()
	m.currentStep++
	m.stepMu.Unlock()
	return nil
}
