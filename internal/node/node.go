// Package node implements the Node and Topology container types, grounded
// on the original simulator's nodes/inode.py and nodes/topology.py.
package node

import (
	"fmt"
	"sync"

	"github.com/orbitfold/constellation-sim/internal/geo"
	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// Kind is the entity kind a Node represents.
type Kind int

const (
	KindSatellite Kind = iota
	KindGroundStation
	KindEndDevice
)

func (k Kind) String() string {
	switch k {
	case KindSatellite:
		return "SAT"
	case KindGroundStation:
		return "GS"
	case KindEndDevice:
		return "IoT"
	default:
		return "unknown"
	}
}

// ParseKind maps the config "type" string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "SAT":
		return KindSatellite, nil
	case "GS":
		return KindGroundStation, nil
	case "IoT":
		return KindEndDevice, nil
	default:
		return 0, fmt.Errorf("node: unknown node type %q", s)
	}
}

// ManagerHandle is the narrow slice of the Manager a Node needs: the
// ability to read back-pointers without importing the manager package
// (which itself depends on node), avoiding an import cycle.
type ManagerHandle interface {
	GetTopology(id int) (*Topology, bool)
}

// Node is a uniquely-id'd entity within a Topology.
type Node struct {
	IName      string
	ID         int
	TopologyID int
	Kind       Kind

	mu            sync.RWMutex
	timestamp     simtime.Time
	simStart      simtime.Time
	simEnd        simtime.Time
	delta         float64
	fixedPosition *geo.Position
	positionAt    func(simtime.Time) geo.Position

	models      []model.Model
	byName      map[string]model.Model
	byTag       map[model.Tag][]model.Model

	manager ManagerHandle
}

// New constructs a Node whose timestamp starts at simStart. Its position
// comes from SetPositionFunc for entities that move (satellites, via the
// orbital model) or SetFixedPosition for stationary entities (ground
// stations, end devices).
func New(iname string, id, topologyID int, kind Kind, simStart, simEnd simtime.Time, delta float64) *Node {
	return &Node{
		IName:      iname,
		ID:         id,
		TopologyID: topologyID,
		Kind:       kind,
		timestamp:  simStart,
		simStart:   simStart,
		simEnd:     simEnd,
		delta:      delta,
		byName:     make(map[string]model.Model),
		byTag:      make(map[model.Tag][]model.Model),
	}
}

// SetFixedPosition marks the node as stationary at the given position.
func (n *Node) SetFixedPosition(p geo.Position) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fixedPosition = &p
}

// SetPositionFunc installs a time-varying position source (e.g. backed by
// an orbital propagator).
func (n *Node) SetPositionFunc(f func(simtime.Time) geo.Position) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.positionAt = f
}

// Position returns the node's position at t.
func (n *Node) Position(t simtime.Time) geo.Position {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.positionAt != nil {
		return n.positionAt(t)
	}
	if n.fixedPosition != nil {
		return *n.fixedPosition
	}
	return geo.Position{}
}

// Timestamp returns a copy of the node's current simulated time.
func (n *Node) Timestamp() simtime.Time {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.timestamp.Copy()
}

// Advance moves the node's timestamp forward by one delta. Execute calls
// it once every model has run for the step.
func (n *Node) Advance() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.timestamp = n.timestamp.AddSeconds(n.delta)
}

func (n *Node) SimStartTime() simtime.Time { return n.simStart }
func (n *Node) SimEndTime() simtime.Time   { return n.simEnd }
func (n *Node) DeltaTime() float64         { return n.delta }

// SetManager wires the node's back-reference to the Manager.
func (n *Node) SetManager(m ManagerHandle) { n.manager = m }

// Manager returns the node's Manager back-reference.
func (n *Node) Manager() ManagerHandle { return n.manager }

// AddModels appends models to the node's ordered list, indexing by name
// and by tag. Callers (the orchestrator) are responsible for dependency
// and uniqueness validation before calling this.
func (n *Node) AddModels(models []model.Model) {
	for _, m := range models {
		n.models = append(n.models, m)
		n.byName[m.Name()] = m
		n.byTag[m.ModelTag()] = append(n.byTag[m.ModelTag()], m)
	}
}

// Models returns the node's ordered model list.
func (n *Node) Models() []model.Model { return n.models }

// HasModelWithName returns the model with the given name, if present.
func (n *Node) HasModelWithName(name string) (model.Model, bool) {
	m, ok := n.byName[name]
	return m, ok
}

// HasModelWithTag returns the first model carrying tag, if present.
func (n *Node) HasModelWithTag(tag model.Tag) (model.Model, bool) {
	ms := n.byTag[tag]
	if len(ms) == 0 {
		return nil, false
	}
	return ms[0], true
}

// Execute runs every model in declared order, once. The first error
// encountered aborts the node's step and is returned to the caller, who
// per spec.md §4.1 aborts the whole run.
func (n *Node) Execute() error {
	for _, m := range n.models {
		if err := m.Execute(); err != nil {
			return fmt.Errorf("node %d (%s): model %s: %w", n.ID, n.IName, m.Name(), err)
		}
	}
	n.Advance()
	return nil
}

// Topology is a labelled set of Nodes with a numeric id.
type Topology struct {
	Name string
	ID   int

	mu        sync.RWMutex
	nodes     []*Node
	byID      map[int]*Node
}

// NewTopology constructs an empty Topology.
func NewTopology(name string, id int) *Topology {
	return &Topology{Name: name, ID: id, byID: make(map[int]*Node)}
}

// AddNode appends a node to the topology, rejecting a duplicate node id.
func (t *Topology) AddNode(n *Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.byID[n.ID]; exists {
		return fmt.Errorf("topology %d: node id %d already exists", t.ID, n.ID)
	}
	t.nodes = append(t.nodes, n)
	t.byID[n.ID] = n
	return nil
}

// GetNode looks a node up by id.
func (t *Topology) GetNode(id int) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.byID[id]
	return n, ok
}

// Nodes returns every node in the topology, in insertion order.
func (t *Topology) Nodes() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// NodesOfKind returns every node of the given kind.
func (t *Topology) NodesOfKind(kind Kind) []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Node
	for _, n := range t.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
