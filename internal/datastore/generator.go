package datastore

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
)

// poissonSample draws a Poisson(lambda)-distributed integer. A nil Src
// falls back to gonum's global generator, matching every other distuv
// distribution's zero-value behavior.
func poissonSample(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda}.Rand())
}

// Generator is the onboard application-data source (ModelDataGenerator):
// each step it draws a Poisson-distributed count of new units and enqueues
// them, up to the queue's capacity. Grounded on
// test_datageneration.py, which asserts the queue grows at ~lambda units
// per step and saturates at a fixed maximum.
type Generator struct {
	model.Base

	ownerNode   *node.Node
	queue       *Queue
	ratePerStep float64
	unitSize    int
	sample      func(lambda float64) int
}

// NewGenerator constructs a data generator producing units of unitSize
// bytes at a mean rate of ratePerStep per simulated step, queued in a
// bounded buffer of the given capacity.
func NewGenerator(ownerNode *node.Node, ratePerStep float64, unitSize, capacity int) *Generator {
	g := &Generator{
		ownerNode:   ownerNode,
		queue:       NewQueue(capacity),
		ratePerStep: ratePerStep,
		unitSize:    unitSize,
		sample:      poissonSample,
	}
	g.Base = model.Base{
		NameValue: "ModelDataGenerator",
		TagValue:  model.TagDataGenerator,
		APIs: map[string]model.API{
			"get_queue_size": g.apiGetQueueSize,
			"get_data":       g.apiGetData,
		},
	}
	return g
}

// QueueSize reports the number of units currently queued.
func (g *Generator) QueueSize() int { return g.queue.Len() }

// NextPayload implements mac.DataSource: pop the oldest queued unit and
// hand back a byte slice of its size (the payload content itself carries
// no meaning in this simulator, only its length).
func (g *Generator) NextPayload() ([]byte, bool) {
	u, ok := g.queue.Get()
	if !ok {
		return nil, false
	}
	return make([]byte, u.Size), true
}

// Execute draws this step's Poisson arrival count and enqueues that many
// new units, timestamped at the owner node's current time.
func (g *Generator) Execute() error {
	n := g.sample(g.ratePerStep)
	now := g.ownerNode.Timestamp()
	for i := 0; i < n; i++ {
		g.queue.Put(Unit{
			ID:           NextUnitID(),
			CreationTime: now,
			SourceNodeID: g.ownerNode.ID,
			Size:         g.unitSize,
		})
	}
	return nil
}

func (g *Generator) apiGetQueueSize(args map[string]any) (map[string]any, error) {
	return map[string]any{"size": g.queue.Len()}, nil
}

func (g *Generator) apiGetData(args map[string]any) (map[string]any, error) {
	payload, ok := g.NextPayload()
	return map[string]any{"payload": payload, "ok": ok}, nil
}
