package datastore

import (
	"testing"

	"github.com/orbitfold/constellation-sim/internal/model"
	"github.com/orbitfold/constellation-sim/internal/node"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

func newTestNode() *node.Node {
	start, _ := simtime.Parse("2026-01-01 00:00:00")
	end, _ := simtime.Parse("2026-01-01 01:00:00")
	return node.New("test", 1, 0, node.KindEndDevice, start, end, 1)
}

func TestGeneratorExecuteEnqueuesSampledCount(t *testing.T) {
	g := NewGenerator(newTestNode(), 5, 64, 3000)
	g.sample = func(lambda float64) int { return 5 }

	if err := g.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := g.QueueSize(); got != 5 {
		t.Fatalf("QueueSize() = %d, want 5", got)
	}
}

func TestGeneratorQueueCapsAtBound(t *testing.T) {
	g := NewGenerator(newTestNode(), 5, 64, 3000)
	g.sample = func(lambda float64) int { return 2000 }

	for i := 0; i < 2; i++ {
		if err := g.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}
	if got := g.QueueSize(); got != 3000 {
		t.Fatalf("QueueSize() = %d, want capped at 3000", got)
	}
}

func TestGeneratorNextPayloadReturnsSizedPayload(t *testing.T) {
	g := NewGenerator(newTestNode(), 5, 64, 3000)
	g.sample = func(lambda float64) int { return 1 }
	if err := g.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	payload, ok := g.NextPayload()
	if !ok {
		t.Fatal("NextPayload() = false, want true after Execute enqueued a unit")
	}
	if len(payload) != 64 {
		t.Fatalf("len(payload) = %d, want 64", len(payload))
	}
	if _, ok := g.NextPayload(); ok {
		t.Fatal("NextPayload() should be empty after draining the one queued unit")
	}
}

func TestGeneratorIdentityAndAPI(t *testing.T) {
	g := NewGenerator(newTestNode(), 5, 64, 3000)
	if g.Name() != "ModelDataGenerator" {
		t.Fatalf("Name() = %q, want ModelDataGenerator", g.Name())
	}
	if g.ModelTag() != model.TagDataGenerator {
		t.Fatalf("ModelTag() = %v, want TagDataGenerator", g.ModelTag())
	}

	g.sample = func(lambda float64) int { return 1 }
	if err := g.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	ret, err := g.CallAPI("get_queue_size", nil)
	if err != nil {
		t.Fatalf("CallAPI(get_queue_size): %v", err)
	}
	if size, _ := ret["size"].(int); size != 1 {
		t.Fatalf("get_queue_size = %v, want 1", ret["size"])
	}

	ret, err = g.CallAPI("get_data", nil)
	if err != nil {
		t.Fatalf("CallAPI(get_data): %v", err)
	}
	if ok, _ := ret["ok"].(bool); !ok {
		t.Fatal("CallAPI(get_data) ok = false, want true")
	}
}

func TestPoissonSampleNonPositiveLambdaIsZero(t *testing.T) {
	if got := poissonSample(0); got != 0 {
		t.Fatalf("poissonSample(0) = %d, want 0", got)
	}
	if got := poissonSample(-1); got != 0 {
		t.Fatalf("poissonSample(-1) = %d, want 0", got)
	}
}
