package datastore

import (
	"testing"

	"github.com/orbitfold/constellation-sim/internal/model"
)

func TestRelayStoreThenNextPayloadFIFO(t *testing.T) {
	r := NewRelay(10)
	r.Store([]byte("hello"), 7)
	r.Store([]byte("world!"), 7)

	if got := r.QueueSize(); got != 2 {
		t.Fatalf("QueueSize() = %d, want 2", got)
	}

	payload, ok := r.NextPayload()
	if !ok || len(payload) != 5 {
		t.Fatalf("NextPayload() = %v, %v, want 5-byte payload", payload, ok)
	}
	payload, ok = r.NextPayload()
	if !ok || len(payload) != 6 {
		t.Fatalf("NextPayload() = %v, %v, want 6-byte payload", payload, ok)
	}
	if _, ok := r.NextPayload(); ok {
		t.Fatal("NextPayload() should be empty after draining both units")
	}
}

func TestRelayDropsWhenQueueFull(t *testing.T) {
	r := NewRelay(1)
	r.Store([]byte("a"), 1)
	r.Store([]byte("b"), 1)

	if got := r.QueueSize(); got != 1 {
		t.Fatalf("QueueSize() = %d, want 1", got)
	}
	if got := r.Dropped(); got != 1 {
		t.Fatalf("Dropped() = %d, want 1", got)
	}
}

func TestRelayIdentityAndAPI(t *testing.T) {
	r := NewRelay(10)
	if r.Name() != "ModelDataRelay" {
		t.Fatalf("Name() = %q, want ModelDataRelay", r.Name())
	}
	if r.ModelTag() != model.TagDataStore {
		t.Fatalf("ModelTag() = %v, want TagDataStore", r.ModelTag())
	}
	if err := r.Execute(); err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}

	if _, err := r.CallAPI("add_data", map[string]any{"data": []byte("xy"), "source_radio": 3}); err != nil {
		t.Fatalf("CallAPI(add_data): %v", err)
	}
	ret, err := r.CallAPI("get_queue_size", nil)
	if err != nil {
		t.Fatalf("CallAPI(get_queue_size): %v", err)
	}
	if size, _ := ret["size"].(int); size != 1 {
		t.Fatalf("get_queue_size = %v, want 1", ret["size"])
	}
}
