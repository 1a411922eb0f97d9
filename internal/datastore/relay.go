package datastore

import (
	"github.com/orbitfold/constellation-sim/internal/mac"
	"github.com/orbitfold/constellation-sim/internal/model"
)

// Relay is the onboard data store (ModelDataRelay): it accepts data units
// extracted from inbound frames (via Store, satisfying mac.DataSink) and
// holds them in a bounded outbound queue for whichever MAC state machine
// relays them onward (via NextPayload, satisfying mac.DataSource).
// Grounded on modeldatarelay.py's Execute, which drains a radio's received
// packets straight into the next hop's transmit queue every step; this
// collapses that poll loop into a direct Store call made by the MAC layer
// as frames arrive, since there is no separate "radio model to poll" step
// boundary in this design (see internal/mac's gateway/ground-station state
// machines).
type Relay struct {
	model.Base

	queue    *Queue
	received int
	dropped  int
}

// NewRelay constructs a relay with a bounded outbound queue of the given
// capacity.
func NewRelay(capacity int) *Relay {
	r := &Relay{queue: NewQueue(capacity)}
	r.Base = model.Base{
		NameValue: "ModelDataRelay",
		TagValue:  model.TagDataStore,
		Dependencies: [][]string{
			{"ModelGenericRadio", "ModelLoraRadio", "ModelAggregatorRadio", "ModelImagingRadio"},
		},
		APIs: map[string]model.API{
			"add_data":       r.apiAddData,
			"get_queue_size": r.apiGetQueueSize,
		},
	}
	return r
}

// Store implements mac.DataSink: a received payload is queued for
// onward transmission, tagged with its originating node so relay hops can
// be told apart in Stats/logging.
func (r *Relay) Store(payload []byte, sourceRadio int) {
	u := Unit{
		ID:           NextUnitID(),
		SourceNodeID: sourceRadio,
		Size:         len(payload),
	}
	if !r.queue.Put(u) {
		r.dropped++
		return
	}
	r.received++
}

// NextPayload implements mac.DataSource: pop the oldest queued unit for
// the relaying MAC state machine to send onward.
func (r *Relay) NextPayload() ([]byte, bool) {
	u, ok := r.queue.Get()
	if !ok {
		return nil, false
	}
	return make([]byte, u.Size), true
}

// Pull implements mac.DataProvider: a TTnC downlink satellite asks for up
// to n units to serve a ground station's request, identified by id so a
// later bulk-ack can be matched back to them.
func (r *Relay) Pull(n int) []mac.DataUnit {
	out := make([]mac.DataUnit, 0, n)
	for i := 0; i < n; i++ {
		u, ok := r.queue.Get()
		if !ok {
			break
		}
		out = append(out, mac.DataUnit{ID: u.ID, Payload: make([]byte, u.Size)})
	}
	return out
}

// QueueSize reports the number of units currently queued for relay.
func (r *Relay) QueueSize() int { return r.queue.Len() }

// Dropped reports how many units were rejected because the outbound queue
// was full.
func (r *Relay) Dropped() int { return r.dropped }

// Execute is a no-op: relaying happens as Store is called by the MAC
// layer, not on a per-step poll.
func (r *Relay) Execute() error { return nil }

func (r *Relay) apiAddData(args map[string]any) (map[string]any, error) {
	payload, _ := args["data"].([]byte)
	source, _ := args["source_radio"].(int)
	r.Store(payload, source)
	return map[string]any{"ok": true}, nil
}

func (r *Relay) apiGetQueueSize(args map[string]any) (map[string]any, error) {
	return map[string]any{"size": r.queue.Len()}, nil
}
