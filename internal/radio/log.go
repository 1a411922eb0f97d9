package radio

// Event is the structured record radio.Device emits for every send/receive
// outcome, consumed by internal/simlog. Field names mirror the log keys
// loraradiodevice.py writes in __log_Rx / its combined send log line.
type Event struct {
	Action      string // "send" | "receive"
	FrameID     uint64
	InstanceID  int
	Success     bool
	Collision   bool
	CollidedIDs []uint64
	MTUDrop     bool
	BusyDrop    bool
	NoChannelDrop bool
	CRBWDrop    bool
	TxBusyDrop  bool
	PLRDrop     bool
	PERDrop     bool
	RSSI        float64
	SNR         float64
	ToASeconds  float64
	PLR         float64
	PER         float64
	PeerCount   int
}

// Sink receives radio events for logging. internal/simlog.Logger
// implements this by formatting Event into the CSV log line.
type Sink interface {
	LogRadioEvent(Event)
}

type nopSink struct{}

func (nopSink) LogRadioEvent(Event) {}
