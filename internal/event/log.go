package event

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// subscriber is a named fan-out target. Sends never block: a full channel
// drops the envelope and counts it, since subscribers (persistence,
// outbound publish) can recover from the durable log or re-query state.
type subscriber struct {
	name string
	ch   chan Envelope
}

// Log is the append-only in-process event log. It assigns the global
// monotonic sequence, JSON-encodes payloads once, chains SHA-256 state
// hashes across envelopes, and fans envelopes out to subscribers.
// Not safe for concurrent use; the service layer serializes operations.
type Log struct {
	sequence int64
	prevHash [32]byte
	subs     []subscriber
	onDrop   func(subscriber string)
	logger   zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

// OnDrop installs a callback invoked with the subscriber name whenever a
// full channel forces an envelope to be dropped.
func (l *Log) OnDrop(fn func(subscriber string)) {
	l.onDrop = fn
}

// Subscribe registers a named fan-out channel with the given buffer and
// returns its receive side.
func (l *Log) Subscribe(name string, buffer int) <-chan Envelope {
	ch := make(chan Envelope, buffer)
	l.subs = append(l.subs, subscriber{name: name, ch: ch})
	return ch
}

// Close closes all subscriber channels. Call only after the last Record.
func (l *Log) Close() {
	for _, s := range l.subs {
		close(s.ch)
	}
}

// Sequence returns the sequence of the most recently recorded event.
func (l *Log) Sequence() int64 {
	return l.sequence
}

// Record appends e to the log and fans the envelope out.
func (l *Log) Record(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		l.logger.Warn().
			Err(err).
			Stringer("event_type", e.EventType()).
			Msg("marshal event payload")
		payload = []byte("{}")
	}

	l.sequence++
	env := Envelope{
		Sequence:  l.sequence,
		EventType: e.EventType(),
		VaultID:   e.VaultID(),
		Asset:     e.Asset(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
		PrevHash:  l.prevHash,
	}
	env.StateHash = chainHash(env.PrevHash, env.Sequence, payload)
	l.prevHash = env.StateHash

	for _, s := range l.subs {
		select {
		case s.ch <- env:
		default:
			if l.onDrop != nil {
				l.onDrop(s.name)
			}
		}
	}
}

// chainHash computes SHA-256 over (prev, sequence, payload).
func chainHash(prev [32]byte, sequence int64, payload []byte) [32]byte {
	h := sha256.New()
	h.Write(prev[:])

	var seq [8]byte
	binary.LittleEndian.PutUint64(seq[:], uint64(sequence))
	h.Write(seq[:])
	h.Write(payload)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// nopRecorder discards events.
type nopRecorder struct{}

func (nopRecorder) Record(Event) {}

// NopRecorder returns a Recorder that discards every event.
func NopRecorder() Recorder {
	return nopRecorder{}
}
