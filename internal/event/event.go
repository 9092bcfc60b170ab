package event

import (
	"time"

	"github.com/google/uuid"
)

// EventType discriminator for event payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypeVaultCreated
	EventTypeDeposit
	EventTypeWithdraw
)

// Event is the interface all vault event payloads implement. Events are
// for observers only; the accounting core never reads them back.
type Event interface {
	// EventType returns the discriminator
	EventType() EventType

	// VaultID returns the emitting vault
	VaultID() uuid.UUID

	// Asset returns the vault's underlying asset denom
	Asset() string
}

// Recorder accepts completed events for sequencing and fan-out. A nil
// recorder is replaced by a no-op at construction sites.
type Recorder interface {
	Record(e Event)
}

// Envelope wraps every recorded event with its position in the log.
type Envelope struct {
	// Global monotonic sequence assigned by the log
	Sequence int64

	EventType EventType
	VaultID   uuid.UUID
	Asset     string

	Timestamp time.Time

	// JSON-encoded event payload
	Payload []byte

	// SHA-256 over (PrevHash, Sequence, Payload), chaining envelopes
	StateHash [32]byte
	PrevHash  [32]byte
}

func (et EventType) String() string {
	switch et {
	case EventTypeVaultCreated:
		return "VaultCreated"
	case EventTypeDeposit:
		return "Deposit"
	case EventTypeWithdraw:
		return "Withdraw"
	default:
		return "Unknown"
	}
}
