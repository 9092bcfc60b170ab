package ledger

import "github.com/google/uuid"

// EntryKind classifies a ledger journal record.
type EntryKind int32

const (
	EntryKindTransfer EntryKind = iota
	EntryKindMint
	EntryKindBurn
)

// Entry is a double-entry record of one completed ledger mutation. Mints
// debit from and burns credit to the nil account, mirroring supply changes.
type Entry struct {
	EntryID uuid.UUID
	Denom   string
	From    uuid.UUID // uuid.Nil for mints
	To      uuid.UUID // uuid.Nil for burns
	Amount  int64     // always positive
	Kind    EntryKind
}

func (k EntryKind) String() string {
	switch k {
	case EntryKindTransfer:
		return "transfer"
	case EntryKindMint:
		return "mint"
	case EntryKindBurn:
		return "burn"
	default:
		return "unknown"
	}
}
