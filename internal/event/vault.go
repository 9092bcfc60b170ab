package event

import "github.com/google/uuid"

// VaultCreated is emitted once per successful factory call.
type VaultCreated struct {
	Vault          uuid.UUID `json:"vault"`
	AssetDenom     string    `json:"asset"`
	ShareDenom     string    `json:"share_denom"`
	DecimalsOffset uint8     `json:"decimals_offset"`
}

func (e *VaultCreated) EventType() EventType { return EventTypeVaultCreated }
func (e *VaultCreated) VaultID() uuid.UUID   { return e.Vault }
func (e *VaultCreated) Asset() string        { return e.AssetDenom }

// Deposit is emitted after a completed deposit or mint.
type Deposit struct {
	Vault      uuid.UUID `json:"vault"`
	AssetDenom string    `json:"asset"`
	Caller     uuid.UUID `json:"caller"`
	Receiver   uuid.UUID `json:"receiver"`
	Assets     int64     `json:"assets"`
	Shares     int64     `json:"shares"`
}

func (e *Deposit) EventType() EventType { return EventTypeDeposit }
func (e *Deposit) VaultID() uuid.UUID   { return e.Vault }
func (e *Deposit) Asset() string        { return e.AssetDenom }

// Withdraw is emitted after a completed withdraw or redeem.
type Withdraw struct {
	Vault      uuid.UUID `json:"vault"`
	AssetDenom string    `json:"asset"`
	Caller     uuid.UUID `json:"caller"`
	Receiver   uuid.UUID `json:"receiver"`
	Owner      uuid.UUID `json:"owner"`
	Assets     int64     `json:"assets"`
	Shares     int64     `json:"shares"`
}

func (e *Withdraw) EventType() EventType { return EventTypeWithdraw }
func (e *Withdraw) VaultID() uuid.UUID   { return e.Vault }
func (e *Withdraw) Asset() string        { return e.AssetDenom }
