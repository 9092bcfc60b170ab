package query

import "github.com/google/uuid"

// VaultInfo is the external view of one vault's pool state.
type VaultInfo struct {
	VaultID        uuid.UUID `json:"vault_id"`
	Asset          string    `json:"asset"`
	ShareDenom     string    `json:"share_denom"`
	DecimalsOffset uint8     `json:"decimals_offset"`
	TotalAssets    int64     `json:"total_assets"`
	TotalShares    int64     `json:"total_shares"`
}

// Balance is one account's holding of one denom.
type Balance struct {
	Account uuid.UUID `json:"account"`
	Denom   string    `json:"denom"`
	Amount  int64     `json:"amount"`
}

// OpResult reports both sides of a completed vault operation.
type OpResult struct {
	Asset  string `json:"asset"`
	Assets int64  `json:"assets"`
	Shares int64  `json:"shares"`
}
