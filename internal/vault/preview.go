package vault

import (
	"math"

	"github.com/google/uuid"

	vmath "VaultLedger/internal/math"
)

// Conversion queries. Every rounding direction favors the pool over the
// acting party: grants round down, charges round up.

// ConvertToShares returns the shares an asset amount is worth at the
// current rate, rounded down.
func (v *Vault) ConvertToShares(assets int64) int64 {
	return vmath.SharesForAssets(assets, v.TotalAssets(), v.TotalShares(), v.offset, vmath.RoundDown)
}

// ConvertToAssets returns the assets a share amount is worth at the
// current rate, rounded down.
func (v *Vault) ConvertToAssets(shares int64) int64 {
	return vmath.AssetsForShares(shares, v.TotalAssets(), v.TotalShares(), v.offset, vmath.RoundDown)
}

// PreviewDeposit returns the shares a deposit of assets would mint.
func (v *Vault) PreviewDeposit(assets int64) int64 {
	return v.ConvertToShares(assets)
}

// PreviewMint returns the assets required to mint an exact share amount,
// rounded up so the charge is never underestimated.
func (v *Vault) PreviewMint(shares int64) int64 {
	return vmath.AssetsForShares(shares, v.TotalAssets(), v.TotalShares(), v.offset, vmath.RoundUp)
}

// PreviewWithdraw returns the shares burned for an exact asset
// withdrawal, rounded up so the burn is never underestimated.
func (v *Vault) PreviewWithdraw(assets int64) int64 {
	return vmath.SharesForAssets(assets, v.TotalAssets(), v.TotalShares(), v.offset, vmath.RoundUp)
}

// PreviewRedeem returns the assets released for an exact share amount.
func (v *Vault) PreviewRedeem(shares int64) int64 {
	return v.ConvertToAssets(shares)
}

// MaxDeposit returns the largest deposit the vault accepts.
func (v *Vault) MaxDeposit(uuid.UUID) int64 {
	return math.MaxInt64
}

// MaxMint returns the largest share mint the vault accepts.
func (v *Vault) MaxMint(uuid.UUID) int64 {
	return math.MaxInt64
}

// MaxWithdraw returns the assets owner could withdraw by burning their
// entire share balance.
func (v *Vault) MaxWithdraw(owner uuid.UUID) int64 {
	return v.ConvertToAssets(v.shares.BalanceOf(owner))
}

// MaxRedeem returns owner's share balance.
func (v *Vault) MaxRedeem(owner uuid.UUID) int64 {
	return v.shares.BalanceOf(owner)
}
