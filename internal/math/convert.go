package math

import (
	"math/big"
	"sync"
)

// RoundingMode selects the direction MulDiv rounds a non-exact quotient.
type RoundingMode int

const (
	RoundDown RoundingMode = iota // truncate toward zero
	RoundUp                       // nonzero remainder rounds away from zero
)

// Pooled big.Int for 128-bit intermediate products.
var int128Pool = &sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

func getInt128() *big.Int {
	return int128Pool.Get().(*big.Int)
}

func putInt128(v *big.Int) {
	v.SetInt64(0) // Clear before returning to pool
	int128Pool.Put(v)
}

// Pow10 returns 10^d as int64. d is a share-precision offset and is
// expected to be small (single digits); d > 18 overflows int64.
func Pow10(d uint8) int64 {
	result := int64(1)
	for i := uint8(0); i < d; i++ {
		result *= 10
	}
	return result
}

const maxInt64 = int64(1<<63 - 1)

// MulDiv computes a * b / denom with a 128-bit intermediate product so the
// multiplication cannot overflow. Inputs are non-negative semantic amounts;
// denom must be positive. The quotient is rounded per mode.
//
// A quotient that does not fit int64 saturates to maxInt64 instead of
// wrapping. A saturated charge can never be funded and a saturated burn
// always exceeds the owner's balance, so the ledger rejects the operation
// before any state changes; a saturated grant stays at or below the true
// value, keeping the pool-favoring rounding rule intact.
func MulDiv(a, b, denom int64, mode RoundingMode) int64 {
	product := getInt128()
	product.Mul(big.NewInt(a), big.NewInt(b))

	quotient := getInt128()
	remainder := getInt128()
	quotient.DivMod(product, big.NewInt(denom), remainder)

	var result int64
	if !quotient.IsInt64() {
		result = maxInt64
	} else {
		result = quotient.Int64()
		if mode == RoundUp && remainder.Sign() != 0 && result != maxInt64 {
			result++
		}
	}

	putInt128(product)
	putInt128(quotient)
	putInt128(remainder)

	return result
}

// SharesForAssets converts an asset amount into shares at the current
// exchange rate:
//
//	shares = assets * (totalShares + 10^offset) / (totalAssets + 1)
//
// The +1 virtual asset and 10^offset virtual shares widen the rate so a
// near-empty pool cannot be inflated into a rounding attack. Rounding
// direction is chosen by the caller: down when granting shares to the
// depositor, up when charging shares for an exact asset withdrawal.
func SharesForAssets(assets, totalAssets, totalShares int64, offset uint8, mode RoundingMode) int64 {
	return MulDiv(assets, totalShares+Pow10(offset), totalAssets+1, mode)
}

// AssetsForShares is the inverse conversion:
//
//	assets = shares * (totalAssets + 1) / (totalShares + 10^offset)
//
// Rounded down when paying assets out for redeemed shares, up when pricing
// the assets owed for an exact share mint.
func AssetsForShares(shares, totalAssets, totalShares int64, offset uint8, mode RoundingMode) int64 {
	return MulDiv(shares, totalAssets+1, totalShares+Pow10(offset), mode)
}
