package vault

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"VaultLedger/internal/event"
	"VaultLedger/internal/ledger"
)

// ErrZeroAmount is returned when an operation's primary input is zero.
// Deposit/mint/withdraw/redeem share the one error kind.
var ErrZeroAmount = errors.New("zero amount")

// AssetLedger is the slice of the fungible ledger the vault consumes for
// the underlying asset.
type AssetLedger interface {
	BalanceOf(account uuid.UUID) int64
	Transfer(from, to uuid.UUID, amount int64) error
	TransferFrom(spender, from, to uuid.UUID, amount int64) error
}

// ShareLedger is the slice of the fungible ledger the vault consumes for
// its share token.
type ShareLedger interface {
	BalanceOf(account uuid.UUID) int64
	TotalSupply() int64
	Mint(to uuid.UUID, amount int64) error
	Burn(from uuid.UUID, amount int64) error
	Allowance(owner, spender uuid.UUID) int64
	SpendAllowance(owner, spender uuid.UUID, amount int64) error
}

// Vault is the accounting core for one underlying asset. Pool totals are
// derived, not cached: totalAssets is the custody account's balance on the
// asset ledger (so direct transfers into custody realize yield for all
// holders pro rata) and totalShares is the share ledger's supply.
//
// The vault takes no lock. Operations run to completion one at a time;
// the service layer provides that serialization. The only in-operation
// hazard is a ledger callback re-entering the vault mid-transfer, which
// the effect ordering defends against: funds are pulled in before shares
// are minted, and shares are burned before funds are pushed out.
type Vault struct {
	id         uuid.UUID
	asset      string
	shareDenom string
	offset     uint8

	assets   AssetLedger
	shares   ShareLedger
	recorder event.Recorder
	logger   zerolog.Logger
}

// New creates a vault bound to asset with an immutable decimals offset.
func New(asset, shareDenom string, offset uint8, assets AssetLedger, shares ShareLedger, recorder event.Recorder, logger zerolog.Logger) *Vault {
	if recorder == nil {
		recorder = event.NopRecorder()
	}
	return &Vault{
		id:         uuid.New(),
		asset:      asset,
		shareDenom: shareDenom,
		offset:     offset,
		assets:     assets,
		shares:     shares,
		recorder:   recorder,
		logger:     logger.With().Str("asset", asset).Logger(),
	}
}

func (v *Vault) ID() uuid.UUID         { return v.id }
func (v *Vault) Asset() string         { return v.asset }
func (v *Vault) ShareDenom() string    { return v.shareDenom }
func (v *Vault) DecimalsOffset() uint8 { return v.offset }

// TotalAssets returns the assets currently held in custody.
func (v *Vault) TotalAssets() int64 {
	return v.assets.BalanceOf(v.id)
}

// TotalShares returns the outstanding share supply.
func (v *Vault) TotalShares() int64 {
	return v.shares.TotalSupply()
}

// Deposit pulls assets from caller into custody and mints the
// corresponding shares to receiver. Returns the shares minted.
func (v *Vault) Deposit(caller uuid.UUID, assets int64, receiver uuid.UUID) (int64, error) {
	if assets == 0 {
		return 0, fmt.Errorf("%w: deposit", ErrZeroAmount)
	}
	if receiver == uuid.Nil {
		return 0, fmt.Errorf("%w: deposit receiver", ledger.ErrZeroAddress)
	}

	shares := v.PreviewDeposit(assets)
	if err := v.pullAndMint(caller, receiver, assets, shares); err != nil {
		return 0, err
	}
	return shares, nil
}

// Mint mints an exact share amount to receiver, pulling the assets
// required from caller. Returns the assets charged.
func (v *Vault) Mint(caller uuid.UUID, shares int64, receiver uuid.UUID) (int64, error) {
	if shares == 0 {
		return 0, fmt.Errorf("%w: mint", ErrZeroAmount)
	}
	if receiver == uuid.Nil {
		return 0, fmt.Errorf("%w: mint receiver", ledger.ErrZeroAddress)
	}

	assets := v.PreviewMint(shares)
	if err := v.pullAndMint(caller, receiver, assets, shares); err != nil {
		return 0, err
	}
	return assets, nil
}

// pullAndMint applies the deposit-side effects: assets enter custody
// before any share exists for them, so a reentrant caller cannot mint
// against funds not yet received. The vault spends the allowance caller
// granted it on the asset ledger.
func (v *Vault) pullAndMint(caller, receiver uuid.UUID, assets, shares int64) error {
	if err := v.assets.TransferFrom(v.id, caller, v.id, assets); err != nil {
		return err
	}
	if err := v.shares.Mint(receiver, shares); err != nil {
		return err
	}

	v.recorder.Record(&event.Deposit{
		Vault:      v.id,
		AssetDenom: v.asset,
		Caller:     caller,
		Receiver:   receiver,
		Assets:     assets,
		Shares:     shares,
	})
	v.logger.Debug().
		Int64("assets", assets).
		Int64("shares", shares).
		Stringer("receiver", receiver).
		Msg("deposit")
	return nil
}

// Withdraw releases an exact asset amount from custody to receiver,
// burning the corresponding shares from owner. A caller other than owner
// spends delegated allowance on owner's shares, decremented by the shares
// burned unless the allowance is the unlimited sentinel. Returns the
// shares burned.
func (v *Vault) Withdraw(caller uuid.UUID, assets int64, receiver, owner uuid.UUID) (int64, error) {
	if assets == 0 {
		return 0, fmt.Errorf("%w: withdraw", ErrZeroAmount)
	}

	shares := v.PreviewWithdraw(assets)
	if err := v.burnAndPush(caller, receiver, owner, assets, shares); err != nil {
		return 0, err
	}
	return shares, nil
}

// Redeem burns an exact share amount from owner and releases the
// corresponding assets to receiver. The computed asset amount may round
// to zero; only the share input is guarded against zero. Returns the
// assets released.
func (v *Vault) Redeem(caller uuid.UUID, shares int64, receiver, owner uuid.UUID) (int64, error) {
	if shares == 0 {
		return 0, fmt.Errorf("%w: redeem", ErrZeroAmount)
	}

	assets := v.PreviewRedeem(shares)
	if err := v.burnAndPush(caller, receiver, owner, assets, shares); err != nil {
		return 0, err
	}
	return assets, nil
}

// burnAndPush applies the withdrawal-side effects. All precondition
// checks run before the first mutation so a failure leaves no partial
// state; shares are burned before assets leave custody so a reentrant
// receiver cannot redeem against funds already promised.
func (v *Vault) burnAndPush(caller, receiver, owner uuid.UUID, assets, shares int64) error {
	if receiver == uuid.Nil || owner == uuid.Nil {
		return fmt.Errorf("%w: withdrawal party", ledger.ErrZeroAddress)
	}
	if held := v.shares.BalanceOf(owner); held < shares {
		return fmt.Errorf("%w: %s have=%d need=%d", ledger.ErrInsufficientBalance, v.shareDenom, held, shares)
	}
	if err := v.shares.SpendAllowance(owner, caller, shares); err != nil {
		return err
	}

	if err := v.shares.Burn(owner, shares); err != nil {
		return err
	}
	if err := v.assets.Transfer(v.id, receiver, assets); err != nil {
		return err
	}

	v.recorder.Record(&event.Withdraw{
		Vault:      v.id,
		AssetDenom: v.asset,
		Caller:     caller,
		Receiver:   receiver,
		Owner:      owner,
		Assets:     assets,
		Shares:     shares,
	})
	v.logger.Debug().
		Int64("assets", assets).
		Int64("shares", shares).
		Stringer("owner", owner).
		Stringer("receiver", receiver).
		Msg("withdraw")
	return nil
}
