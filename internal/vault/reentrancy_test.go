package vault_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"VaultLedger/internal/ledger"
	"VaultLedger/internal/vault"
)

// hostileAsset wraps the asset ledger and fires a callback once at the
// start of an outbound Transfer, before the funds settle. This models a
// receiver that re-enters the vault while its payout is still pending.
type hostileAsset struct {
	*ledger.TokenLedger
	attack func()
	armed  bool
}

func (h *hostileAsset) Transfer(from, to uuid.UUID, amount int64) error {
	if h.armed {
		h.armed = false
		h.attack()
	}
	return h.TokenLedger.Transfer(from, to, amount)
}

// A redeem that is re-entered mid-payout cannot extract more than the
// attacker deposited. Shares burn before assets leave custody, so the
// inner call prices against the already-reduced supply and the outer
// payout fails against drained custody instead of overdrawing the pool.
func TestRedeem_ReentrantReceiverCannotOverdraw(t *testing.T) {
	attacker := uuid.New()

	inner := ledger.NewTokenLedger("USDT")
	hostile := &hostileAsset{TokenLedger: inner}
	shares := ledger.NewTokenLedger("vUSDT")
	v := vault.New("USDT", "vUSDT", 0, hostile, shares, nil, zerolog.Nop())

	if err := inner.Mint(attacker, 1_000); err != nil {
		t.Fatalf("fund attacker: %v", err)
	}
	if err := inner.Approve(attacker, v.ID(), ledger.Unlimited); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := v.Deposit(attacker, 1_000, attacker); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	var innerReleased int64
	var innerErr error
	hostile.attack = func() {
		innerReleased, innerErr = v.Redeem(attacker, 500, attacker, attacker)
	}
	hostile.armed = true

	_, outerErr := v.Redeem(attacker, 500, attacker, attacker)

	// The nested redeem runs against 500 outstanding shares and 1_000 in
	// custody: it legitimately claims 999 of the pool. The outer payout
	// of 500 then fails against the 1 remaining unit, with its shares
	// already burned. The pool keeps the difference.
	if innerErr != nil {
		t.Fatalf("inner redeem: %v", innerErr)
	}
	if innerReleased != 999 {
		t.Errorf("inner released %d, want 999", innerReleased)
	}
	if !errors.Is(outerErr, ledger.ErrInsufficientBalance) {
		t.Errorf("outer redeem: got %v, want ErrInsufficientBalance", outerErr)
	}

	extracted := inner.BalanceOf(attacker)
	if extracted > 1_000 {
		t.Errorf("attacker extracted %d, more than the 1_000 deposited", extracted)
	}
	if got := inner.BalanceOf(attacker) + inner.BalanceOf(v.ID()); got != 1_000 {
		t.Errorf("asset conservation broken: %d != 1_000", got)
	}
	if got := shares.TotalSupply(); got != 0 {
		t.Errorf("share supply = %d, want 0", got)
	}
}

// hostileAssetPull fires its callback during an inbound TransferFrom,
// before the deposit's funds reach custody.
type hostileAssetPull struct {
	*ledger.TokenLedger
	attack func()
	armed  bool
}

func (h *hostileAssetPull) TransferFrom(spender, from, to uuid.UUID, amount int64) error {
	if h.armed {
		h.armed = false
		h.attack()
	}
	return h.TokenLedger.TransferFrom(spender, from, to, amount)
}

// A deposit that is re-entered mid-pull cannot mint against funds that
// have not arrived: no share exists until the pull completes, so the
// nested call sees the true pre-deposit pool and gets the fair rate.
func TestDeposit_ReentrantCallerGetsNoFreeShares(t *testing.T) {
	alice := uuid.New()

	inner := ledger.NewTokenLedger("USDT")
	hostile := &hostileAssetPull{TokenLedger: inner}
	shares := ledger.NewTokenLedger("vUSDT")
	v := vault.New("USDT", "vUSDT", 0, hostile, shares, nil, zerolog.Nop())

	inner.Mint(alice, 1_000)
	inner.Approve(alice, v.ID(), ledger.Unlimited)
	if _, err := v.Deposit(alice, 400, alice); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	var nestedMinted int64
	hostile.attack = func() {
		var err error
		nestedMinted, err = v.Deposit(alice, 100, alice)
		if err != nil {
			t.Errorf("nested deposit: %v", err)
		}
	}
	hostile.armed = true

	outerMinted, err := v.Deposit(alice, 100, alice)
	if err != nil {
		t.Fatalf("outer deposit: %v", err)
	}

	// Both deposits settled at the fair rate for their moment; neither
	// minted against unreceived funds.
	if nestedMinted > 100 || outerMinted > 100 {
		t.Errorf("minted nested=%d outer=%d, neither may exceed 100", nestedMinted, outerMinted)
	}
	owed := v.ConvertToAssets(shares.TotalSupply())
	if owed > v.TotalAssets() {
		t.Errorf("pool owes %d but holds %d", owed, v.TotalAssets())
	}
}
