package ledger_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"VaultLedger/internal/ledger"
)

// ============================================================================
// Test: Transfer
// ============================================================================

func TestTransfer_MovesBalance(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	alice, bob := uuid.New(), uuid.New()

	if err := l.Mint(alice, 1_000); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Transfer(alice, bob, 400); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if got := l.BalanceOf(alice); got != 600 {
		t.Errorf("alice balance = %d, want 600", got)
	}
	if got := l.BalanceOf(bob); got != 400 {
		t.Errorf("bob balance = %d, want 400", got)
	}
	if got := l.TotalSupply(); got != 1_000 {
		t.Errorf("supply = %d, want 1_000", got)
	}
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	alice, bob := uuid.New(), uuid.New()
	l.Mint(alice, 100)

	err := l.Transfer(alice, bob, 101)
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := l.BalanceOf(alice); got != 100 {
		t.Errorf("failed transfer mutated balance: %d", got)
	}
}

func TestTransfer_ZeroAddress(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	alice := uuid.New()
	l.Mint(alice, 100)

	if err := l.Transfer(uuid.Nil, alice, 10); !errors.Is(err, ledger.ErrZeroAddress) {
		t.Errorf("transfer from nil: got %v", err)
	}
	if err := l.Transfer(alice, uuid.Nil, 10); !errors.Is(err, ledger.ErrZeroAddress) {
		t.Errorf("transfer to nil: got %v", err)
	}
}

func TestTransfer_NegativeAmount(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	alice, bob := uuid.New(), uuid.New()
	l.Mint(alice, 100)

	if err := l.Transfer(alice, bob, -1); err == nil {
		t.Error("negative transfer should fail")
	}
}

// ============================================================================
// Test: Mint / Burn
// ============================================================================

func TestMintBurn_SupplyTracksBoth(t *testing.T) {
	l := ledger.NewTokenLedger("vUSDT")
	alice := uuid.New()

	l.Mint(alice, 500)
	l.Mint(alice, 250)
	if got := l.TotalSupply(); got != 750 {
		t.Fatalf("supply after mints = %d, want 750", got)
	}

	if err := l.Burn(alice, 300); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := l.TotalSupply(); got != 450 {
		t.Errorf("supply after burn = %d, want 450", got)
	}
	if got := l.BalanceOf(alice); got != 450 {
		t.Errorf("balance after burn = %d, want 450", got)
	}
}

func TestBurn_ExceedsBalance(t *testing.T) {
	l := ledger.NewTokenLedger("vUSDT")
	alice := uuid.New()
	l.Mint(alice, 100)

	if err := l.Burn(alice, 101); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := l.TotalSupply(); got != 100 {
		t.Errorf("failed burn mutated supply: %d", got)
	}
}

func TestMint_ZeroAddress(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	if err := l.Mint(uuid.Nil, 10); !errors.Is(err, ledger.ErrZeroAddress) {
		t.Errorf("mint to nil: got %v", err)
	}
}

// ============================================================================
// Test: Allowances
// ============================================================================

func TestTransferFrom_ConsumesAllowance(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	alice, vault, custody := uuid.New(), uuid.New(), uuid.New()
	l.Mint(alice, 1_000)
	l.Approve(alice, vault, 600)

	if err := l.TransferFrom(vault, alice, custody, 400); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	if got := l.Allowance(alice, vault); got != 200 {
		t.Errorf("remaining allowance = %d, want 200", got)
	}
	if got := l.BalanceOf(custody); got != 400 {
		t.Errorf("custody balance = %d, want 400", got)
	}
}

func TestTransferFrom_ExceedsAllowance(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	alice, vault, custody := uuid.New(), uuid.New(), uuid.New()
	l.Mint(alice, 1_000)
	l.Approve(alice, vault, 100)

	err := l.TransferFrom(vault, alice, custody, 101)
	if !errors.Is(err, ledger.ErrInsufficientAllowance) {
		t.Errorf("expected ErrInsufficientAllowance, got %v", err)
	}
	if got := l.BalanceOf(alice); got != 1_000 {
		t.Errorf("failed transferFrom mutated balance: %d", got)
	}
}

func TestTransferFrom_BalanceCheckedBeforeAllowance(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	alice, vault, custody := uuid.New(), uuid.New(), uuid.New()
	l.Mint(alice, 50)
	l.Approve(alice, vault, 100)

	err := l.TransferFrom(vault, alice, custody, 80)
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	// The allowance must survive the failed spend untouched.
	if got := l.Allowance(alice, vault); got != 100 {
		t.Errorf("allowance after failed spend = %d, want 100", got)
	}
}

func TestUnlimitedAllowance_NeverDecrements(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	alice, vault, custody := uuid.New(), uuid.New(), uuid.New()
	l.Mint(alice, 1_000)
	l.Approve(alice, vault, ledger.Unlimited)

	for i := 0; i < 3; i++ {
		if err := l.TransferFrom(vault, alice, custody, 100); err != nil {
			t.Fatalf("transferFrom #%d: %v", i, err)
		}
	}
	if got := l.Allowance(alice, vault); got != ledger.Unlimited {
		t.Errorf("unlimited allowance decremented to %d", got)
	}
}

func TestSpendAllowance_SelfSpendNeedsNoGrant(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	alice := uuid.New()

	if err := l.SpendAllowance(alice, alice, 1_000_000); err != nil {
		t.Errorf("self spend should not require allowance: %v", err)
	}
}

func TestApprove_ReplacesPriorGrant(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	alice, vault := uuid.New(), uuid.New()

	l.Approve(alice, vault, 500)
	l.Approve(alice, vault, 50)
	if got := l.Allowance(alice, vault); got != 50 {
		t.Errorf("allowance = %d, want 50", got)
	}
}

// ============================================================================
// Test: Journal hook
// ============================================================================

func TestJournalHook_RecordsEveryMutation(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	var entries []ledger.Entry
	l.SetJournalHook(func(e ledger.Entry) {
		entries = append(entries, e)
	})

	alice, bob := uuid.New(), uuid.New()
	l.Mint(alice, 100)
	l.Transfer(alice, bob, 40)
	l.Burn(bob, 10)

	if len(entries) != 3 {
		t.Fatalf("journal entries = %d, want 3", len(entries))
	}

	if entries[0].Kind != ledger.EntryKindMint || entries[0].From != uuid.Nil || entries[0].To != alice {
		t.Errorf("mint entry wrong: %+v", entries[0])
	}
	if entries[1].Kind != ledger.EntryKindTransfer || entries[1].From != alice || entries[1].To != bob {
		t.Errorf("transfer entry wrong: %+v", entries[1])
	}
	if entries[2].Kind != ledger.EntryKindBurn || entries[2].From != bob || entries[2].To != uuid.Nil {
		t.Errorf("burn entry wrong: %+v", entries[2])
	}
	for i, e := range entries {
		if e.Denom != "USDT" {
			t.Errorf("entry %d denom = %q", i, e.Denom)
		}
		if e.EntryID == uuid.Nil {
			t.Errorf("entry %d has nil id", i)
		}
	}
}

func TestJournalHook_SkipsZeroAmount(t *testing.T) {
	l := ledger.NewTokenLedger("USDT")
	calls := 0
	l.SetJournalHook(func(ledger.Entry) { calls++ })

	alice := uuid.New()
	l.Mint(alice, 0)
	if calls != 0 {
		t.Errorf("zero mint recorded %d entries", calls)
	}
}

// ============================================================================
// Test: Set
// ============================================================================

func TestSet_GetCreatesOnce(t *testing.T) {
	s := ledger.NewSet()

	a := s.Get("USDT")
	b := s.Get("USDT")
	if a != b {
		t.Error("Get returned different ledgers for same denom")
	}
	if a.Denom() != "USDT" {
		t.Errorf("denom = %q", a.Denom())
	}
}

func TestSet_HookReachesFutureLedgers(t *testing.T) {
	s := ledger.NewSet()
	calls := 0
	s.SetJournalHook(func(ledger.Entry) { calls++ })

	// Ledger created after the hook was installed still records.
	l := s.Get("WBTC")
	l.Mint(uuid.New(), 5)
	if calls != 1 {
		t.Errorf("hook calls = %d, want 1", calls)
	}
}

func TestSet_Denoms(t *testing.T) {
	s := ledger.NewSet()
	s.Get("USDT")
	s.Get("WBTC")

	denoms := s.Denoms()
	if len(denoms) != 2 {
		t.Errorf("denoms = %v, want 2 entries", denoms)
	}
}
