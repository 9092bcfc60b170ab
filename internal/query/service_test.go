package query_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"VaultLedger/internal/ledger"
	"VaultLedger/internal/query"
	"VaultLedger/internal/registry"
)

func newService(admin uuid.UUID) *query.Service {
	gate := registry.NewAdminGate(admin)
	ledgers := ledger.NewSet()
	reg := registry.New(gate, ledgers, 0, nil, zerolog.Nop())
	return query.NewService(reg, ledgers, gate, nil, zerolog.Nop())
}

// setupFunded creates a USDT vault and an account holding funding units
// with the vault approved as asset spender.
func setupFunded(t *testing.T, svc *query.Service, admin uuid.UUID, funding int64) uuid.UUID {
	t.Helper()

	info, err := svc.CreateVault(admin, "USDT")
	if err != nil {
		t.Fatalf("create vault: %v", err)
	}

	alice := uuid.New()
	if err := svc.Fund(admin, "USDT", alice, funding); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if err := svc.Approve("USDT", alice, info.VaultID, ledger.Unlimited); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return alice
}

// ============================================================================
// Test: gated operations
// ============================================================================

func TestCreateVault_ReportsInfo(t *testing.T) {
	admin := uuid.New()
	svc := newService(admin)

	info, err := svc.CreateVault(admin, "USDT")
	if err != nil {
		t.Fatalf("create vault: %v", err)
	}
	if info.Asset != "USDT" || info.ShareDenom != "vUSDT" {
		t.Errorf("info = %+v", info)
	}
	if info.TotalAssets != 0 || info.TotalShares != 0 {
		t.Errorf("new vault not empty: %+v", info)
	}
	if got := svc.TotalVaults(); got != 1 {
		t.Errorf("TotalVaults = %d", got)
	}
}

func TestFund_RequiresAdmin(t *testing.T) {
	admin := uuid.New()
	svc := newService(admin)
	stranger := uuid.New()

	err := svc.Fund(stranger, "USDT", stranger, 100)
	if !errors.Is(err, registry.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if got := svc.BalanceOf(stranger, "USDT"); got.Amount != 0 {
		t.Errorf("rejected fund minted %d", got.Amount)
	}
}

// ============================================================================
// Test: vault operations through the facade
// ============================================================================

func TestDepositWithdraw_EndToEnd(t *testing.T) {
	admin := uuid.New()
	svc := newService(admin)
	alice := setupFunded(t, svc, admin, 1_000)

	res, err := svc.Deposit("USDT", alice, 400, alice)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if res.Shares != 400 {
		t.Errorf("deposit shares = %d, want 400", res.Shares)
	}

	info, err := svc.Vault("USDT")
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	if info.TotalAssets != 400 || info.TotalShares != 400 {
		t.Errorf("pool = %+v", info)
	}

	res, err = svc.Withdraw("USDT", alice, 150, alice, alice)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if res.Shares != 150 {
		t.Errorf("withdraw burned %d, want 150", res.Shares)
	}
	if got := svc.BalanceOf(alice, "USDT"); got.Amount != 1_000-400+150 {
		t.Errorf("alice balance = %d", got.Amount)
	}
}

func TestOps_UnknownAsset(t *testing.T) {
	admin := uuid.New()
	svc := newService(admin)
	alice := uuid.New()

	if _, err := svc.Deposit("WBTC", alice, 100, alice); !errors.Is(err, query.ErrVaultNotFound) {
		t.Errorf("deposit: got %v", err)
	}
	if _, err := svc.Preview("WBTC", "deposit", 100); !errors.Is(err, query.ErrVaultNotFound) {
		t.Errorf("preview: got %v", err)
	}
}

// ============================================================================
// Test: previews
// ============================================================================

func TestPreview_AllOps(t *testing.T) {
	admin := uuid.New()
	svc := newService(admin)
	alice := setupFunded(t, svc, admin, 10_000)
	svc.Deposit("USDT", alice, 1_500, alice)

	for _, op := range []string{"deposit", "mint", "withdraw", "redeem"} {
		got, err := svc.Preview("USDT", op, 100)
		if err != nil {
			t.Errorf("preview %s: %v", op, err)
		}
		if got < 0 {
			t.Errorf("preview %s = %d", op, got)
		}
	}

	if _, err := svc.Preview("USDT", "transfer", 100); err == nil {
		t.Error("unknown op should fail")
	}
}

// Matching preview and operation must agree exactly.
func TestPreview_MatchesOperation(t *testing.T) {
	admin := uuid.New()
	svc := newService(admin)
	alice := setupFunded(t, svc, admin, 10_000)
	svc.Deposit("USDT", alice, 1_777, alice)

	want, _ := svc.Preview("USDT", "deposit", 333)
	res, err := svc.Deposit("USDT", alice, 333, alice)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if res.Shares != want {
		t.Errorf("deposit minted %d, preview said %d", res.Shares, want)
	}
}

// ============================================================================
// Test: listing
// ============================================================================

func TestVaults_CreationOrder(t *testing.T) {
	admin := uuid.New()
	svc := newService(admin)
	svc.CreateVault(admin, "USDT")
	svc.CreateVault(admin, "WBTC")

	vaults := svc.Vaults()
	if len(vaults) != 2 {
		t.Fatalf("vaults = %d, want 2", len(vaults))
	}
	if vaults[0].Asset != "USDT" || vaults[1].Asset != "WBTC" {
		t.Errorf("order = %s, %s", vaults[0].Asset, vaults[1].Asset)
	}
}
