package query

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"VaultLedger/internal/ledger"
	"VaultLedger/internal/observability"
	"VaultLedger/internal/registry"
	"VaultLedger/internal/vault"
)

// ErrVaultNotFound is returned when no vault is bound to the requested
// asset.
var ErrVaultNotFound = errors.New("vault not found")

// Service is the serialized facade over the registry, vaults and ledgers.
// Vault operations must run to completion one at a time; the single mutex
// here provides that isolation for every entry point, so the core below
// stays lock-free.
type Service struct {
	mu       sync.Mutex
	registry *registry.Registry
	ledgers  *ledger.Set
	gate     registry.Gate
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

func NewService(
	reg *registry.Registry,
	ledgers *ledger.Set,
	gate registry.Gate,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		registry: reg,
		ledgers:  ledgers,
		gate:     gate,
		metrics:  metrics,
		logger:   logger,
	}
}

// === Gated operations ===

// CreateVault deploys a vault for asset. Administrator only.
func (s *Service) CreateVault(caller uuid.UUID, asset string) (VaultInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.registry.CreateVault(caller, asset)
	if err != nil {
		return VaultInfo{}, err
	}
	if s.metrics != nil {
		s.metrics.VaultsRegistered.Set(float64(s.registry.TotalVaults()))
	}
	return s.info(v), nil
}

// Fund mints units of denom to an account. Administrator only: the asset
// ledgers stand in for an external token bridge here, so supply entry is
// gated the same way vault deployment is.
func (s *Service) Fund(caller uuid.UUID, denom string, to uuid.UUID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gate.IsAuthorized(caller) {
		return fmt.Errorf("%w: fund %s", registry.ErrUnauthorized, denom)
	}
	return s.ledgers.Get(denom).Mint(to, amount)
}

// === Vault operations ===

// Deposit pulls assets from caller into the asset's vault, minting shares
// to receiver.
func (s *Service) Deposit(asset string, caller uuid.UUID, assets int64, receiver uuid.UUID) (OpResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.vault(asset)
	if err != nil {
		return OpResult{}, err
	}

	shares, err := s.observeOp(v, "deposit", func() (int64, error) {
		return v.Deposit(caller, assets, receiver)
	})
	if err != nil {
		return OpResult{}, err
	}
	s.recordFlow(asset, assets, shares, true)
	return OpResult{Asset: asset, Assets: assets, Shares: shares}, nil
}

// Mint mints an exact share amount to receiver, charging caller.
func (s *Service) Mint(asset string, caller uuid.UUID, shares int64, receiver uuid.UUID) (OpResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.vault(asset)
	if err != nil {
		return OpResult{}, err
	}

	assets, err := s.observeOp(v, "mint", func() (int64, error) {
		return v.Mint(caller, shares, receiver)
	})
	if err != nil {
		return OpResult{}, err
	}
	s.recordFlow(asset, assets, shares, true)
	return OpResult{Asset: asset, Assets: assets, Shares: shares}, nil
}

// Withdraw releases an exact asset amount to receiver, burning owner's
// shares.
func (s *Service) Withdraw(asset string, caller uuid.UUID, assets int64, receiver, owner uuid.UUID) (OpResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.vault(asset)
	if err != nil {
		return OpResult{}, err
	}

	shares, err := s.observeOp(v, "withdraw", func() (int64, error) {
		return v.Withdraw(caller, assets, receiver, owner)
	})
	if err != nil {
		return OpResult{}, err
	}
	s.recordFlow(asset, assets, shares, false)
	return OpResult{Asset: asset, Assets: assets, Shares: shares}, nil
}

// Redeem burns an exact share amount from owner, releasing assets to
// receiver.
func (s *Service) Redeem(asset string, caller uuid.UUID, shares int64, receiver, owner uuid.UUID) (OpResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.vault(asset)
	if err != nil {
		return OpResult{}, err
	}

	assets, err := s.observeOp(v, "redeem", func() (int64, error) {
		return v.Redeem(caller, shares, receiver, owner)
	})
	if err != nil {
		return OpResult{}, err
	}
	s.recordFlow(asset, assets, shares, false)
	return OpResult{Asset: asset, Assets: assets, Shares: shares}, nil
}

// Approve sets the allowance owner grants spender on denom. Depositors
// approve the vault's custody account before their first deposit.
func (s *Service) Approve(denom string, owner, spender uuid.UUID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledgers.Get(denom).Approve(owner, spender, amount)
}

// === Queries ===

// TotalVaults returns the registry's current length.
func (s *Service) TotalVaults() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry.TotalVaults()
}

// Vaults lists every deployed vault in creation order.
func (s *Service) Vaults() []VaultInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	vaults := s.registry.Vaults()
	out := make([]VaultInfo, 0, len(vaults))
	for _, v := range vaults {
		out = append(out, s.info(v))
	}
	return out
}

// Vault returns the pool state of the vault bound to asset.
func (s *Service) Vault(asset string) (VaultInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.vault(asset)
	if err != nil {
		return VaultInfo{}, err
	}
	return s.info(v), nil
}

// Preview evaluates one of the four conversion previews without
// committing anything.
func (s *Service) Preview(asset, op string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.vault(asset)
	if err != nil {
		return 0, err
	}

	switch op {
	case "deposit":
		return v.PreviewDeposit(amount), nil
	case "mint":
		return v.PreviewMint(amount), nil
	case "withdraw":
		return v.PreviewWithdraw(amount), nil
	case "redeem":
		return v.PreviewRedeem(amount), nil
	default:
		return 0, fmt.Errorf("unknown preview op %q", op)
	}
}

// BalanceOf returns account's holding of denom.
func (s *Service) BalanceOf(account uuid.UUID, denom string) Balance {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Balance{
		Account: account,
		Denom:   denom,
		Amount:  s.ledgers.Get(denom).BalanceOf(account),
	}
}

// === internals ===

func (s *Service) vault(asset string) (*vault.Vault, error) {
	v, ok := s.registry.VaultFor(asset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVaultNotFound, asset)
	}
	return v, nil
}

func (s *Service) info(v *vault.Vault) VaultInfo {
	return VaultInfo{
		VaultID:        v.ID(),
		Asset:          v.Asset(),
		ShareDenom:     v.ShareDenom(),
		DecimalsOffset: v.DecimalsOffset(),
		TotalAssets:    v.TotalAssets(),
		TotalShares:    v.TotalShares(),
	}
}

// recordFlow tracks asset and share volume for one completed operation.
func (s *Service) recordFlow(asset string, assets, shares int64, inbound bool) {
	if s.metrics == nil {
		return
	}
	if inbound {
		s.metrics.AssetsMoved.WithLabelValues(asset, "in").Add(float64(assets))
		s.metrics.SharesMoved.WithLabelValues(asset, "minted").Add(float64(shares))
	} else {
		s.metrics.AssetsMoved.WithLabelValues(asset, "out").Add(float64(assets))
		s.metrics.SharesMoved.WithLabelValues(asset, "burned").Add(float64(shares))
	}
}

// observeOp runs a vault operation and records its metrics outcome.
func (s *Service) observeOp(v *vault.Vault, op string, fn func() (int64, error)) (int64, error) {
	start := time.Now()
	result, err := fn()

	if s.metrics != nil {
		s.metrics.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil {
			s.metrics.OpsRejected.WithLabelValues(v.Asset(), op, rejectReason(err)).Inc()
		} else {
			s.metrics.OpsApplied.WithLabelValues(v.Asset(), op).Inc()
			s.metrics.ObservePool(v.Asset(), v.TotalAssets(), v.TotalShares())
		}
	}
	return result, err
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, vault.ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return "insufficient_allowance"
	case errors.Is(err, ledger.ErrZeroAddress):
		return "zero_address"
	case errors.Is(err, registry.ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}
