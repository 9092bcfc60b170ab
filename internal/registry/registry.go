package registry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"VaultLedger/internal/event"
	"VaultLedger/internal/ledger"
	"VaultLedger/internal/vault"
)

var (
	// ErrUnauthorized is returned when a non-administrator calls a gated
	// operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrVaultExists is returned when a vault is already bound to the
	// requested asset.
	ErrVaultExists = errors.New("vault exists")
)

// Registry is the admin-gated vault factory. It deploys one vault per
// underlying asset and keeps an ordered, append-only record of every
// deployment. Entries are never mutated or removed.
type Registry struct {
	gate     Gate
	ledgers  *ledger.Set
	offset   uint8
	recorder event.Recorder
	logger   zerolog.Logger

	vaults  []*vault.Vault
	byAsset map[string]*vault.Vault
}

// New creates a registry. offset is the decimals offset applied to every
// vault it deploys.
func New(gate Gate, ledgers *ledger.Set, offset uint8, recorder event.Recorder, logger zerolog.Logger) *Registry {
	if recorder == nil {
		recorder = event.NopRecorder()
	}
	return &Registry{
		gate:     gate,
		ledgers:  ledgers,
		offset:   offset,
		recorder: recorder,
		logger:   logger,
		byAsset:  make(map[string]*vault.Vault),
	}
}

// CreateVault deploys and registers a vault bound to asset. Only the
// administrator may call it.
func (r *Registry) CreateVault(caller uuid.UUID, asset string) (*vault.Vault, error) {
	if !r.gate.IsAuthorized(caller) {
		return nil, fmt.Errorf("%w: create vault for %q", ErrUnauthorized, asset)
	}
	if asset == "" {
		return nil, fmt.Errorf("empty asset denom")
	}
	if _, ok := r.byAsset[asset]; ok {
		return nil, fmt.Errorf("%w: %s", ErrVaultExists, asset)
	}

	shareDenom := ShareDenom(asset)
	v := vault.New(asset, shareDenom, r.offset, r.ledgers.Get(asset), r.ledgers.Get(shareDenom), r.recorder, r.logger)

	r.vaults = append(r.vaults, v)
	r.byAsset[asset] = v

	r.recorder.Record(&event.VaultCreated{
		Vault:          v.ID(),
		AssetDenom:     asset,
		ShareDenom:     shareDenom,
		DecimalsOffset: r.offset,
	})
	r.logger.Info().
		Stringer("vault", v.ID()).
		Str("asset", asset).
		Uint8("decimals_offset", r.offset).
		Msg("vault created")

	return v, nil
}

// TotalVaults returns the registry's current length.
func (r *Registry) TotalVaults() int {
	return len(r.vaults)
}

// VaultAt returns the i-th deployed vault in creation order.
func (r *Registry) VaultAt(i int) (*vault.Vault, bool) {
	if i < 0 || i >= len(r.vaults) {
		return nil, false
	}
	return r.vaults[i], true
}

// VaultFor returns the vault bound to asset.
func (r *Registry) VaultFor(asset string) (*vault.Vault, bool) {
	v, ok := r.byAsset[asset]
	return v, ok
}

// Vaults returns the deployed vaults in creation order.
func (r *Registry) Vaults() []*vault.Vault {
	out := make([]*vault.Vault, len(r.vaults))
	copy(out, r.vaults)
	return out
}

// ShareDenom derives the share-token denom for an asset.
func ShareDenom(asset string) string {
	return "v" + asset
}
