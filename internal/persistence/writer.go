package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// VaultLogWriter writes event envelopes, ledger journal entries, registry
// rows and the vault-state projection to Postgres using multi-row INSERT.
type VaultLogWriter struct {
	db *sql.DB
}

// EventRow represents a row in vault_log.events
type EventRow struct {
	Sequence  int64
	EventType string
	VaultID   string
	Asset     string
	Payload   []byte // JSON-encoded event payload
	StateHash []byte
	PrevHash  []byte
	Timestamp time.Time
}

// EntryRow represents a row in vault_log.transfers, one double-entry
// ledger record. FromAccount/ToAccount are nil for mints/burns.
type EntryRow struct {
	EntryID     string
	Denom       string
	FromAccount *string
	ToAccount   *string
	Amount      int64
	Kind        string
	Timestamp   time.Time
}

// RegistryRow represents a row in vault_log.registry, append-only.
type RegistryRow struct {
	VaultID         string
	Asset           string
	ShareDenom      string
	DecimalsOffset  int16
	CreatedSequence int64
	CreatedAt       time.Time
}

// StateRow represents a row in projections.vault_state, upserted.
type StateRow struct {
	VaultID      string
	Asset        string
	TotalAssets  int64
	TotalShares  int64
	AsOfSequence int64
}

func NewVaultLogWriter(db *sql.DB) *VaultLogWriter {
	return &VaultLogWriter{db: db}
}

// WriteEventBatch writes events using multi-row INSERT. Idempotent on
// sequence so a retried batch never duplicates rows.
func (w *VaultLogWriter) WriteEventBatch(ctx context.Context, tx *sql.Tx, events []EventRow) error {
	if len(events) == 0 {
		return nil
	}

	query := `INSERT INTO vault_log.events
		(sequence, event_type, vault_id, asset, payload, state_hash, prev_hash, timestamp)
		VALUES `

	values := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*8)

	for i, e := range events {
		base := i * 8
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args,
			e.Sequence, e.EventType, e.VaultID, e.Asset,
			e.Payload, e.StateHash, e.PrevHash, e.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteEntryBatch writes ledger journal entries to vault_log.transfers.
func (w *VaultLogWriter) WriteEntryBatch(ctx context.Context, tx *sql.Tx, entries []EntryRow) error {
	if len(entries) == 0 {
		return nil
	}

	query := `INSERT INTO vault_log.transfers
		(entry_id, denom, from_account, to_account, amount, kind, timestamp)
		VALUES `

	values := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*7)

	for i, e := range entries {
		base := i * 7
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args,
			e.EntryID, e.Denom, e.FromAccount, e.ToAccount,
			e.Amount, e.Kind, e.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (entry_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteRegistryBatch appends factory deployments to vault_log.registry.
func (w *VaultLogWriter) WriteRegistryBatch(ctx context.Context, tx *sql.Tx, rows []RegistryRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO vault_log.registry
		(vault_id, asset, share_denom, decimals_offset, created_sequence, created_at)
		VALUES `

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*6)

	for i, r := range rows {
		base := i * 6
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args,
			r.VaultID, r.Asset, r.ShareDenom, r.DecimalsOffset,
			r.CreatedSequence, r.CreatedAt,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (vault_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// UpsertVaultState refreshes the projections.vault_state read model. Rows
// carrying a stale sequence never overwrite newer state.
func (w *VaultLogWriter) UpsertVaultState(ctx context.Context, tx *sql.Tx, rows []StateRow) error {
	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projections.vault_state (vault_id, asset, total_assets, total_shares, as_of_sequence)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (vault_id) DO UPDATE SET
				total_assets = EXCLUDED.total_assets,
				total_shares = EXCLUDED.total_shares,
				as_of_sequence = EXCLUDED.as_of_sequence
			WHERE projections.vault_state.as_of_sequence < EXCLUDED.as_of_sequence`,
			r.VaultID, r.Asset, r.TotalAssets, r.TotalShares, r.AsOfSequence,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
