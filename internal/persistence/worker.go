package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"VaultLedger/internal/observability"
)

// Output is one unit of durable work: an event envelope row with whatever
// registry/state rows it implies, or a standalone batch of ledger journal
// entries. The orchestrator (cmd/vaultledger) bridges domain types to rows
// so this package stays free of import cycles.
type Output struct {
	Event     *EventRow
	Entries   []EntryRow
	Registry  *RegistryRow
	StateRows []StateRow
}

// Worker drains the persist channel and batch-writes to Postgres. It runs
// on its own goroutine; the event log's fan-out never blocks on it.
type Worker struct {
	writer       *VaultLogWriter
	inputChan    <-chan Output
	batchSize    int
	flushTimeout time.Duration
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

func NewWorker(
	db *sql.DB,
	inputChan <-chan Output,
	batchSize int,
	flushTimeout time.Duration,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Worker {
	return &Worker{
		writer:       NewVaultLogWriter(db),
		inputChan:    inputChan,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		metrics:      metrics,
		logger:       logger,
	}
}

type batch struct {
	events   []EventRow
	entries  []EntryRow
	registry []RegistryRow
	state    []StateRow
}

func (b *batch) add(o Output) {
	if o.Event != nil {
		b.events = append(b.events, *o.Event)
	}
	b.entries = append(b.entries, o.Entries...)
	if o.Registry != nil {
		b.registry = append(b.registry, *o.Registry)
	}
	b.state = append(b.state, o.StateRows...)
}

func (b *batch) reset() {
	b.events = b.events[:0]
	b.entries = b.entries[:0]
	b.registry = b.registry[:0]
	b.state = b.state[:0]
}

func (b *batch) empty() bool {
	return len(b.events) == 0 && len(b.entries) == 0 && len(b.registry) == 0 && len(b.state) == 0
}

// Run starts the persistence loop. It flushes when the batch is full or
// the flush timeout expires, and drains on shutdown. Blocks until ctx is
// cancelled or the input channel closes.
func (w *Worker) Run(ctx context.Context) error {
	var pending batch

	timer := time.NewTimer(w.flushTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if !pending.empty() {
				if err := w.flush(context.Background(), &pending); err != nil {
					w.logger.Error().Err(err).Msg("final flush failed")
				}
			}
			return ctx.Err()

		case output, ok := <-w.inputChan:
			if !ok {
				if !pending.empty() {
					if err := w.flush(context.Background(), &pending); err != nil {
						w.logger.Error().Err(err).Msg("final flush failed")
					}
				}
				return nil
			}

			pending.add(output)

			if len(pending.events)+len(pending.entries) >= w.batchSize {
				if err := w.flushWithRetry(ctx, &pending); err != nil {
					w.logger.Error().Err(err).Msg("batch flush failed after retries")
				}
				pending.reset()
				timer.Reset(w.flushTimeout)
			}

		case <-timer.C:
			if !pending.empty() {
				if err := w.flushWithRetry(ctx, &pending); err != nil {
					w.logger.Error().Err(err).Msg("timeout flush failed after retries")
				}
				pending.reset()
			}
			timer.Reset(w.flushTimeout)
		}
	}
}

// flushWithRetry retries with exponential backoff until the write
// succeeds or the context is cancelled; the batch is never dropped.
func (w *Worker) flushWithRetry(ctx context.Context, b *batch) error {
	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			w.logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Int("events", len(b.events)).
				Msg("persistence retry")
			select {
			case <-ctx.Done():
				// Shutting down. One last attempt with a background
				// context so the batch is not lost.
				if finalErr := w.flush(context.Background(), b); finalErr != nil {
					return fmt.Errorf("final flush on shutdown failed: %w", finalErr)
				}
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		err := w.flush(ctx, b)
		if err == nil {
			if attempt > 0 {
				w.logger.Info().Int("attempts", attempt).Msg("persistence flush recovered")
			}
			return nil
		}

		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("retry").Inc()
		}
	}
}

// flush writes the whole batch in a single transaction.
func (w *Worker) flush(ctx context.Context, b *batch) error {
	start := time.Now()

	tx, err := w.writer.db.BeginTx(ctx, nil)
	if err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("tx_begin").Inc()
		}
		return err
	}
	defer tx.Rollback()

	if err := w.writer.WriteEventBatch(ctx, tx, b.events); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write_events").Inc()
		}
		return err
	}
	if err := w.writer.WriteEntryBatch(ctx, tx, b.entries); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write_entries").Inc()
		}
		return err
	}
	if err := w.writer.WriteRegistryBatch(ctx, tx, b.registry); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write_registry").Inc()
		}
		return err
	}
	if err := w.writer.UpsertVaultState(ctx, tx, b.state); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write_state").Inc()
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("tx_commit").Inc()
		}
		return err
	}

	if w.metrics != nil {
		w.metrics.PersistBatchDur.Observe(time.Since(start).Seconds())
		w.metrics.PersistBatchSize.Observe(float64(len(b.events)))
		w.metrics.PersistEventsWritten.Add(float64(len(b.events)))
		w.metrics.PersistEntriesWritten.Add(float64(len(b.entries)))
		if len(b.events) > 0 {
			w.metrics.PersistLastSequence.Set(float64(b.events[len(b.events)-1].Sequence))
		}
	}

	return nil
}

// GetWriter returns the underlying writer.
func (w *Worker) GetWriter() *VaultLogWriter {
	return w.writer
}
