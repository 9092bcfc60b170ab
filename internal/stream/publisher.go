package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"VaultLedger/internal/event"
	"VaultLedger/internal/observability"
)

// OutboundPublisher publishes recorded vault events to NATS for
// downstream consumers. Subjects follow the pattern:
// vault.ledger.events.{event_type}.{asset}
type OutboundPublisher struct {
	js        jetstream.JetStream
	inputChan <-chan event.Envelope
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// OutboundEvent is the wire form of an envelope.
type OutboundEvent struct {
	Sequence  int64           `json:"sequence"`
	EventType string          `json:"event_type"`
	VaultID   string          `json:"vault_id"`
	Asset     string          `json:"asset"`
	Payload   json.RawMessage `json:"payload"`
	StateHash []byte          `json:"state_hash"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewOutboundPublisher(
	js jetstream.JetStream,
	inputChan <-chan event.Envelope,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *OutboundPublisher {
	return &OutboundPublisher{
		js:        js,
		inputChan: inputChan,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run starts the outbound publisher loop. Publish failures are non-fatal:
// downstream consumers can recover from the durable event log.
func (op *OutboundPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case env, ok := <-op.inputChan:
			if !ok {
				return nil
			}

			if err := op.publish(ctx, env); err != nil {
				op.logger.Warn().
					Err(err).
					Int64("sequence", env.Sequence).
					Msg("outbound publish failed")
				if op.metrics != nil {
					op.metrics.PublishFailures.Inc()
				}
				continue
			}
			if op.metrics != nil {
				op.metrics.PublishedEvents.WithLabelValues(env.EventType.String()).Inc()
			}
		}
	}
}

func (op *OutboundPublisher) publish(ctx context.Context, env event.Envelope) error {
	data, err := json.Marshal(OutboundEvent{
		Sequence:  env.Sequence,
		EventType: env.EventType.String(),
		VaultID:   env.VaultID.String(),
		Asset:     env.Asset,
		Payload:   env.Payload,
		StateHash: env.StateHash[:],
		Timestamp: env.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	subject := fmt.Sprintf("vault.ledger.events.%s.%s", env.EventType, env.Asset)
	_, err = op.js.Publish(ctx, subject, data)
	return err
}

// EnsureOutboundStream creates the outbound events stream.
func EnsureOutboundStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "VAULT_LEDGER_EVENTS",
		Subjects:  []string{"vault.ledger.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create outbound stream: %w", err)
	}
	return nil
}
