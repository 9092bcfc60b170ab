package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for VaultLedger.
type Metrics struct {
	// --- Vault operations ---
	OpsApplied  *prometheus.CounterVec
	OpsRejected *prometheus.CounterVec
	OpDuration  *prometheus.HistogramVec
	AssetsMoved *prometheus.CounterVec
	SharesMoved *prometheus.CounterVec

	// --- Pool state ---
	TotalAssets *prometheus.GaugeVec
	TotalShares *prometheus.GaugeVec

	// --- Registry ---
	VaultsRegistered prometheus.Gauge

	// --- Event log ---
	EventsRecorded  *prometheus.CounterVec
	EventSequence   prometheus.Gauge
	SubscriberDrops *prometheus.CounterVec

	// --- Persistence ---
	PersistEventsWritten  prometheus.Counter
	PersistEntriesWritten prometheus.Counter
	PersistBatchDur       prometheus.Histogram
	PersistBatchSize      prometheus.Histogram
	PersistErrors         *prometheus.CounterVec
	PersistLastSequence   prometheus.Gauge

	// --- Outbound publish ---
	PublishedEvents *prometheus.CounterVec
	PublishFailures prometheus.Counter

	// --- Query API ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	opBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		OpsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_ops_applied_total",
			Help: "Vault operations completed",
		}, []string{"asset", "op"}),

		OpsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_ops_rejected_total",
			Help: "Vault operations rejected",
		}, []string{"asset", "op", "reason"}),

		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vault_op_duration_seconds",
			Help:    "Time to apply a single vault operation",
			Buckets: opBuckets,
		}, []string{"op"}),

		AssetsMoved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_assets_moved_total",
			Help: "Asset units moved through vault operations",
		}, []string{"asset", "direction"}),

		SharesMoved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_shares_moved_total",
			Help: "Share units minted or burned",
		}, []string{"asset", "direction"}),

		TotalAssets: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vault_total_assets",
			Help: "Assets currently held in vault custody",
		}, []string{"asset"}),

		TotalShares: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vault_total_shares",
			Help: "Outstanding share supply",
		}, []string{"asset"}),

		VaultsRegistered: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_registry_size",
			Help: "Vaults deployed by the factory",
		}),

		EventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_events_recorded_total",
			Help: "Events appended to the event log",
		}, []string{"event_type"}),

		EventSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_event_sequence",
			Help: "Current global event sequence",
		}),

		SubscriberDrops: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_subscriber_drops_total",
			Help: "Envelopes dropped due to a full subscriber channel",
		}, []string{"subscriber"}),

		PersistEventsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_persist_events_written_total",
			Help: "Events written to Postgres",
		}),

		PersistEntriesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_persist_entries_written_total",
			Help: "Ledger journal entries written to Postgres",
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vault_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vault_persist_batch_size",
			Help:    "Events per batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		PersistLastSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_persist_last_sequence",
			Help: "Last persisted event sequence",
		}),

		PublishedEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_published_events_total",
			Help: "Events published to NATS",
		}, []string{"event_type"}),

		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_publish_failures_total",
			Help: "Outbound publish failures (non-fatal)",
		}),

		QueryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_query_requests_total",
			Help: "Query API requests",
		}, []string{"endpoint", "status"}),

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vault_query_duration_seconds",
			Help:    "Query API latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),
	}
}

// ObservePool updates the pool-state gauges for one vault.
func (m *Metrics) ObservePool(asset string, totalAssets, totalShares int64) {
	m.TotalAssets.WithLabelValues(asset).Set(float64(totalAssets))
	m.TotalShares.WithLabelValues(asset).Set(float64(totalShares))
}
