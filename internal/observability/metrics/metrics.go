// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_live_interpreter"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Fragment metrics
	FragmentsReceived prometheus.Counter
	FragmentsInterim  prometheus.Counter
	FragmentsFinal    prometheus.Counter

	// Block metrics
	BlocksCreated prometheus.Counter
	BlocksClosed  *prometheus.CounterVec
	BlockWords    prometheus.Histogram

	// Fast translation metrics
	FastTranslations       prometheus.Counter
	FastTranslationLatency prometheus.Histogram
	FastUnavailable        prometheus.Counter

	// Dispatch metrics
	DispatchEnqueued  prometheus.Counter
	DispatchRejected  *prometheus.CounterVec
	DispatchInFlight  prometheus.Gauge
	DispatchCompleted prometheus.Counter
	DispatchFailed    prometheus.Counter
	DispatchRetries   prometheus.Counter
	DispatchStale     prometheus.Counter
	DispatchLatency   prometheus.Histogram

	// Frozen zone metrics
	FrozenWordsTotal  prometheus.Counter
	FreezeCommits     prometheus.Counter
	PendingQualityMax prometheus.Gauge

	// Message metrics
	MessagesAppended *prometheus.CounterVec
	MessagesUpgraded prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		FragmentsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_received_total",
			Help:      "Total number of transcript fragments received",
		}),
		FragmentsInterim: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_interim_total",
			Help:      "Total number of interim fragments received",
		}),
		FragmentsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_final_total",
			Help:      "Total number of final fragments received",
		}),

		BlocksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_created_total",
			Help:      "Total number of transcript blocks opened",
		}),
		BlocksClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_closed_total",
			Help:      "Total number of transcript blocks closed",
		}, []string{"reason"}),
		BlockWords: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_words",
			Help:      "Word count of closed blocks",
			Buckets:   []float64{2, 5, 10, 15, 20, 25, 32, 40},
		}),

		FastTranslations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fast_translations_total",
			Help:      "Total number of fast-path translations performed",
		}),
		FastTranslationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fast_translation_latency_seconds",
			Help:      "Fast-path translation latency in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		FastUnavailable: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fast_unavailable_total",
			Help:      "Total number of fast-path timeouts or backend failures",
		}),

		DispatchEnqueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_enqueued_total",
			Help:      "Total number of quality translation requests enqueued",
		}),
		DispatchRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_rejected_total",
			Help:      "Total number of rejected enqueue attempts",
		}, []string{"reason"}),
		DispatchInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_in_flight",
			Help:      "Number of currently outstanding quality translation requests",
		}),
		DispatchCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_completed_total",
			Help:      "Total number of quality translation requests completed",
		}),
		DispatchFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_failed_total",
			Help:      "Total number of quality requests that exhausted retries",
		}),
		DispatchRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_retries_total",
			Help:      "Total number of quality request retry attempts",
		}),
		DispatchStale: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_stale_total",
			Help:      "Total number of discarded responses for unknown or expired ids",
		}),
		DispatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_latency_seconds",
			Help:      "Quality translation round-trip latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),

		FrozenWordsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frozen_words_total",
			Help:      "Total number of source words committed to the frozen zone",
		}),
		FreezeCommits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "freeze_commits_total",
			Help:      "Total number of frozen-prefix advances",
		}),
		PendingQualityMax: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_quality_blocks",
			Help:      "Quality results held back waiting for earlier blocks to resolve",
		}),

		MessagesAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_appended_total",
			Help:      "Total number of conversation messages appended",
		}, []string{"role"}),
		MessagesUpgraded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_upgraded_total",
			Help:      "Total number of messages upgraded with a quality translation",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordFragment records a received fragment.
func (m *Metrics) RecordFragment(isFinal bool) {
	m.FragmentsReceived.Inc()
	if isFinal {
		m.FragmentsFinal.Inc()
	} else {
		m.FragmentsInterim.Inc()
	}
}

// RecordBlockCreated records a new block being opened.
func (m *Metrics) RecordBlockCreated() {
	m.BlocksCreated.Inc()
}

// RecordBlockClosed records a block close with its trigger reason.
func (m *Metrics) RecordBlockClosed(reason string, words int) {
	m.BlocksClosed.WithLabelValues(reason).Inc()
	m.BlockWords.Observe(float64(words))
}

// RecordFastTranslation records a fast-path translation attempt.
func (m *Metrics) RecordFastTranslation(unavailable bool, latencySeconds float64) {
	m.FastTranslations.Inc()
	m.FastTranslationLatency.Observe(latencySeconds)
	if unavailable {
		m.FastUnavailable.Inc()
	}
}

// RecordDispatchEnqueued records an accepted enqueue.
func (m *Metrics) RecordDispatchEnqueued() {
	m.DispatchEnqueued.Inc()
	m.DispatchInFlight.Inc()
}

// RecordDispatchRejected records a rejected enqueue attempt.
func (m *Metrics) RecordDispatchRejected(reason string) {
	m.DispatchRejected.WithLabelValues(reason).Inc()
}

// RecordDispatchDone records a finished dispatch round trip.
func (m *Metrics) RecordDispatchDone(success bool, latencySeconds float64) {
	m.DispatchInFlight.Dec()
	m.DispatchLatency.Observe(latencySeconds)
	if success {
		m.DispatchCompleted.Inc()
	} else {
		m.DispatchFailed.Inc()
	}
}

// RecordDispatchRetry records a retry attempt.
func (m *Metrics) RecordDispatchRetry() {
	m.DispatchRetries.Inc()
}

// RecordStaleResponse records a discarded response for an unknown id.
func (m *Metrics) RecordStaleResponse() {
	m.DispatchStale.Inc()
}

// RecordFreeze records a frozen-prefix advance.
func (m *Metrics) RecordFreeze(words int) {
	m.FreezeCommits.Inc()
	m.FrozenWordsTotal.Add(float64(words))
}

// RecordMessageAppended records a new conversation message.
func (m *Metrics) RecordMessageAppended(role string) {
	m.MessagesAppended.WithLabelValues(role).Inc()
}

// RecordMessageUpgraded records a quality upgrade applied to a message.
func (m *Metrics) RecordMessageUpgraded() {
	m.MessagesUpgraded.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
