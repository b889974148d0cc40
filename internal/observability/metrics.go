package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "claim_verifier"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// verification service.
type Metrics struct {
	// Pipeline metrics, labelled by pipeline={claims,results}.
	MessagesConsumed        *prometheus.CounterVec
	MessagesHandled         *prometheus.CounterVec
	MessagesFailed          *prometheus.CounterVec // labels: pipeline, kind={permanent,transient}
	PipelineRunning         *prometheus.GaugeVec
	BatchSize               *prometheus.HistogramVec
	BatchProcessingDuration *prometheus.HistogramVec

	// Claim lifecycle metrics.
	ClaimsSubmitted *prometheus.CounterVec // labels: outcome={created,duplicate}
	Dispatches      *prometheus.CounterVec // labels: source, outcome={success,failure}
	Results         *prometheus.CounterVec // labels: source, outcome={accepted,already-complete,duplicate-source}
	VerifierErrors  *prometheus.CounterVec // labels: source
	Aggregations    prometheus.Counter
	Transitions     *prometheus.CounterVec // labels: status
	ConfidenceScore prometheus.Histogram

	// Reconciliation metrics.
	ReconcileRedispatches *prometheus.CounterVec // labels: source
	ClaimsStarved         prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from an input topic.",
		}, []string{"pipeline"}),
		MessagesHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_handled_total",
			Help:      "Total messages handled and committed.",
		}, []string{"pipeline"}),
		MessagesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_failed_total",
			Help:      "Message handling failures by kind. Permanent failures are committed and skipped.",
		}, []string{"pipeline", "kind"}),
		PipelineRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}, []string{"pipeline"}),
		BatchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}, []string{"pipeline"}),
		BatchProcessingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of handling one extracted batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"pipeline"}),
		ClaimsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_submitted_total",
			Help:      "Claim submissions by outcome.",
		}, []string{"outcome"}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Verification task dispatches by source and outcome, after retries.",
		}, []string{"source", "outcome"}),
		Results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_total",
			Help:      "Verification results recorded by source and outcome.",
		}, []string{"source", "outcome"}),
		VerifierErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifier_errors_total",
			Help:      "Results in which the verifier reported its own failure.",
		}, []string{"source"}),
		Aggregations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Completion events that ran the confidence aggregator.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Claim status changes by target status.",
		}, []string{"status"}),
		ConfidenceScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confidence_score",
			Help:      "Aggregated confidence score per finalized claim.",
			Buckets:   []float64{0.2, 0.4, 0.6, 0.8, 1},
		}),
		ReconcileRedispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_redispatches_total",
			Help:      "Tasks re-dispatched by the reconciliation sweep.",
		}, []string{"source"}),
		ClaimsStarved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_starved_total",
			Help:      "Claims that exhausted their dispatch attempts without completing.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesHandled,
		m.MessagesFailed,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ClaimsSubmitted,
		m.Dispatches,
		m.Results,
		m.VerifierErrors,
		m.Aggregations,
		m.Transitions,
		m.ConfidenceScore,
		m.ReconcileRedispatches,
		m.ClaimsStarved,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
