package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

const namespace = "stake_calculator"

// Metrics holds the Prometheus collectors of the service
type Metrics struct {
	Calculations       *prometheus.CounterVec
	CalculationErrors  *prometheus.CounterVec
	CalculationLatency prometheus.Histogram
	CacheLookups       *prometheus.CounterVec
	KafkaMessages      *prometheus.CounterVec
	LessonToggles      *prometheus.CounterVec
	QuizAnswers        *prometheus.CounterVec
	SocketClients      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Stake calculations by advisory.",
		}, []string{"advisory"}),
		CalculationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculation_errors_total",
			Help:      "Rejected stake calculations by source.",
		}, []string{"source"}),
		CalculationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Time spent serving a stake calculation, cache lookup included.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Stake cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		KafkaMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_total",
			Help:      "Consumed Kafka messages by status.",
		}, []string{"status"}),
		LessonToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lesson_toggles_total",
			Help:      "Lesson checklist toggles by resulting state.",
		}, []string{"state"}),
		QuizAnswers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_answers_total",
			Help:      "Submitted quiz answers by correctness.",
		}, []string{"correct"}),
		SocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Currently connected calculator WebSocket clients.",
		}),
	}

	reg.MustRegister(
		m.Calculations,
		m.CalculationErrors,
		m.CalculationLatency,
		m.CacheLookups,
		m.KafkaMessages,
		m.LessonToggles,
		m.QuizAnswers,
		m.SocketClients,
	)

	return m
}

// ObserveResult counts a computed stake under its advisory
func (m *Metrics) ObserveResult(res *models.StakeResult) {
	m.Calculations.WithLabelValues(string(res.Advisory)).Inc()
}
