package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор prometheus-метрик сервиса
type Metrics struct {
	// HTTP метрики
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Метрики БД (заполняются обёрткой dbmetrics)
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
	DBOpenConns     *prometheus.GaugeVec
	DBIdleConns     *prometheus.GaugeVec

	// Бизнес-метрики движка назначения
	AssignmentsTotal     *prometheus.CounterVec
	WalletTransactions   *prometheus.CounterVec
	OutboxEventsTotal    *prometheus.CounterVec
	SwapSuggestionsGauge prometheus.Gauge
}

// New создает и регистрирует метрики в default registry
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation"}),

		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of failed database queries",
			ConstLabels: constLabels,
		}, []string{"operation"}),

		DBOpenConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of open database connections",
			ConstLabels: constLabels,
		}, []string{"state"}),

		DBIdleConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle database connections",
			ConstLabels: constLabels,
		}, []string{"state"}),

		AssignmentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "agent_assignments_total",
			Help:        "Total number of agent assignment attempts by policy and outcome",
			ConstLabels: constLabels,
		}, []string{"policy", "outcome"}),

		WalletTransactions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "wallet_transactions_total",
			Help:        "Total number of wallet ledger transactions by type",
			ConstLabels: constLabels,
		}, []string{"type"}),

		OutboxEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "outbox_events_total",
			Help:        "Total number of outbox events by type and dispatch outcome",
			ConstLabels: constLabels,
		}, []string{"type", "outcome"}),

		SwapSuggestionsGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "route_swap_suggestions_last_run",
			Help:        "Number of swap suggestions produced by the last optimizer run",
			ConstLabels: constLabels,
		}),
	}
}

// Методы записи бизнес-метрик: сервисы зависят от узких интерфейсов,
// а не от prometheus напрямую

// IncAssignment учитывает попытку назначения агента
func (m *Metrics) IncAssignment(policy, outcome string) {
	m.AssignmentsTotal.WithLabelValues(policy, outcome).Inc()
}

// IncWalletTransaction учитывает операцию журнала кошелька
func (m *Metrics) IncWalletTransaction(txType string) {
	m.WalletTransactions.WithLabelValues(txType).Inc()
}

// IncOutboxEvent учитывает отправку события жизненного цикла
func (m *Metrics) IncOutboxEvent(eventType, outcome string) {
	m.OutboxEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// SetSwapSuggestions фиксирует размер результата последнего прогона оптимизатора
func (m *Metrics) SetSwapSuggestions(count float64) {
	m.SwapSuggestionsGauge.Set(count)
}
