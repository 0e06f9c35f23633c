// Package metrics - метрики Prometheus для бота.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics. Нулевой указатель безопасен: методы ничего не делают.
type Metrics struct {
	registry prometheus.Gatherer

	EventsTotal        *prometheus.CounterVec
	TransitionsTotal   *prometheus.CounterVec
	HandlerFailures    *prometheus.CounterVec
	GatewayDuration    *prometheus.HistogramVec
	OrdersCreated      prometheus.Counter
	PaymentsReviewed   *prometheus.CounterVec
	MediaStored        *prometheus.CounterVec
	ThrottledCallbacks prometheus.Counter
	ActiveSessions     prometheus.Gauge
	BreakerState       *prometheus.GaugeVec
}

// New создаёт и регистрирует метрики в переданном реестре.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmabot_events_total",
			Help: "Inbound updates by role and kind",
		}, []string{"role", "kind"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmabot_transitions_total",
			Help: "Committed session transitions by role and target stage",
		}, []string{"role", "stage"}),
		HandlerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmabot_handler_failures_total",
			Help: "Failed stage handlers by error class",
		}, []string{"class"}),
		GatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pharmabot_gateway_request_duration_seconds",
			Help:    "Backend API latency by operation",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op", "outcome"}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pharmabot_orders_created_total",
			Help: "Orders created by consultants",
		}),
		PaymentsReviewed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmabot_payments_reviewed_total",
			Help: "Payments reviewed by cashiers",
		}, []string{"decision"}),
		MediaStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmabot_media_stored_total",
			Help: "Attachments persisted by purpose",
		}, []string{"purpose"}),
		ThrottledCallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pharmabot_throttled_callbacks_total",
			Help: "Button presses dropped by the per-actor throttle",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pharmabot_sessions_active",
			Help: "Sessions currently held in memory",
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pharmabot_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	reg.MustRegister(
		m.EventsTotal,
		m.TransitionsTotal,
		m.HandlerFailures,
		m.GatewayDuration,
		m.OrdersCreated,
		m.PaymentsReviewed,
		m.MediaStored,
		m.ThrottledCallbacks,
		m.ActiveSessions,
		m.BreakerState,
	)
	return m
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveEvent(role, kind string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(role, kind).Inc()
}

func (m *Metrics) ObserveTransition(role, stage string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(role, stage).Inc()
}

func (m *Metrics) ObserveFailure(class string) {
	if m == nil {
		return
	}
	m.HandlerFailures.WithLabelValues(class).Inc()
}

func (m *Metrics) ObserveGateway(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GatewayDuration.WithLabelValues(op, outcome).Observe(time.Since(started).Seconds())
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

func (m *Metrics) PaymentReviewed(decision string) {
	if m == nil {
		return
	}
	m.PaymentsReviewed.WithLabelValues(decision).Inc()
}

func (m *Metrics) MediaSaved(purpose string) {
	if m == nil {
		return
	}
	m.MediaStored.WithLabelValues(purpose).Inc()
}

func (m *Metrics) CallbackThrottled() {
	if m == nil {
		return
	}
	m.ThrottledCallbacks.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(state)
}
