// Package metrics регистрирует счётчики Prometheus сервиса тарифных планов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

const namespace = "subscription_plans"

// Metrics набор коллекторов. Методы безопасны для nil-получателя.
type Metrics struct {
	invoiceDeliveries *prometheus.CounterVec
	planTransitions   *prometheus.CounterVec
	limitReached      *prometheus.CounterVec
	watchedSeconds    prometheus.Gauge
}

// New создаёт коллекторы и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		invoiceDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_deliveries_total",
			Help:      "Invoice email deliveries by result.",
		}, []string{"result"}),
		planTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_transitions_total",
			Help:      "Committed plan changes by kind and target plan.",
		}, []string{"kind", "plan"}),
		limitReached: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_limit_reached_total",
			Help:      "Playback pauses caused by the plan viewing limit.",
		}, []string{"plan"}),
		watchedSeconds: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watched_seconds",
			Help:      "Seconds watched on the current plan.",
		}),
	}
}

// ObserveDelivery учитывает результат отправки счёта.
func (m *Metrics) ObserveDelivery(res models.DeliveryResult) {
	if m == nil {
		return
	}
	result := "failed"
	switch {
	case res.Delivered() && res.Simulated:
		result = "simulated"
	case res.Delivered():
		result = "delivered"
	}
	m.invoiceDeliveries.WithLabelValues(result).Inc()
}

// PlanActivated учитывает переход на план после оплаты.
func (m *Metrics) PlanActivated(planID string) {
	if m == nil {
		return
	}
	m.planTransitions.WithLabelValues("activated", planID).Inc()
}

// PlanCanceled учитывает отмену платного плана.
func (m *Metrics) PlanCanceled(planID string) {
	if m == nil {
		return
	}
	m.planTransitions.WithLabelValues("canceled", planID).Inc()
}

// LimitReached учитывает остановку по лимиту.
func (m *Metrics) LimitReached(planID string) {
	if m == nil {
		return
	}
	m.limitReached.WithLabelValues(planID).Inc()
}

// SetWatched выставляет текущее время просмотра.
func (m *Metrics) SetWatched(seconds int) {
	if m == nil {
		return
	}
	m.watchedSeconds.Set(float64(seconds))
}
