// Package metrics описывает счётчики Prometheus для записи на приём.
//
// Счётчики регистрируются на переданном Registerer; методы безопасно
// вызывать на nil *Metrics (метрики выключены).
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nurse_connect"

type Metrics struct {
	// Завершённые записи. Label authenticated: "true" / "false".
	BookingsCompleted *prometheus.CounterVec
	// Попытки входа/регистрации/выхода. Labels: action, result.
	AuthAttempts *prometheus.CounterVec
	// Отправка подтверждений. Label result: "sent" / "failed".
	Confirmations *prometheus.CounterVec
	// Сгенерированные слоты.
	SlotsGenerated prometheus.Counter
	// Смены статуса из админки. Label status.
	BookingStatusChanges *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BookingsCompleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_completed_total",
				Help:      "Total number of finalized bookings.",
			},
			[]string{"authenticated"},
		),
		AuthAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Total number of register/login/logout attempts by result.",
			},
			[]string{"action", "result"},
		),
		Confirmations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "confirmations_total",
				Help:      "Total number of confirmation notifications by result.",
			},
			[]string{"result"},
		),
		SlotsGenerated: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slots_generated_total",
				Help:      "Total number of time slots generated.",
			},
		),
		BookingStatusChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_status_changes_total",
				Help:      "Total number of booking status changes by new status.",
			},
			[]string{"status"},
		),
	}
}

func (m *Metrics) BookingCompleted(authenticated bool) {
	if m == nil {
		return
	}
	m.BookingsCompleted.WithLabelValues(strconv.FormatBool(authenticated)).Inc()
}

func (m *Metrics) AuthAttempt(action string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.AuthAttempts.WithLabelValues(action, result).Inc()
}

func (m *Metrics) Confirmation(err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Confirmations.WithLabelValues(result).Inc()
}

func (m *Metrics) SlotsAdded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SlotsGenerated.Add(float64(n))
}

func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.BookingStatusChanges.WithLabelValues(status).Inc()
}
