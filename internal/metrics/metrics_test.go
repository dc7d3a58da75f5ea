package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.BookingCompleted(true)
	m.BookingCompleted(false)
	m.BookingCompleted(true)
	m.AuthAttempt("login", false)
	m.Confirmation(nil)
	m.Confirmation(errors.New("smtp down"))
	m.SlotsAdded(16)
	m.SlotsAdded(0)
	m.StatusChanged("cancelled")

	if got := testutil.ToFloat64(m.BookingsCompleted.WithLabelValues("true")); got != 2 {
		t.Fatalf("bookings authenticated = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.AuthAttempts.WithLabelValues("login", "failure")); got != 1 {
		t.Fatalf("login failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Confirmations.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed confirmations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SlotsGenerated); got != 16 {
		t.Fatalf("slots generated = %v, want 16", got)
	}
	if got := testutil.ToFloat64(m.BookingStatusChanges.WithLabelValues("cancelled")); got != 1 {
		t.Fatalf("status changes = %v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.BookingCompleted(true)
	m.AuthAttempt("register", true)
	m.Confirmation(nil)
	m.SlotsAdded(3)
	m.StatusChanged("completed")
}
