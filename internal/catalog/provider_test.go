package catalog

import (
	"context"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Leganyst/nurse-connect/internal/metrics"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestProvider(now time.Time, availability float64, m *metrics.Metrics) *Provider {
	src := NewRandomSlotSource(RandomSlotOptions{
		OpenHour:     9,
		CloseHour:    17,
		Step:         30 * time.Minute,
		Availability: availability,
		Location:     time.UTC,
		Now:          fixedNow(now),
		Rand:         rand.New(rand.NewPCG(1, 2)),
	})
	return NewProvider(DefaultServices(), src, Options{
		BookableDays: 14,
		Location:     time.UTC,
		Now:          fixedNow(now),
		Metrics:      m,
	})
}

func TestListCategories_FirstSeenOrder(t *testing.T) {
	p := newTestProvider(time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), 0.7, nil)

	got := p.ListCategories()
	want := []string{"Consultations", "Preventive Care", "Treatments"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}
}

func TestListServices_ExactCategory(t *testing.T) {
	p := newTestProvider(time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), 0.7, nil)

	got := p.ListServices("Preventive Care")
	if len(got) != 2 || got[0].Name != "Vaccination" || got[1].Name != "Health Screening" {
		t.Fatalf("unexpected services: %+v", got)
	}
	if len(p.ListServices("preventive care")) != 0 {
		t.Fatalf("category match must be exact")
	}

	svc, ok := p.ServiceByID("1")
	if !ok || svc.Name != "Initial Consultation" {
		t.Fatalf("ServiceByID(1) = %+v, %v", svc, ok)
	}
	if _, ok := p.ServiceByID("404"); ok {
		t.Fatalf("unexpected service for unknown id")
	}
}

func TestGenerateSlots_FutureDateKeepsWholeDay(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 40, 0, 0, time.UTC)
	p := newTestProvider(now, 0.7, nil)

	slots, err := p.GenerateSlots(context.Background(), time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots for 09:00-17:00, got %d", len(slots))
	}
	if slots[0].StartTime != "09:00" || slots[0].EndTime != "09:30" {
		t.Fatalf("first slot = %+v", slots[0])
	}
	if slots[15].StartTime != "16:30" || slots[15].EndTime != "17:00" {
		t.Fatalf("last slot = %+v", slots[15])
	}
}

func TestGenerateSlots_TodayOnlyStrictlyFuture(t *testing.T) {
	cases := []struct {
		name  string
		now   time.Time
		first string
		count int
	}{
		{"between slots", time.Date(2025, 1, 1, 10, 15, 0, 0, time.UTC), "10:30", 13},
		{"exactly on slot", time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC), "11:00", 12},
		{"seconds past slot", time.Date(2025, 1, 1, 10, 30, 45, 0, time.UTC), "11:00", 12},
		{"before opening", time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC), "09:00", 16},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProvider(tc.now, 0.7, nil)
			slots, err := p.GenerateSlots(context.Background(), tc.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(slots) != tc.count {
				t.Fatalf("expected %d slots, got %d", tc.count, len(slots))
			}
			if slots[0].StartTime != tc.first {
				t.Fatalf("first slot = %s, want %s", slots[0].StartTime, tc.first)
			}
		})
	}
}

func TestGenerateSlots_AfterClosingIsEmpty(t *testing.T) {
	now := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	p := newTestProvider(now, 0.7, nil)

	slots, err := p.GenerateSlots(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots after closing, got %d", len(slots))
	}
}

func TestGenerateSlots_AvailabilityBounds(t *testing.T) {
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	none, _ := newTestProvider(now, 0, nil).GenerateSlots(context.Background(), day)
	for _, s := range none {
		if s.Available {
			t.Fatalf("availability 0 produced available slot %+v", s)
		}
	}
	all, _ := newTestProvider(now, 1, nil).GenerateSlots(context.Background(), day)
	for _, s := range all {
		if !s.Available {
			t.Fatalf("availability 1 produced unavailable slot %+v", s)
		}
	}
}

func TestGenerateSlots_CountsMetric(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := newTestProvider(now, 0.7, m)

	if _, err := p.GenerateSlots(context.Background(), now.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(m.SlotsGenerated); got != 16 {
		t.Fatalf("slots metric = %v, want 16", got)
	}
}

func TestGenerateSlots_CancelledContext(t *testing.T) {
	p := newTestProvider(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 0.7, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.GenerateSlots(ctx, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestListBookableDates(t *testing.T) {
	now := time.Date(2025, 1, 30, 15, 0, 0, 0, time.UTC)
	p := newTestProvider(now, 0.7, nil)

	dates := p.ListBookableDates()
	if len(dates) != 14 {
		t.Fatalf("expected 14 dates, got %d", len(dates))
	}
	if !dates[0].Equal(p.Today()) || !p.Today().Equal(time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first date = %v, today = %v", dates[0], p.Today())
	}
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) != 24*time.Hour {
			t.Fatalf("dates not consecutive at %d: %v -> %v", i, dates[i-1], dates[i])
		}
	}

	if !p.IsBookable(time.Date(2025, 2, 12, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("last day of the window must be bookable")
	}
	if p.IsBookable(time.Date(2025, 2, 13, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day after the window must not be bookable")
	}
	if p.IsBookable(time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("yesterday must not be bookable")
	}
}
