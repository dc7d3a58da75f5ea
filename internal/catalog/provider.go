package catalog

import (
	"context"
	"time"

	"github.com/Leganyst/nurse-connect/internal/calendar"
	"github.com/Leganyst/nurse-connect/internal/metrics"
	"github.com/Leganyst/nurse-connect/internal/model"
)

type Options struct {
	BookableDays int
	Location     *time.Location
	Now          func() time.Time
	Metrics      *metrics.Metrics
}

// Provider — каталог услуг и доступного времени.
type Provider struct {
	services     []model.Service
	slots        SlotSource
	bookableDays int
	loc          *time.Location
	now          func() time.Time
	metrics      *metrics.Metrics
}

func NewProvider(services []model.Service, slots SlotSource, opts Options) *Provider {
	if opts.BookableDays <= 0 {
		opts.BookableDays = 14
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	list := make([]model.Service, len(services))
	copy(list, services)
	return &Provider{
		services:     list,
		slots:        slots,
		bookableDays: opts.BookableDays,
		loc:          opts.Location,
		now:          opts.Now,
		metrics:      opts.Metrics,
	}
}

// ListCategories возвращает категории в порядке первого появления, без повторов.
func (p *Provider) ListCategories() []string {
	seen := make(map[string]struct{}, len(p.services))
	out := make([]string, 0)
	for _, s := range p.services {
		if _, ok := seen[s.Category]; ok {
			continue
		}
		seen[s.Category] = struct{}{}
		out = append(out, s.Category)
	}
	return out
}

// ListServices возвращает услуги с точным совпадением категории.
func (p *Provider) ListServices(category string) []model.Service {
	out := make([]model.Service, 0)
	for _, s := range p.services {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

func (p *Provider) ServiceByID(id string) (model.Service, bool) {
	for _, s := range p.services {
		if s.ID == id {
			return s, true
		}
	}
	return model.Service{}, false
}

// GenerateSlots не идемпотентен: доступность пересчитывается при каждом вызове.
func (p *Provider) GenerateSlots(ctx context.Context, date time.Time) ([]model.TimeSlot, error) {
	slots, err := p.slots.SlotsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	p.metrics.SlotsAdded(len(slots))
	return slots, nil
}

// ListBookableDates возвращает N дней подряд начиная с сегодняшнего.
func (p *Provider) ListBookableDates() []time.Time {
	today := p.Today()
	dates := make([]time.Time, 0, p.bookableDays)
	for i := 0; i < p.bookableDays; i++ {
		dates = append(dates, today.AddDate(0, 0, i))
	}
	return dates
}

// IsBookable сообщает, попадает ли дата в окно записи.
func (p *Provider) IsBookable(date time.Time) bool {
	today := p.Today()
	day := calendar.DateOnly(date.In(p.loc))
	last := today.AddDate(0, 0, p.bookableDays-1)
	return !day.Before(today) && !day.After(last)
}

func (p *Provider) Location() *time.Location {
	return p.loc
}

// Today возвращает сегодняшнюю дату в часовом поясе каталога.
func (p *Provider) Today() time.Time {
	return calendar.DateOnly(p.now().In(p.loc))
}
