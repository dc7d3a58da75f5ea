package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Leganyst/nurse-connect/internal/calendar"
	"github.com/Leganyst/nurse-connect/internal/model"
)

// SlotSource отдаёт слоты на дату. Реализацию можно заменить настоящим
// расписанием, не трогая мастер записи.
type SlotSource interface {
	SlotsForDate(ctx context.Context, date time.Time) ([]model.TimeSlot, error)
}

type RandomSlotOptions struct {
	OpenHour  int
	CloseHour int
	Step      time.Duration
	// Доля свободных слотов, 0..1.
	Availability float64
	Location     *time.Location
	Now          func() time.Time
	Rand         *rand.Rand
}

// RandomSlotSource имитирует занятость: каждый слот свободен с вероятностью
// Availability, результат не повторяется между вызовами.
type RandomSlotSource struct {
	openHour     int
	closeHour    int
	step         time.Duration
	availability float64
	loc          *time.Location
	now          func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomSlotSource(opts RandomSlotOptions) *RandomSlotSource {
	if opts.Step <= 0 {
		opts.Step = 30 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomSlotSource{
		openHour:     opts.OpenHour,
		closeHour:    opts.CloseHour,
		step:         opts.Step,
		availability: opts.Availability,
		loc:          opts.Location,
		now:          opts.Now,
		rnd:          opts.Rand,
	}
}

func (s *RandomSlotSource) SlotsForDate(ctx context.Context, date time.Time) ([]model.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	day, err := calendar.BusinessHours(date, s.openHour, s.closeHour, s.loc)
	if err != nil {
		return nil, fmt.Errorf("business hours: %w", err)
	}
	ranges, err := calendar.SplitToTimeSlots(day, s.step, 0)
	if err != nil {
		return nil, fmt.Errorf("split slots: %w", err)
	}

	now := s.now().In(s.loc)
	isToday := calendar.SameDay(date, now, s.loc)
	// сравнение с точностью до минуты: слот 09:00 в 09:00:30 уже прошёл
	cutoff := now.Truncate(time.Minute)

	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make([]model.TimeSlot, 0, len(ranges))
	for _, r := range ranges {
		if isToday && !r.Start.After(cutoff) {
			continue
		}
		slots = append(slots, model.TimeSlot{
			StartTime: r.Start.Format(model.TimeSlotLayout),
			EndTime:   r.End.Format(model.TimeSlotLayout),
			Available: s.rnd.Float64() < s.availability,
		})
	}
	return slots, nil
}
