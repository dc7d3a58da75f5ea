package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Leganyst/nurse-connect/internal/calendar"
	"github.com/Leganyst/nurse-connect/internal/metrics"
	"github.com/Leganyst/nurse-connect/internal/model"
)

// AdminService — разбор записей по статусам.
type AdminService struct {
	identity *IdentityService
	notifier Notifier
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

func NewAdminService(identity *IdentityService, notifier Notifier, log zerolog.Logger, m *metrics.Metrics) *AdminService {
	if notifier == nil {
		notifier = NotifierFunc(func(model.Notice) {})
	}
	return &AdminService{identity: identity, notifier: notifier, log: log, metrics: m}
}

// Counts считает записи по каждому статусу, включая нулевые.
func (a *AdminService) Counts() map[model.BookingStatus]int {
	counts := make(map[model.BookingStatus]int, len(model.BookingStatuses))
	for _, st := range model.BookingStatuses {
		counts[st] = 0
	}
	for _, ob := range a.identity.AllBookings() {
		counts[ob.Booking.Status]++
	}
	return counts
}

// ListByStatus возвращает страницу записей с данным статусом, ближайшие приёмы первыми.
func (a *AdminService) ListByStatus(status model.BookingStatus, page, pageSize int) (calendar.Page[OwnedBooking], error) {
	if !status.Valid() {
		return calendar.Page[OwnedBooking]{}, ErrInvalidStatus
	}

	var items []OwnedBooking
	for _, ob := range a.identity.AllBookings() {
		if ob.Booking.Status == status {
			items = append(items, ob)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return appointmentStart(items[i].Booking).Before(appointmentStart(items[j].Booking))
	})
	return calendar.Paginate(items, page, pageSize), nil
}

// ChangeStatus меняет статус записи по её id.
func (a *AdminService) ChangeStatus(ctx context.Context, bookingID string, status model.BookingStatus) (model.BookingDetails, error) {
	if !status.Valid() {
		return model.BookingDetails{}, ErrInvalidStatus
	}

	var owner string
	for _, ob := range a.identity.AllBookings() {
		if ob.Booking.ID == bookingID {
			owner = ob.UserID
			break
		}
	}
	if owner == "" {
		return model.BookingDetails{}, ErrBookingNotFound
	}

	updated, err := a.identity.UpdateBookingStatus(ctx, owner, bookingID, status)
	if err != nil {
		return model.BookingDetails{}, err
	}

	a.log.Info().
		Str("booking_id", bookingID).
		Str("status", string(status)).
		Msg("booking status changed")
	a.metrics.StatusChanged(string(status))
	a.notifier.Notify(model.Notice{
		Kind:        model.NoticeBookingStatusSet,
		Title:       "Status Updated",
		Description: fmt.Sprintf("Booking %s is now %s", bookingID, status),
		CreatedAt:   a.identity.now(),
		UserID:      owner,
		BookingID:   bookingID,
	})
	return updated, nil
}

// appointmentStart складывает дату приёма и время начала слота. Без даты возвращает нулевое время.
func appointmentStart(b model.BookingDetails) time.Time {
	if b.Date == nil {
		return time.Time{}
	}
	day := *b.Date
	if b.TimeSlot == nil {
		return day
	}
	t, err := time.Parse(model.TimeSlotLayout, b.TimeSlot.StartTime)
	if err != nil {
		return day
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}
