package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Leganyst/nurse-connect/internal/calendar"
	"github.com/Leganyst/nurse-connect/internal/metrics"
	"github.com/Leganyst/nurse-connect/internal/model"
)

// Catalog — то, что сессии нужно от каталога услуг.
type Catalog interface {
	ServiceByID(id string) (model.Service, bool)
	GenerateSlots(ctx context.Context, date time.Time) ([]model.TimeSlot, error)
	IsBookable(date time.Time) bool
}

// Identity — то, что сессии нужно от хранилища пользователей.
type Identity interface {
	CurrentUser() *model.User
	AppendBooking(ctx context.Context, userID string, booking model.BookingDetails) error
	ListBookings(userID string) []model.BookingDetails
}

type SessionOptions struct {
	Variant DetailsVariant
	Now     func() time.Time
	Metrics *metrics.Metrics
}

// BookingSession ведёт мастер записи (service, datetime, details, confirmation)
// плюс просмотр истории. Выбор сразу попадает в черновик, а переход вперёд
// проверяет, что нужные поля заполнены; назад можно вернуться без потерь.
type BookingSession struct {
	catalog   Catalog
	identity  Identity
	validator *DetailsValidator
	sender    ConfirmationSender
	notifier  Notifier
	log       zerolog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu        sync.Mutex
	step      model.BookingStep
	draft     model.BookingDetails
	slots     []model.TimeSlot
	confirmed *model.BookingDetails

	pending sync.WaitGroup
}

func NewBookingSession(
	catalog Catalog,
	identity Identity,
	sender ConfirmationSender,
	notifier Notifier,
	log zerolog.Logger,
	opts SessionOptions,
) *BookingSession {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if notifier == nil {
		notifier = NotifierFunc(func(model.Notice) {})
	}
	s := &BookingSession{
		catalog:   catalog,
		identity:  identity,
		validator: NewDetailsValidator(opts.Variant),
		sender:    sender,
		notifier:  notifier,
		log:       log,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
	s.resetLocked()
	return s
}

func (s *BookingSession) Step() model.BookingStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Draft возвращает копию черновика.
func (s *BookingSession) Draft() model.BookingDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Slots возвращает слоты, сгенерированные для выбранной даты.
func (s *BookingSession) Slots() []model.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.slots)
}

func (s *BookingSession) Variant() DetailsVariant {
	return s.validator.Variant()
}

// Confirmation возвращает последнюю оформленную запись.
func (s *BookingSession) Confirmation() (model.BookingDetails, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirmed == nil {
		return model.BookingDetails{}, false
	}
	return s.confirmed.Clone(), true
}

func (s *BookingSession) SelectService(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepService {
		return ErrInvalidStep
	}
	svc, ok := s.catalog.ServiceByID(id)
	if !ok {
		return ErrUnknownService
	}
	s.draft.Service = &svc
	return nil
}

func (s *BookingSession) ContinueToDateTime(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepService {
		return ErrInvalidStep
	}
	if s.draft.Service == nil {
		return ErrNoService
	}
	if err := s.refreshSlotsLocked(ctx); err != nil {
		return err
	}
	s.step = model.StepDateTime
	return nil
}

// SelectDate генерирует слоты на дату. Выбранный ранее слот сохраняется,
// только если такой же слот есть и свободен на новую дату.
func (s *BookingSession) SelectDate(ctx context.Context, date time.Time) ([]model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepDateTime {
		return nil, ErrInvalidStep
	}
	if !s.catalog.IsBookable(date) {
		return nil, ErrDateNotBookable
	}

	slots, err := s.catalog.GenerateSlots(ctx, date)
	if err != nil {
		return nil, err
	}

	day := calendar.DateOnly(date)
	s.draft.Date = &day
	s.slots = slots
	s.keepSlotIfAvailableLocked()
	return slices.Clone(slots), nil
}

func (s *BookingSession) SelectSlot(startTime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepDateTime {
		return ErrInvalidStep
	}
	if s.draft.Date == nil {
		return ErrNoDate
	}
	idx := slices.IndexFunc(s.slots, func(ts model.TimeSlot) bool { return ts.StartTime == startTime })
	if idx < 0 || !s.slots[idx].Available {
		return ErrSlotUnavailable
	}
	slot := s.slots[idx]
	s.draft.TimeSlot = &slot
	return nil
}

func (s *BookingSession) ContinueToDetails() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepDateTime {
		return ErrInvalidStep
	}
	if s.draft.Date == nil {
		return ErrNoDate
	}
	if s.draft.TimeSlot == nil {
		return ErrNoSlot
	}
	s.step = model.StepDetails
	return nil
}

// UpdateDetails сохраняет введённые данные в черновик без проверки.
func (s *BookingSession) UpdateDetails(d ContactDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepDetails {
		return ErrInvalidStep
	}
	s.validator.Apply(&s.draft, d)
	return nil
}

// Back: details → datetime, datetime → service.
func (s *BookingSession) Back(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case model.StepDetails:
		if err := s.refreshSlotsLocked(ctx); err != nil {
			return err
		}
		s.step = model.StepDateTime
	case model.StepDateTime:
		s.step = model.StepService
	default:
		return ErrInvalidStep
	}
	return nil
}

// Submit проверяет контактные данные и оформляет запись. При ошибке
// проверки введённые данные остаются в черновике, шаг не меняется.
func (s *BookingSession) Submit(ctx context.Context, d ContactDetails) (model.BookingDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepDetails {
		return model.BookingDetails{}, ErrInvalidStep
	}
	s.validator.Apply(&s.draft, d)

	switch {
	case s.draft.Service == nil:
		return model.BookingDetails{}, ErrNoService
	case s.draft.Date == nil:
		return model.BookingDetails{}, ErrNoDate
	case s.draft.TimeSlot == nil:
		return model.BookingDetails{}, ErrNoSlot
	}
	if err := s.validator.Validate(contactOf(s.draft)); err != nil {
		return model.BookingDetails{}, err
	}

	now := s.now()
	booking := s.draft.Clone()
	booking.ID = uuid.NewString()
	booking.Status = model.BookingStatusScheduled
	booking.CreatedAt = &now
	if s.validator.Variant() == VariantPatient && booking.IsNewPatient == nil {
		isNew := false
		booking.IsNewPatient = &isNew
	}

	// Владельцем считается тот, кто залогинен сейчас, а не при начале записи.
	booking.UserID = ""
	user := s.identity.CurrentUser()
	if user != nil {
		booking.UserID = user.ID
		if err := s.identity.AppendBooking(ctx, user.ID, booking.Clone()); err != nil {
			return model.BookingDetails{}, err
		}
	}

	s.draft = booking.Clone()
	confirmed := booking.Clone()
	s.confirmed = &confirmed
	s.step = model.StepConfirmation

	s.log.Info().
		Str("booking_id", booking.ID).
		Str("service_id", booking.Service.ID).
		Str("date", booking.Date.Format(time.DateOnly)).
		Str("start", booking.TimeSlot.StartTime).
		Str("user_id", booking.UserID).
		Msg("booking confirmed")
	s.metrics.BookingCompleted(user != nil)
	s.notifier.Notify(model.Notice{
		Kind:        model.NoticeBookingConfirmed,
		Title:       "Booking Confirmed",
		Description: booking.Service.Name + " on " + booking.Date.Format("Monday, January 2, 2006") + " at " + booking.TimeSlot.StartTime,
		CreatedAt:   now,
		UserID:      booking.UserID,
		BookingID:   booking.ID,
	})

	if booking.CustomerEmail != "" && s.sender != nil {
		s.sendConfirmation(booking.Clone())
	}
	return booking, nil
}

// Reset начинает новую запись после подтверждения или из истории.
func (s *BookingSession) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepConfirmation && s.step != model.StepHistory {
		return ErrInvalidStep
	}
	s.resetLocked()
	return nil
}

// ViewHistory доступен с любого шага и не трогает черновик.
func (s *BookingSession) ViewHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = model.StepHistory
}

// History возвращает записи текущего пользователя. Без входа список пуст.
func (s *BookingSession) History() []model.BookingDetails {
	user := s.identity.CurrentUser()
	if user == nil {
		return []model.BookingDetails{}
	}
	return s.identity.ListBookings(user.ID)
}

// Close дожидается отправки подтверждений. Вызывается при завершении.
func (s *BookingSession) Close() {
	s.pending.Wait()
}

// Отправка не блокирует подтверждение записи.
func (s *BookingSession) sendConfirmation(booking model.BookingDetails) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		err := s.sender.SendConfirmation(context.Background(), booking)
		s.metrics.Confirmation(err)
		if err != nil {
			s.log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to send confirmation")
		}
	}()
}

func (s *BookingSession) resetLocked() {
	s.draft = model.BookingDetails{}
	if user := s.identity.CurrentUser(); user != nil {
		s.draft.CustomerName = user.Name
		s.draft.CustomerEmail = user.Email
		s.draft.CustomerPhone = user.Phone
		s.draft.UserID = user.ID
		if s.validator.Variant() == VariantPatient {
			s.draft.DateOfBirth = user.DateOfBirth
			if user.IsNewPatient != nil {
				v := *user.IsNewPatient
				s.draft.IsNewPatient = &v
			}
		}
	}
	s.slots = nil
	s.confirmed = nil
	s.step = model.StepService
}

// refreshSlotsLocked заново генерирует слоты при возврате на шаг datetime.
// Дата, выпавшая из окна записи, сбрасывается вместе со слотом.
func (s *BookingSession) refreshSlotsLocked(ctx context.Context) error {
	if s.draft.Date == nil {
		s.slots = nil
		return nil
	}
	if !s.catalog.IsBookable(*s.draft.Date) {
		s.draft.Date = nil
		s.draft.TimeSlot = nil
		s.slots = nil
		return nil
	}
	slots, err := s.catalog.GenerateSlots(ctx, *s.draft.Date)
	if err != nil {
		return err
	}
	s.slots = slots
	s.keepSlotIfAvailableLocked()
	return nil
}

func (s *BookingSession) keepSlotIfAvailableLocked() {
	if s.draft.TimeSlot == nil {
		return
	}
	idx := slices.IndexFunc(s.slots, func(ts model.TimeSlot) bool {
		return ts.StartTime == s.draft.TimeSlot.StartTime && ts.Available
	})
	if idx < 0 {
		s.draft.TimeSlot = nil
		return
	}
	slot := s.slots[idx]
	s.draft.TimeSlot = &slot
}
