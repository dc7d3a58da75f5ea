package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Leganyst/nurse-connect/internal/model"
)

// Notifier показывает пользователю уведомления (тосты).
type Notifier interface {
	Notify(n model.Notice)
}

type NotifierFunc func(n model.Notice)

func (f NotifierFunc) Notify(n model.Notice) { f(n) }

// MultiNotifier рассылает уведомление всем получателям по порядку.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(n model.Notice) {
	for _, dst := range m {
		if dst != nil {
			dst.Notify(n)
		}
	}
}

// LogNotifier пишет уведомления в лог.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(notice model.Notice) {
	ev := n.log.Info()
	if notice.Destructive {
		ev = n.log.Warn()
	}
	ev.Str("kind", string(notice.Kind)).
		Str("title", notice.Title).
		Str("user_id", notice.UserID).
		Str("booking_id", notice.BookingID).
		Msg(notice.Description)
}

// ConfirmationSender отправляет подтверждение записи клиенту.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, booking model.BookingDetails) error
}

// SimulatedMailer имитирует отправку письма с задержкой сети.
type SimulatedMailer struct {
	delay    time.Duration
	notifier Notifier
	log      zerolog.Logger
}

func NewSimulatedMailer(delay time.Duration, notifier Notifier, log zerolog.Logger) *SimulatedMailer {
	return &SimulatedMailer{delay: delay, notifier: notifier, log: log}
}

func (m *SimulatedMailer) SendConfirmation(ctx context.Context, booking model.BookingDetails) error {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.log.Info().
		Str("booking_id", booking.ID).
		Str("email", booking.CustomerEmail).
		Msg("confirmation email sent")

	if m.notifier != nil {
		m.notifier.Notify(model.Notice{
			Kind:        model.NoticeConfirmationSent,
			Title:       "Confirmation Sent",
			Description: "Confirmation details have been sent to " + booking.CustomerEmail,
			CreatedAt:   time.Now(),
			UserID:      booking.UserID,
			BookingID:   booking.ID,
		})
	}
	return nil
}
