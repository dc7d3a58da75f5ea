package model

import "time"

// Тип уведомления для пользователя.
type NoticeKind string

const (
	NoticeLoggedIn         NoticeKind = "logged_in"
	NoticeLoginFailed      NoticeKind = "login_failed"
	NoticeRegistered       NoticeKind = "registered"
	NoticeRegisterFailed   NoticeKind = "register_failed"
	NoticeLoggedOut        NoticeKind = "logged_out"
	NoticeBookingConfirmed NoticeKind = "booking_confirmed"
	NoticeConfirmationSent NoticeKind = "confirmation_sent"
	NoticeBookingStatusSet NoticeKind = "booking_status_set"
)

// Notice — закрываемое уведомление (тост). Destructive помечает ошибки.
type Notice struct {
	Kind        NoticeKind
	Title       string
	Description string
	Destructive bool
	CreatedAt   time.Time

	UserID    string
	BookingID string
}
