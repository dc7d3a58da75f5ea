package model

import "time"

type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "scheduled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingStatuses перечисляет статусы в порядке вкладок админки.
var BookingStatuses = []BookingStatus{
	BookingStatusScheduled,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusScheduled, BookingStatusCompleted, BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// BookingDetails — черновик записи, а после завершения — финальная запись.
// ID, Status и CreatedAt пустые, пока запись в черновике.
type BookingDetails struct {
	ID string `json:"id,omitempty"`

	Service  *Service   `json:"service"`
	Date     *time.Time `json:"date"`
	TimeSlot *TimeSlot  `json:"timeSlot"`

	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`

	// Только для варианта формы "patient".
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	IsNewPatient *bool  `json:"isNewPatient,omitempty"`

	Notes string `json:"notes"`

	Status    BookingStatus `json:"status,omitempty"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`

	// Владелец записи, если при оформлении был вход в аккаунт.
	UserID string `json:"userId,omitempty"`
}

// Finalized сообщает, присвоены ли записи id, статус и время создания.
func (b BookingDetails) Finalized() bool {
	return b.ID != "" && b.Status != "" && b.CreatedAt != nil
}

// Clone возвращает глубокую копию: изменения копии не видны в исходнике.
func (b BookingDetails) Clone() BookingDetails {
	out := b
	if b.Service != nil {
		s := *b.Service
		out.Service = &s
	}
	if b.Date != nil {
		d := *b.Date
		out.Date = &d
	}
	if b.TimeSlot != nil {
		ts := *b.TimeSlot
		out.TimeSlot = &ts
	}
	if b.IsNewPatient != nil {
		v := *b.IsNewPatient
		out.IsNewPatient = &v
	}
	if b.CreatedAt != nil {
		c := *b.CreatedAt
		out.CreatedAt = &c
	}
	return out
}

func CloneBookings(list []BookingDetails) []BookingDetails {
	out := make([]BookingDetails, 0, len(list))
	for _, b := range list {
		out = append(out, b.Clone())
	}
	return out
}
