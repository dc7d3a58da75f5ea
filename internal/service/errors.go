package service

import (
	"errors"
	"sort"
	"strings"
)

// Ошибки учётных записей.
var (
	ErrInvalidCredentials = errors.New("name and email are required")
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrUnknownEmail       = errors.New("invalid email or password")
	ErrInvalidPassword    = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrInvalidStatus      = errors.New("invalid booking status")
)

// Ошибки мастера записи: переход заблокирован, состояние не изменилось.
var (
	ErrInvalidStep     = errors.New("action not allowed at the current step")
	ErrNoService       = errors.New("no service selected")
	ErrUnknownService  = errors.New("unknown service")
	ErrNoDate          = errors.New("no date selected")
	ErrNoSlot          = errors.New("no time slot selected")
	ErrDateNotBookable = errors.New("date is outside the booking window")
	ErrSlotUnavailable = errors.New("time slot is not available")
)

// ValidationError — ошибки по полям контактной формы.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, name+": "+e.Fields[name])
	}
	return "invalid details: " + strings.Join(msgs, "; ")
}
