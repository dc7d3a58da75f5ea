package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Leganyst/nurse-connect/internal/metrics"
	"github.com/Leganyst/nurse-connect/internal/model"
	"github.com/Leganyst/nurse-connect/internal/repository"
)

type IdentityOptions struct {
	// Проверять пароль при входе. По умолчанию подходит любой пароль.
	VerifyPasswords bool
	Now             func() time.Time
	Metrics         *metrics.Metrics
}

// IdentityService реализует регистрацию, вход и историю записей пользователя.
//
// Кэш пользователей в памяти является источником истины после Load; каждая мутация
// сначала пишется в хранилище и только затем применяется в памяти.
type IdentityService struct {
	repo     repository.UserRepository
	notifier Notifier
	log      zerolog.Logger
	metrics  *metrics.Metrics

	verifyPasswords bool
	now             func() time.Time

	mu      sync.RWMutex
	users   map[string]model.User
	current *model.User
}

func NewIdentityService(repo repository.UserRepository, notifier Notifier, log zerolog.Logger, opts IdentityOptions) *IdentityService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if notifier == nil {
		notifier = NotifierFunc(func(model.Notice) {})
	}
	return &IdentityService{
		repo:            repo,
		notifier:        notifier,
		log:             log,
		metrics:         opts.Metrics,
		verifyPasswords: opts.VerifyPasswords,
		now:             opts.Now,
		users:           map[string]model.User{},
	}
}

// Load восстанавливает пользователей и текущий вход из хранилища.
func (s *IdentityService) Load(ctx context.Context) error {
	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return err
	}
	current, err := s.repo.LoadCurrent(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.current = current
	if current != nil {
		s.log.Debug().Str("user_id", current.ID).Msg("restored session")
	}
	return nil
}

// Register создаёт пользователя и сразу выполняет вход.
func (s *IdentityService) Register(ctx context.Context, name, email, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		s.fail(model.NoticeRegisterFailed, "Registration Failed", "Name and email are required")
		s.metrics.AuthAttempt("register", false)
		return model.User{}, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findByEmailLocked(email); ok {
		s.fail(model.NoticeRegisterFailed, "Registration Failed", "A user with this email already exists")
		s.metrics.AuthAttempt("register", false)
		return model.User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword(passwordDigest(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		ID:           "user-" + uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Bookings:     []model.BookingDetails{},
	}

	if err := s.commitUserLocked(ctx, user, true); err != nil {
		return model.User{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	s.metrics.AuthAttempt("register", true)
	s.notify(model.Notice{
		Kind:        model.NoticeRegistered,
		Title:       "Registration Successful",
		Description: fmt.Sprintf("Welcome, %s!", user.Name),
		UserID:      user.ID,
	})
	return user.Snapshot(), nil
}

// Login ищет пользователя по email. Пароль проверяется только при VerifyPasswords.
func (s *IdentityService) Login(ctx context.Context, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.findByEmailLocked(email)
	if !ok {
		s.fail(model.NoticeLoginFailed, "Login Failed", "Invalid email or password")
		s.metrics.AuthAttempt("login", false)
		return model.User{}, ErrUnknownEmail
	}
	if s.verifyPasswords {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordDigest(password)); err != nil {
			s.fail(model.NoticeLoginFailed, "Login Failed", "Invalid email or password")
			s.metrics.AuthAttempt("login", false)
			return model.User{}, ErrInvalidPassword
		}
	}

	if err := s.setCurrentLocked(ctx, user); err != nil {
		return model.User{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	s.metrics.AuthAttempt("login", true)
	s.notify(model.Notice{
		Kind:        model.NoticeLoggedIn,
		Title:       "Logged In",
		Description: fmt.Sprintf("Welcome back, %s!", user.Name),
		UserID:      user.ID,
	})
	return user.Snapshot(), nil
}

func (s *IdentityService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ClearCurrent(ctx); err != nil {
		return err
	}
	var userID string
	if s.current != nil {
		userID = s.current.ID
	}
	s.current = nil

	s.metrics.AuthAttempt("logout", true)
	s.notify(model.Notice{
		Kind:        model.NoticeLoggedOut,
		Title:       "Logged Out",
		Description: "You have been logged out successfully",
		UserID:      userID,
	})
	return nil
}

// CurrentUser возвращает копию снимка текущего пользователя или nil.
func (s *IdentityService) CurrentUser() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := s.current.Clone()
	return &u
}

func (s *IdentityService) AuthState() model.AuthState {
	user := s.CurrentUser()
	return model.AuthState{User: user, IsAuthenticated: user != nil}
}

// AppendBooking дописывает запись в историю пользователя. Неизвестный
// userID не ошибка: ничего не меняется.
func (s *IdentityService) AppendBooking(ctx context.Context, userID string, booking model.BookingDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		s.log.Debug().Str("user_id", userID).Msg("append booking: unknown user")
		return nil
	}

	updated := user.Clone()
	updated.Bookings = append(updated.Bookings, booking.Clone())
	if err := s.commitUserLocked(ctx, updated, false); err != nil {
		return err
	}

	s.log.Info().Str("user_id", userID).Str("booking_id", booking.ID).Msg("booking added to history")
	return nil
}

// ListBookings возвращает копию истории; для неизвестного пользователя список пуст.
func (s *IdentityService) ListBookings(userID string) []model.BookingDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return []model.BookingDetails{}
	}
	return model.CloneBookings(user.Bookings)
}

// Profile — изменяемые поля профиля. Пустые строки и nil не меняют значение.
type Profile struct {
	Name         string
	Phone        string
	DateOfBirth  string
	IsNewPatient *bool
}

func (s *IdentityService) UpdateProfile(ctx context.Context, userID string, p Profile) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return model.User{}, ErrUserNotFound
	}

	updated := user.Clone()
	if name := strings.TrimSpace(p.Name); name != "" {
		updated.Name = name
	}
	if p.Phone != "" {
		updated.Phone = repository.NormalizePhone(p.Phone)
	}
	if p.DateOfBirth != "" {
		updated.DateOfBirth = p.DateOfBirth
	}
	if p.IsNewPatient != nil {
		v := *p.IsNewPatient
		updated.IsNewPatient = &v
	}

	if err := s.commitUserLocked(ctx, updated, false); err != nil {
		return model.User{}, err
	}
	return updated.Snapshot(), nil
}

// UpdateBookingStatus заменяет запись в истории копией с новым статусом.
func (s *IdentityService) UpdateBookingStatus(ctx context.Context, userID, bookingID string, status model.BookingStatus) (model.BookingDetails, error) {
	if !status.Valid() {
		return model.BookingDetails{}, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return model.BookingDetails{}, ErrUserNotFound
	}

	updated := user.Clone()
	idx := slices.IndexFunc(updated.Bookings, func(b model.BookingDetails) bool { return b.ID == bookingID })
	if idx < 0 {
		return model.BookingDetails{}, ErrBookingNotFound
	}
	updated.Bookings[idx].Status = status

	if err := s.commitUserLocked(ctx, updated, false); err != nil {
		return model.BookingDetails{}, err
	}
	return updated.Bookings[idx].Clone(), nil
}

// OwnedBooking — запись вместе с владельцем.
type OwnedBooking struct {
	UserID    string
	UserName  string
	UserEmail string
	Booking   model.BookingDetails
}

// AllBookings возвращает записи всех пользователей по времени создания.
func (s *IdentityService) AllBookings() []OwnedBooking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []OwnedBooking
	for _, id := range sortedIDs(s.users) {
		user := s.users[id]
		for _, b := range user.Bookings {
			out = append(out, OwnedBooking{
				UserID:    user.ID,
				UserName:  user.Name,
				UserEmail: user.Email,
				Booking:   b.Clone(),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Booking.CreatedAt, out[j].Booking.CreatedAt
		switch {
		case a == nil || b == nil:
			return a == nil && b != nil
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return out[i].Booking.ID < out[j].Booking.ID
		}
	})
	return out
}

// commitUserLocked сохраняет пользователя и, если это текущий вход (или login
// задан), его снимок. Память меняется только после обеих записей; если снимок
// записать не удалось, в хранилище возвращается прежний список пользователей.
func (s *IdentityService) commitUserLocked(ctx context.Context, user model.User, login bool) error {
	prev := s.users
	next := maps.Clone(prev)
	if next == nil {
		next = make(map[string]model.User, 1)
	}
	next[user.ID] = user
	if err := s.repo.SaveUsers(ctx, next); err != nil {
		return err
	}

	if !login && (s.current == nil || s.current.ID != user.ID) {
		s.users = next
		return nil
	}

	snap := user.Snapshot()
	if err := s.repo.SaveCurrent(ctx, snap); err != nil {
		if rbErr := s.repo.SaveUsers(ctx, prev); rbErr != nil {
			s.log.Error().Err(rbErr).Str("user_id", user.ID).Msg("restore users after failed snapshot write")
		}
		return err
	}
	s.users = next
	s.current = &snap
	return nil
}

func (s *IdentityService) setCurrentLocked(ctx context.Context, user model.User) error {
	snap := user.Snapshot()
	if err := s.repo.SaveCurrent(ctx, snap); err != nil {
		return err
	}
	s.current = &snap
	return nil
}

// При одинаковых email побеждает пользователь с меньшим id.
func (s *IdentityService) findByEmailLocked(email string) (model.User, bool) {
	for _, id := range sortedIDs(s.users) {
		if u := s.users[id]; u.Email == email {
			return u, true
		}
	}
	return model.User{}, false
}

func (s *IdentityService) fail(kind model.NoticeKind, title, description string) {
	s.log.Warn().Str("kind", string(kind)).Msg(description)
	s.notify(model.Notice{Kind: kind, Title: title, Description: description, Destructive: true})
}

func (s *IdentityService) notify(n model.Notice) {
	n.CreatedAt = s.now()
	s.notifier.Notify(n)
}

// bcrypt принимает не больше 72 байт, поэтому хэшируется SHA-256 пароля.
func passwordDigest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

func sortedIDs(users map[string]model.User) []string {
	return slices.Sorted(maps.Keys(users))
}

// IsAuthError сообщает, что ошибка означает отказ во входе/регистрации, а не сбой хранилища.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrUnknownEmail) ||
		errors.Is(err, ErrInvalidPassword)
}
