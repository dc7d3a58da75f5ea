package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Leganyst/nurse-connect/internal/model"
)

const (
	usersKeySuffix   = "_users"
	currentKeySuffix = "_current_user"
)

// UserRepository хранит две записи: всех пользователей (id → User)
// и снимок текущего пользователя.
type UserRepository interface {
	LoadUsers(ctx context.Context) (map[string]model.User, error)
	SaveUsers(ctx context.Context, users map[string]model.User) error
	// nil, nil — если снимка нет или он повреждён.
	LoadCurrent(ctx context.Context) (*model.User, error)
	SaveCurrent(ctx context.Context, user model.User) error
	ClearCurrent(ctx context.Context) error
}

// Реализация поверх KVStore, значения в JSON.
type KVUserRepository struct {
	store      KVStore
	usersKey   string
	currentKey string
	log        zerolog.Logger
}

func NewKVUserRepository(store KVStore, keyPrefix string, log zerolog.Logger) *KVUserRepository {
	return &KVUserRepository{
		store:      store,
		usersKey:   keyPrefix + usersKeySuffix,
		currentKey: keyPrefix + currentKeySuffix,
		log:        log,
	}
}

func (r *KVUserRepository) UsersKey() string   { return r.usersKey }
func (r *KVUserRepository) CurrentKey() string { return r.currentKey }

func (r *KVUserRepository) LoadUsers(ctx context.Context) (map[string]model.User, error) {
	raw, ok, err := r.store.Get(ctx, r.usersKey)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	users := make(map[string]model.User)
	if !ok {
		return users, nil
	}

	var stored map[string]model.User
	if err := json.Unmarshal(raw, &stored); err != nil {
		// повреждённое значение считаем отсутствующим
		r.log.Warn().Err(err).Str("key", r.usersKey).Msg("failed to parse stored users")
		return users, nil
	}
	for id, u := range stored {
		if id == "" {
			continue
		}
		if u.ID == "" {
			u.ID = id
		}
		if u.Bookings == nil {
			u.Bookings = []model.BookingDetails{}
		}
		users[id] = u
	}
	return users, nil
}

func (r *KVUserRepository) SaveUsers(ctx context.Context, users map[string]model.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := r.store.Set(ctx, r.usersKey, raw); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

func (r *KVUserRepository) LoadCurrent(ctx context.Context) (*model.User, error) {
	raw, ok, err := r.store.Get(ctx, r.currentKey)
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		r.log.Warn().Err(err).Str("key", r.currentKey).Msg("failed to parse stored user")
		return nil, nil
	}
	if u.ID == "" {
		r.log.Warn().Str("key", r.currentKey).Msg("stored user has no id")
		return nil, nil
	}
	if u.Bookings == nil {
		u.Bookings = []model.BookingDetails{}
	}
	return &u, nil
}

func (r *KVUserRepository) SaveCurrent(ctx context.Context, user model.User) error {
	raw, err := json.Marshal(user.Snapshot())
	if err != nil {
		return fmt.Errorf("encode current user: %w", err)
	}
	if err := r.store.Set(ctx, r.currentKey, raw); err != nil {
		return fmt.Errorf("save current user: %w", err)
	}
	return nil
}

func (r *KVUserRepository) ClearCurrent(ctx context.Context) error {
	if err := r.store.Delete(ctx, r.currentKey); err != nil {
		return fmt.Errorf("clear current user: %w", err)
	}
	return nil
}

// NormalizePhone оставляет только цифры: скобки, пробелы, дефисы и "+"
// из ввода отбрасываются.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}
