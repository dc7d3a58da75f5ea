package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/nurse-connect/internal/model"
)

// KVStore — локальное key-value хранилище. Отсутствие ключа не ошибка:
// Get возвращает ok=false.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Реализация на GORM (SQLite или Postgres).
type GormKVStore struct {
	db *gorm.DB
}

func NewGormKVStore(db *gorm.DB) *GormKVStore {
	return &GormKVStore{db: db}
}

func (s *GormKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var rec model.KVRecord
	err := s.db.WithContext(ctx).First(&rec, "storage_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(rec.Value), true, nil
}

func (s *GormKVStore) Set(ctx context.Context, key string, value []byte) error {
	rec := model.KVRecord{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rec).
		Error
}

func (s *GormKVStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("storage_key = ?", key).
		Delete(&model.KVRecord{}).
		Error
}
