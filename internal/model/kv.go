package model

import (
	"time"

	"gorm.io/datatypes"
)

// kv_records — локальное key-value хранилище ("хранилище устройства").
type KVRecord struct {
	Key string `gorm:"column:storage_key;type:varchar(255);primaryKey"`

	// Значение хранится как JSON (jsonb в Postgres, text в SQLite).
	Value datatypes.JSON `gorm:"not null"`

	UpdatedAt time.Time `gorm:"not null"`
}

func (KVRecord) TableName() string {
	return "kv_records"
}
