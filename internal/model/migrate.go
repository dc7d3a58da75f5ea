package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию таблиц хранилища.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&KVRecord{},
	)
}
