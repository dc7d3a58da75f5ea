package db

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/Leganyst/nurse-connect/internal/config"
	"github.com/Leganyst/nurse-connect/internal/model"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DBConfig{
		Host:     "pg",
		Port:     5433,
		User:     "u",
		Password: "p",
		Name:     "n",
		SSLMode:  "disable",
		TimeZone: "UTC",
	})
	want := "host=pg user=u password=p dbname=n port=5433 sslmode=disable TimeZone=UTC"
	if dsn != want {
		t.Fatalf("dsn = %q, want %q", dsn, want)
	}
}

func TestNewGormDB_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	gdb, err := NewGormDB(config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: path}, config.DBConfig{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	if !gdb.Migrator().HasTable(&model.KVRecord{}) {
		t.Fatalf("kv_records table missing")
	}
}

func TestNewGormDB_UnknownDriver(t *testing.T) {
	if _, err := NewGormDB(config.StorageConfig{Driver: "redis"}, config.DBConfig{}); err == nil {
		t.Fatalf("expected error for non-SQL driver")
	}
}

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	gdb, err := NewMemoryDB()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	var buf bytes.Buffer
	quiet := gdb.Session(&gorm.Session{Logger: newGormLogger(&buf)})
	var rec model.KVRecord
	err = quiet.Where("storage_key = ?", "missing").First(&rec).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("record not found was logged:\n%s", buf.String())
	}

	err = quiet.Exec("SELECT * FROM no_such_table").Error
	if err == nil {
		t.Fatalf("query on missing table succeeded")
	}
	if buf.Len() == 0 {
		t.Fatalf("real query error was not logged")
	}
}
