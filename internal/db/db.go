package db

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/nurse-connect/internal/config"
)

// NewGormDB открывает SQLite-файл или Postgres в зависимости от драйвера.
func NewGormDB(storage config.StorageConfig, cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch storage.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(storage.SQLitePath)
	case config.DriverPostgres:
		dialector = postgres.Open(PostgresDSN(cfg))
	default:
		return nil, fmt.Errorf("gorm: unsupported driver %q", storage.Driver)
	}

	db, err := open(dialector)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}

	if storage.Driver == config.DriverSQLite {
		// у SQLite один писатель
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifeTime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifeTime) * time.Minute)
	}

	return db, nil
}

// NewMemoryDB открывает SQLite в памяти на одном соединении для тестов и демо.
func NewMemoryDB() (*gorm.DB, error) {
	db, err := open(sqlite.Open(":memory:"))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}
	// каждое новое соединение получило бы пустую базу
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func PostgresDSN(cfg config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.Port,
		cfg.SSLMode,
		cfg.TimeZone,
	)
}

// stdout занят консолью, промах по ключу KV-хранилища не ошибка.
func newGormLogger(w io.Writer) gormlogger.Interface {
	return gormlogger.New(
		stdlog.New(w, "\r\n", stdlog.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func open(dialector gorm.Dialector) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: newGormLogger(os.Stderr),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}
	return db, nil
}
