package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	VariantBasic   = "basic"
	VariantPatient = "patient"
)

type Config struct {
	Env       string `env:"ENV, default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	// Адрес для /metrics, пустой выключает сервер.
	MetricsAddr string `env:"METRICS_ADDR"`

	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Booking BookingConfig
	Auth    AuthConfig
}

type StorageConfig struct {
	Driver     string `env:"STORAGE_DRIVER, default=sqlite"`
	SQLitePath string `env:"SQLITE_PATH, default=nurse_connect.db"`
	KeyPrefix  string `env:"STORAGE_KEY_PREFIX, default=nurse_connect"`
}

type DBConfig struct {
	Host            string `env:"DB_HOST, default=postgres"`
	Port            int    `env:"DB_PORT, default=5432"`
	User            string `env:"DB_USER, default=booking"`
	Password        string `env:"DB_PASSWORD, default=booking"`
	Name            string `env:"DB_NAME, default=booking_db"`
	SSLMode         string `env:"DB_SSLMODE, default=disable"`
	TimeZone        string `env:"DB_TIMEZONE, default=UTC"`
	MaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS, default=10"`
	MaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS, default=5"`
	ConnMaxLifeTime int    `env:"DB_CONN_MAX_LIFETIME_MIN, default=30"` // минут
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	DB       int    `env:"REDIS_DB, default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

type CatalogConfig struct {
	OpenHour     int     `env:"CATALOG_OPEN_HOUR, default=9"`
	CloseHour    int     `env:"CATALOG_CLOSE_HOUR, default=17"`
	SlotMinutes  int     `env:"CATALOG_SLOT_MINUTES, default=30"`
	Availability float64 `env:"CATALOG_AVAILABILITY, default=0.7"`
	BookableDays int     `env:"CATALOG_BOOKABLE_DAYS, default=14"`
	TimeZone     string  `env:"CATALOG_TIMEZONE, default=Local"`
}

type BookingConfig struct {
	DetailsVariant string        `env:"BOOKING_DETAILS_VARIANT, default=basic"`
	NotifyDelay    time.Duration `env:"BOOKING_NOTIFY_DELAY, default=1s"`
}

type AuthConfig struct {
	// Без этого флага вход принимает любой пароль при совпадении email.
	VerifyPasswords bool `env:"AUTH_VERIFY_PASSWORDS, default=false"`
}

// Load читает .env (если есть) и переменные окружения.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom читает конфиг из произвольного источника, удобно в тестах.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate делает минимальную проверку значений.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("invalid storage config: sqlite path must not be empty")
		}
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			return fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("invalid redis config: addr must not be empty")
		}
	default:
		return fmt.Errorf("invalid storage driver %q", c.Storage.Driver)
	}
	if c.Storage.KeyPrefix == "" {
		return fmt.Errorf("invalid storage config: key prefix must not be empty")
	}

	cat := c.Catalog
	if cat.OpenHour < 0 || cat.CloseHour > 24 || cat.OpenHour >= cat.CloseHour {
		return fmt.Errorf("invalid catalog hours: %d-%d", cat.OpenHour, cat.CloseHour)
	}
	if cat.SlotMinutes <= 0 {
		return fmt.Errorf("invalid catalog slot minutes: %d", cat.SlotMinutes)
	}
	if cat.BookableDays <= 0 {
		return fmt.Errorf("invalid catalog bookable days: %d", cat.BookableDays)
	}
	if cat.Availability < 0 || cat.Availability > 1 {
		return fmt.Errorf("invalid catalog availability: %v", cat.Availability)
	}
	if _, err := c.Catalog.Location(); err != nil {
		return err
	}

	switch c.Booking.DetailsVariant {
	case VariantBasic, VariantPatient:
	default:
		return fmt.Errorf("invalid booking details variant %q", c.Booking.DetailsVariant)
	}
	if c.Booking.NotifyDelay < 0 {
		return fmt.Errorf("invalid booking notify delay: %v", c.Booking.NotifyDelay)
	}
	return nil
}

// Location возвращает часовой пояс каталога.
func (c CatalogConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func (c CatalogConfig) SlotDuration() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
