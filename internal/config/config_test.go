package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Driver != DriverSQLite {
		t.Fatalf("driver = %q, want %q", cfg.Storage.Driver, DriverSQLite)
	}
	if cfg.Catalog.OpenHour != 9 || cfg.Catalog.CloseHour != 17 {
		t.Fatalf("hours = %d-%d, want 9-17", cfg.Catalog.OpenHour, cfg.Catalog.CloseHour)
	}
	if cfg.Catalog.SlotDuration() != 30*time.Minute {
		t.Fatalf("slot duration = %v, want 30m", cfg.Catalog.SlotDuration())
	}
	if cfg.Catalog.BookableDays != 14 {
		t.Fatalf("bookable days = %d, want 14", cfg.Catalog.BookableDays)
	}
	if cfg.Booking.DetailsVariant != VariantBasic {
		t.Fatalf("variant = %q, want %q", cfg.Booking.DetailsVariant, VariantBasic)
	}
	if cfg.Booking.NotifyDelay != time.Second {
		t.Fatalf("notify delay = %v, want 1s", cfg.Booking.NotifyDelay)
	}
	if cfg.Auth.VerifyPasswords {
		t.Fatalf("password verification must be off by default")
	}
	if cfg.IsProduction() {
		t.Fatalf("default env %q reported as production", cfg.Env)
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORAGE_DRIVER":          "redis",
		"REDIS_ADDR":              "cache:6380",
		"BOOKING_DETAILS_VARIANT": "patient",
		"CATALOG_TIMEZONE":        "UTC",
		"AUTH_VERIFY_PASSWORDS":   "true",
		"ENV":                     "production",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != DriverRedis || cfg.Redis.Addr != "cache:6380" {
		t.Fatalf("redis config not applied: %+v %+v", cfg.Storage, cfg.Redis)
	}
	if cfg.Booking.DetailsVariant != VariantPatient {
		t.Fatalf("variant = %q, want patient", cfg.Booking.DetailsVariant)
	}
	loc, err := cfg.Catalog.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("location = %v (%v), want UTC", loc, err)
	}
	if !cfg.Auth.VerifyPasswords {
		t.Fatalf("expected password verification enabled")
	}
	if !cfg.IsProduction() {
		t.Fatalf("env %q not reported as production", cfg.Env)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":       {"STORAGE_DRIVER": "mongo"},
		"hours":        {"CATALOG_OPEN_HOUR": "18"},
		"slot":         {"CATALOG_SLOT_MINUTES": "0"},
		"availability": {"CATALOG_AVAILABILITY": "1.5"},
		"variant":      {"BOOKING_DETAILS_VARIANT": "both"},
		"timezone":     {"CATALOG_TIMEZONE": "Mars/Olympus"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected error for %v", env)
			}
		})
	}
}
