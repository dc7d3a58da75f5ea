package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Leganyst/nurse-connect/internal/catalog"
	"github.com/Leganyst/nurse-connect/internal/config"
	"github.com/Leganyst/nurse-connect/internal/console"
	"github.com/Leganyst/nurse-connect/internal/db"
	"github.com/Leganyst/nurse-connect/internal/logger"
	"github.com/Leganyst/nurse-connect/internal/metrics"
	"github.com/Leganyst/nurse-connect/internal/model"
	"github.com/Leganyst/nurse-connect/internal/repository"
	"github.com/Leganyst/nurse-connect/internal/service"
)

func main() {
	// Грейсфул-шатдаун по сигналу.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Конфиг из .env и окружения.
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Логи в stderr, stdout занят консолью. В production только JSON.
	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty && !cfg.IsProduction(),
		Output: os.Stderr,
	})
	if cfg.IsProduction() && !cfg.Auth.VerifyPasswords {
		log.Warn().Msg("password verification is disabled in production")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("nurse-connect stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// 3. Хранилище: gorm (sqlite/postgres) или redis.
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 4. Метрики.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("metrics server shutdown")
			}
		}()
	}

	// 5. Каталог.
	loc, err := cfg.Catalog.Location()
	if err != nil {
		return err
	}
	slots := catalog.NewRandomSlotSource(catalog.RandomSlotOptions{
		OpenHour:     cfg.Catalog.OpenHour,
		CloseHour:    cfg.Catalog.CloseHour,
		Step:         cfg.Catalog.SlotDuration(),
		Availability: cfg.Catalog.Availability,
		Location:     loc,
	})
	cat := catalog.NewProvider(catalog.DefaultServices(), slots, catalog.Options{
		BookableDays: cfg.Catalog.BookableDays,
		Location:     loc,
		Metrics:      m,
	})

	// 6. Сервисы. Уведомления идут и в лог, и в консоль.
	printer := console.NewPrinter(os.Stdout)
	notifier := service.MultiNotifier{service.NewLogNotifier(log), printer}

	users := repository.NewKVUserRepository(store, cfg.Storage.KeyPrefix, log)
	identity := service.NewIdentityService(users, notifier, log, service.IdentityOptions{
		VerifyPasswords: cfg.Auth.VerifyPasswords,
		Metrics:         m,
	})
	if err := identity.Load(ctx); err != nil {
		return fmt.Errorf("restore identity: %w", err)
	}

	variant, err := service.ParseDetailsVariant(cfg.Booking.DetailsVariant)
	if err != nil {
		return err
	}
	mailer := service.NewSimulatedMailer(cfg.Booking.NotifyDelay, notifier, log)
	session := service.NewBookingSession(cat, identity, mailer, notifier, log, service.SessionOptions{
		Variant: variant,
		Metrics: m,
	})
	defer session.Close()
	admin := service.NewAdminService(identity, notifier, log, m)

	log.Info().
		Str("env", cfg.Env).
		Str("storage", cfg.Storage.Driver).
		Str("details_variant", string(variant)).
		Msg("nurse-connect started")

	// 7. Консоль до quit, EOF или сигнала.
	c := console.New(console.Deps{Catalog: cat, Identity: identity, Session: session, Admin: admin}, printer, log)
	if err := c.Run(ctx, os.Stdin); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	log.Info().Msg("shutting down")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.KVStore, func(), error) {
	if cfg.Storage.Driver == config.DriverRedis {
		client, err := repository.ConnectRedis(ctx, repository.RedisConfig{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("close redis")
			}
		}
		return repository.NewRedisKVStore(client), closeFn, nil
	}

	gormDB, err := db.NewGormDB(cfg.Storage, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("init db: %w", err)
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		return nil, nil, fmt.Errorf("auto migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("sql DB: %w", err)
	}
	closeFn := func() {
		if err := sqlDB.Close(); err != nil {
			log.Warn().Err(err).Msg("close db")
		}
	}
	return repository.NewGormKVStore(gormDB), closeFn, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return srv
}
