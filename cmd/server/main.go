package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"eventbook/internal/adapters/broker"
	emailPkg "eventbook/internal/adapters/email"
	web "eventbook/internal/adapters/http"
	"eventbook/internal/adapters/http/middleware"
	"eventbook/internal/adapters/http/perf"
	"eventbook/internal/adapters/storage"
	accountStore "eventbook/internal/adapters/storage/account"
	bookingStore "eventbook/internal/adapters/storage/booking"
	eventStore "eventbook/internal/adapters/storage/event"
	outboxStore "eventbook/internal/adapters/storage/outbox"
	profileStore "eventbook/internal/adapters/storage/profile"
	"eventbook/internal/application/orchestrators"
	"eventbook/internal/config"
	"eventbook/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "eventbook:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := storage.MigrateDB(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery)

	acctStore := accountStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore: acctStore,
		ProfileStore: profileStore.NewSQLiteStore(timedDB),
		EventStore:   eventStore.NewSQLiteStore(timedDB),
		BookingStore: bookingStore.NewSQLiteStore(timedDB),
		OutboxStore:  outboxStore.NewSQLiteStore(timedDB),
	}

	if err := seedAdmin(ctx, cfg, acctStore); err != nil {
		return err
	}

	csrfKey := cfg.CSRFKey
	if csrfKey == nil {
		csrfKey = securecookie.GenerateRandomKey(32)
		zap.L().Warn("csrf_key_generated", zap.String("hint", "set EVENTBOOK_CSRF_KEY so forms survive a restart"))
	}
	flashKey, err := deriveKey(csrfKey, "eventbook flash cookie")
	if err != nil {
		return err
	}

	opts := web.Options{
		CSRFKey:     csrfKey,
		FlashKey:    flashKey,
		Secure:      cfg.IsProduction(),
		SessionTTL:  cfg.SessionTTL,
		Collector:   collector,
		SlowRequest: cfg.SlowRequest,
	}

	var rdb redis.UniversalClient
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis unreachable at %s: %w", cfg.RedisAddr, err)
		}
		opts.Sessions = middleware.NewRedisSessionStore(rdb, cfg.SessionTTL)
		if cfg.RateLimit > 0 {
			opts.Limiter = middleware.NewRedisRateLimiter(rdb, cfg.RateLimit, time.Minute)
		}
		zap.L().Info("redis_configured", zap.String("addr", cfg.RedisAddr))
	} else if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		defer limiter.Close()
		opts.Limiter = limiter
	}

	opts.Notifiers = append(opts.Notifiers, emailNotifier(cfg))
	if cfg.RabbitMQURL != "" {
		publisher := broker.NewPublisher(cfg.RabbitMQURL)
		defer publisher.Close()
		opts.Notifiers = append(opts.Notifiers, publisher)
		zap.L().Info("broker_configured", zap.String("queue", broker.BookingConfirmedQueue))
	}

	// Failed notifications are retried in the background until shutdown.
	opts.Outbox = orchestrators.NewOutboxProcessor(stores.OutboxStore, opts.Notifiers)
	if cfg.OutboxInterval > 0 {
		go opts.Outbox.Run(ctx, cfg.OutboxInterval)
	}

	opts.Health = func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewMux(stores, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server_starting",
			zap.String("version", version),
			zap.String("addr", cfg.Addr),
			zap.String("env", cfg.Env),
			zap.Int("schema", storage.LatestSchemaVersion()),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		zap.L().Info("server_stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// seedAdmin creates the staff account on an empty database.
func seedAdmin(ctx context.Context, cfg config.Config, store *accountStore.SQLiteStore) error {
	if cfg.AdminPassword == "" {
		zap.L().Info("admin_seed_skipped", zap.String("reason", "EVENTBOOK_ADMIN_PASSWORD not set"))
		return nil
	}
	created, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}, orchestrators.SeedAdminDeps{AccountStore: store})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		zap.L().Info("admin_seeded", zap.String("username", cfg.AdminUsername))
	}
	return nil
}

// emailNotifier sends booking confirmations through Resend, or logs them when no key is configured.
func emailNotifier(cfg config.Config) orchestrators.BookingNotifier {
	if cfg.ResendAPIKey != "" {
		zap.L().Info("email_configured", zap.String("provider", "resend"))
		return emailPkg.NewBookingMailer(emailPkg.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom), cfg.EmailFrom)
	}
	if cfg.IsProduction() {
		zap.L().Warn("email_disabled", zap.String("hint", "RESEND_API_KEY is not set"))
	}
	return emailPkg.NewBookingMailer(emailPkg.NewNoopSender(), cfg.EmailFrom)
}

// deriveKey expands secret into an independent 32-byte key for purpose.
func deriveKey(secret []byte, purpose string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}
