// Daybook is the backend for the daybook app: an hour-by-hour daily
// schedule, reusable day templates, and a small podcast feed reader.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/run"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	_ "golang.org/x/crypto/x509roots/fallback"
	_ "modernc.org/sqlite"

	"github.com/daybook-app/daybook/internal/api"
	"github.com/daybook-app/daybook/internal/feeds"
	"github.com/daybook-app/daybook/internal/migrations"
	"github.com/daybook-app/daybook/internal/sqlite"
	"github.com/daybook-app/daybook/internal/tasks"
	"github.com/daybook-app/daybook/internal/templates"
	"github.com/daybook-app/daybook/logger"
)

type config struct {
	Database string `env:"DATABASE, required"`

	Port         int    `env:"PORT, default=4444"`
	HTTPSCookies bool   `env:"HTTPS_COOKIES, default=false"`
	CorsHeader   string `env:"CORS_HEADER, default=http://localhost:8081"`

	CookieHashKey  string `env:"COOKIE_HASH_KEY"`
	CookieBlockKey string `env:"COOKIE_BLOCK_KEY"`

	// Feed urls seeded on first run, on top of the built-in defaults.
	DefaultFeeds []string `env:"DEFAULT_FEEDS"`

	DebugEndpoints bool `env:"DEBUG_ENDPOINTS, default=false"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	// Determine which logger format to use
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, nil)
	if cfg.LoggerFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	l := slog.New(logger.NewContextHandler(handler))
	slog.SetDefault(l)

	if err := runApp(ctx, cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func runApp(ctx context.Context, cfg config) error {
	// Connect to the sqlite db, retrying while the volume mounts
	var dbx *sqlx.DB
	if err := retry.Fibonacci(ctx, 1*time.Second, func(ctx context.Context) error {
		d, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_journal_mode=WAL&_busy_timeout=5000", cfg.Database))
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := d.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		dbx = d

		return nil
	}); err != nil {
		return fmt.Errorf("error opening database: %s", err)
	}
	defer dbx.Close()

	// Migrate, always
	if err := migrations.Run(dbx); err != nil {
		return fmt.Errorf("error migrating: %s", err)
	}

	store := sqlite.New(dbx)

	defaultFeeds := append(slices.Clone(feeds.DefaultURLs), cfg.DefaultFeeds...)

	taskRepo := tasks.New(store)
	templateRepo := templates.New(store, taskRepo)
	feedRepo := feeds.New(store, defaultFeeds)

	// Warm the repositories from storage. None of these are fatal: a fresh
	// database starts from the seeded defaults.
	if _, err := taskRepo.Load(ctx); err != nil {
		slog.Error("error loading tasks", "error", err)
	}
	if err := templateRepo.Load(ctx); err != nil {
		slog.Error("error loading templates", "error", err)
	}
	if _, err := feedRepo.Bootstrap(ctx); err != nil {
		slog.Error("error bootstrapping feeds", "error", err)
	}

	s := api.NewServer(api.ServerConfig{
		Port:           cfg.Port,
		CookieHashKey:  []byte(cfg.CookieHashKey),
		CookieBlockKey: []byte(cfg.CookieBlockKey),
		HttpsCookies:   cfg.HTTPSCookies,
		CorsHeader:     cfg.CorsHeader,
		DebugEndpoints: cfg.DebugEndpoints,
	}, taskRepo, templateRepo, feedRepo, store)

	var g run.Group
	g.Add(func() error {
		slog.Info("listening", "port", cfg.Port)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("error listening: %s", err)
		}

		return nil
	}, func(error) {
		downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(downCtx); err != nil {
			slog.Error("error shutting down server", "error", err)
		}
	})
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	var sigErr run.SignalError
	if err := g.Run(); err != nil && !errors.As(err, &sigErr) {
		return err
	}

	return nil
}
