// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/coursehub/internal/access"
	"github.com/olegiv/coursehub/internal/cache"
	"github.com/olegiv/coursehub/internal/config"
	"github.com/olegiv/coursehub/internal/handler"
	"github.com/olegiv/coursehub/internal/logging"
	"github.com/olegiv/coursehub/internal/mailer"
	"github.com/olegiv/coursehub/internal/middleware"
	"github.com/olegiv/coursehub/internal/scheduler"
	"github.com/olegiv/coursehub/internal/service"
	"github.com/olegiv/coursehub/internal/session"
	"github.com/olegiv/coursehub/internal/store"
	"github.com/olegiv/coursehub/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "CourseHub - course access and credential manager\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COURSEHUB_SESSION_SECRET   Session and CSRF key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COURSEHUB_DB_PATH          SQLite database path (default: ./data/coursehub.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COURSEHUB_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COURSEHUB_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COURSEHUB_REDIS_URL        Redis URL for the course cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COURSEHUB_SWEEP_SCHEDULE   Cron schedule of the expiry sweep (default: @hourly)\n")
	}

	flag.Parse()

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and ERROR records are also written to the event log.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	queries := store.New(db)

	courseCache := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxItems:        cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	defer func() { _ = courseCache.Close() }()

	mail, err := mailer.New(queries)
	if err != nil {
		return fmt.Errorf("loading email templates: %w", err)
	}

	opts := []access.Option{access.WithLogger(logger)}
	if cfg.DoSeed {
		opts = append(opts, access.WithSeeder(func(ctx context.Context, now time.Time) error {
			return store.Seed(ctx, db, now)
		}))
	}
	manager := access.NewManager(queries, mail, opts...)

	sessionManager := session.New(db, cfg.IsDevelopment())
	sess := session.Bind(sessionManager)

	events := service.NewEventService(db)
	content := service.NewContentService(db, courseCache, cfg.CacheTTLDuration())
	progress := service.NewProgressService(db, content)
	chapters := service.NewChapterService(db, content)
	analytics := service.NewAnalyticsService(db, content)

	sched := scheduler.New(manager, events, scheduler.Config{
		SweepSchedule:  cfg.SweepSchedule,
		PruneSchedule:  cfg.PruneSchedule,
		EventRetention: cfg.EventRetention(),
	}, logger)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()
	globalLimiter := middleware.NewGlobalRateLimiter(20, 40)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(globalLimiter.Middleware())
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.SkipCSRF(handler.RouteHealth))
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.TrustedOrigins...)))
	r.Use(middleware.LoadUser(manager, sess))

	handler.Handlers{
		Health:       handler.NewHealthHandler(db, courseCache, manager, info),
		Auth:         handler.NewAuthHandler(manager, sess, events, loginProtection),
		Learning:     handler.NewLearningHandler(sess, content, progress, chapters),
		Users:        handler.NewUsersHandler(manager, sess, events),
		Coach:        handler.NewCoachHandler(sess, manager, progress, chapters, analytics, mail, events),
		Content:      handler.NewContentHandler(sess, content, events),
		Scheduler:    handler.NewSchedulerHandler(sess, sched.Registry(), events),
		LoginLimiter: loginProtection.Middleware(),
		Events:       events,
	}.Register(r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteAPIError(w, http.StatusNotFound, "not_found", "Not found", nil)
	})

	// Requests get 503 from LoadUser until initialization finishes.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		manager.Initialize(ctx)
		slog.Info("access manager ready", "category", "system")
	}()

	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
