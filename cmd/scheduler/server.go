package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ime/scheduler/internal/config"
	"github.com/ime/scheduler/internal/domain/availability"
	"github.com/ime/scheduler/internal/platform/auth"
	"github.com/ime/scheduler/internal/platform/db"
	"github.com/ime/scheduler/internal/platform/middleware"
	"github.com/ime/scheduler/internal/platform/telemetry"
)

const version = "0.1.0"

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// backend is the set of repositories a Service reads from, plus the
// database handle when there is one.
type backend struct {
	providers availability.ProviderRepository
	exams     availability.ExaminationRepository
	bookings  availability.BookingRepository
	pinger    db.Pinger
	close     func()
}

// openBackend loads a YAML snapshot when snapshotPath is set and connects to
// Postgres otherwise.
func openBackend(ctx context.Context, cfg *config.Config, snapshotPath string) (*backend, error) {
	if snapshotPath != "" {
		store, err := availability.LoadSnapshot(snapshotPath)
		if err != nil {
			return nil, err
		}
		return &backend{providers: store, exams: store, bookings: store, close: func() {}}, nil
	}

	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, err
	}
	store := availability.NewPostgresStore(pool)
	return &backend{providers: store, exams: store, bookings: store, pinger: pool, close: pool.Close}, nil
}

func serviceOptions(cfg *config.Config) availability.Options {
	a := cfg.Availability
	return availability.Options{
		Defaults: availability.Settings{
			WindowDays:          a.WindowDays,
			WorkingHoursPerDay:  a.WorkingHoursPerDay,
			StartOfWorkingUTC:   a.StartOfWorkingUTC,
			SlotDurationMinutes: a.SlotDurationMinutes,
		},
		MaxExaminersPerSlot: a.MaxExaminersPerSlot,
		MatchWorkers:        a.MatchWorkers,
		FuzzySpecialtyMatch: a.FuzzySpecialtyMatch,
	}
}

// newRouter builds the HTTP surface. pinger may be nil when serving from a
// snapshot, in which case /health/db is not registered.
func newRouter(cfg *config.Config, logger zerolog.Logger, svc availability.Resolver, pinger db.Pinger, reg *prometheus.Registry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	httpMetrics := telemetry.NewHTTPMetrics(reg)

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(httpMetrics.Middleware())
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	if cfg.IsDev() && cfg.AuthSigningKey == "" {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if pinger != nil {
		e.GET("/health/db", db.HealthHandler(pinger))
	}
	e.GET("/metrics", telemetry.Handler(reg))

	apiV1 := e.Group("/api/v1")
	availability.NewHandler(svc).RegisterRoutes(apiV1)

	return e
}

func runServer(snapshotPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, snapshotPath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open data source")
		return err
	}
	defer be.close()
	if snapshotPath != "" {
		logger.Info().Str("snapshot", snapshotPath).Msg("serving from snapshot")
	} else {
		logger.Info().Msg("connected to database")
	}

	reg := telemetry.NewRegistry()
	svc := availability.NewService(be.providers, be.exams, be.bookings, serviceOptions(cfg),
		availability.WithLogger(logger.With().Str("component", "availability").Logger()),
		availability.WithMetrics(availability.NewMetrics(reg)),
	)
	e := newRouter(cfg, logger, svc, be.pinger, reg)
	e.Server.ReadHeaderTimeout = 10 * time.Second

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
