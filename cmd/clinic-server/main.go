package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rafaelminatto1/dudufisio-api/internal/config"
	"github.com/rafaelminatto1/dudufisio-api/internal/domain/roster"
	"github.com/rafaelminatto1/dudufisio-api/internal/domain/scheduling"
	"github.com/rafaelminatto1/dudufisio-api/internal/platform/audit"
	"github.com/rafaelminatto1/dudufisio-api/internal/platform/auth"
	"github.com/rafaelminatto1/dudufisio-api/internal/platform/db"
	"github.com/rafaelminatto1/dudufisio-api/internal/platform/middleware"
	"github.com/rafaelminatto1/dudufisio-api/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic scheduling API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduling API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	storeTimeout := time.Duration(cfg.StoreTimeoutSecs) * time.Second

	// Audit trail. Development logs events instead of persisting them.
	var sink audit.Sink = audit.NewPGSink(pool)
	if cfg.IsDev() {
		sink = audit.NewLogSink(logger)
	}
	auditor := audit.NewRecorder(sink, logger, storeTimeout)

	// Notifications. Log-backed senders until a real gateway is configured;
	// delivery stays best-effort either way.
	notifier := notification.NewDispatcher(
		notification.NewManager(
			notification.NewLogEmailSender(logger),
			notification.NewLogSMSSender(logger),
			notification.NewTemplateEngine(),
		),
		logger,
		storeTimeout,
	)

	// Serializable transactions back the slot-booking invariant. A lost
	// race against a concurrent writer gets one retry against fresh state.
	txRunner := func(ctx context.Context, fn func(ctx context.Context) error) error {
		err := db.WithSerializableTx(ctx, pool, fn)
		if db.IsSerializationFailure(err) {
			return db.WithSerializableTx(ctx, pool, fn)
		}
		return err
	}

	rosterSvc := roster.NewService(roster.NewRepoPG(pool))

	schedSvc := scheduling.NewService(scheduling.ServiceConfig{
		Appointments:  scheduling.NewAppointmentRepoPG(pool),
		Waitlist:      scheduling.NewWaitingListRepoPG(pool),
		Roster:        rosterSvc,
		Tx:            txRunner,
		Audit:         auditor,
		Notifier:      notifier,
		SearchWorkers: cfg.SearchWorkers,
		FallbackDays:  cfg.FallbackDays,
	})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.RequestTimeout(30 * time.Second))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(cfg.DefaultOrg))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	// API group
	api := e.Group("/api/v1")
	api.Use(auth.RequireOrg())

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	roster.NewHandler(rosterSvc).RegisterRoutes(api)
	scheduling.NewHandler(schedSvc).RegisterRoutes(api)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
