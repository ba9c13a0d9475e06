package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
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

	"github.com/carelink/portal/internal/config"
	"github.com/carelink/portal/internal/domain/account"
	"github.com/carelink/portal/internal/domain/appointment"
	"github.com/carelink/portal/internal/domain/audit"
	"github.com/carelink/portal/internal/domain/dashboard"
	"github.com/carelink/portal/internal/domain/fhirproxy"
	"github.com/carelink/portal/internal/domain/medication"
	"github.com/carelink/portal/internal/domain/messaging"
	"github.com/carelink/portal/internal/domain/records"
	"github.com/carelink/portal/internal/domain/wearables"
	"github.com/carelink/portal/internal/platform/auth"
	"github.com/carelink/portal/internal/platform/cache"
	"github.com/carelink/portal/internal/platform/db"
	"github.com/carelink/portal/internal/platform/middleware"
	"github.com/carelink/portal/internal/platform/push"
	"github.com/carelink/portal/internal/platform/session"
	"github.com/carelink/portal/internal/platform/upstream"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal-server",
		Short: "CareLink patient portal gateway",
		Long:  "API gateway for the CareLink patient portal: sessions, role gating, caching, and fan-out over the clinical backend.",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the session table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrate")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			if err := session.EnsureSchema(ctx, pool); err != nil {
				return fmt.Errorf("ensure session schema: %w", err)
			}
			fmt.Println("session schema up to date")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("portal-server", version)
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)

	signingKey := []byte(cfg.SessionSigningKey)
	if len(signingKey) == 0 {
		// Development only; Validate rejects a missing key in production.
		// Tokens do not survive a restart with a generated key.
		buf := make([]byte, 32)
		if _, err := crypto_rand.Read(buf); err != nil {
			return fmt.Errorf("generate signing key: %w", err)
		}
		signingKey = []byte(hex.EncodeToString(buf))
		logger.Warn().Msg("SESSION_SIGNING_KEY not set, generated an ephemeral key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := upstream.NewClient(cfg.UpstreamURL, cfg.UpstreamTimeoutDuration(), logger)

	var cacheStore cache.Store
	switch cfg.ResolvedCacheMode() {
	case "redis":
		rs, err := cache.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rs.Close()
		cacheStore = rs
		logger.Info().Msg("cache backend: redis")
	default:
		ms := cache.NewMemoryStore()
		ms.StartCleanup(ctx, time.Minute)
		cacheStore = ms
		logger.Info().Msg("cache backend: memory")
	}
	store := cache.New(cacheStore, logger)

	var sessionStore session.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := session.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("ensure session schema: %w", err)
		}
		sessionStore = session.NewPGStore(pool)
		logger.Info().Msg("session store: postgres")
	} else {
		sessionStore = session.NewMemoryStore()
		logger.Warn().Msg("session store: memory, sessions will not survive a restart")
	}

	accountClient := account.NewClient(api)
	sessions := session.NewManager(sessionStore, accountClient, cfg.IdleTimeout(), cfg.SessionMaxAgeDuration(), logger)
	sessions.StartSweep(ctx, time.Minute)
	codec := session.NewTokenCodec(signingKey, "carelink-portal")

	hub := push.NewHub(logger)
	auditClient := audit.NewClient(api, logger)
	appointments := appointment.NewService(appointment.NewClient(api), store, logger)
	medications := medication.NewClient(api)
	recordsClient := records.NewClient(api)
	messages := messaging.NewService(messaging.NewClient(api), hub)
	wearablesClient := wearables.NewClient(api)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	rateCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateCfg.BurstSize = cfg.RateLimitBurst
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	public := e.Group("/api", middleware.RateLimit(rateCfg))
	protected := e.Group("/api", middleware.RateLimit(rateCfg), auth.SessionMiddleware(codec, sessions))

	accountHandler := account.NewHandler(accountClient, sessions, codec, auditClient, cfg.SessionMaxAge)
	accountHandler.RegisterRoutes(public, protected)

	appointment.NewHandler(appointments).RegisterRoutes(protected)
	records.NewHandler(recordsClient).RegisterRoutes(protected)
	medication.NewHandler(medications).RegisterRoutes(protected)
	messaging.NewHandler(messages).RegisterRoutes(protected)
	wearables.NewHandler(wearablesClient).RegisterRoutes(protected)
	audit.NewHandler(auditClient).RegisterRoutes(protected)
	fhirproxy.NewHandler(fhirproxy.NewService(api, store)).RegisterRoutes(protected)
	push.NewHandler(hub, cfg.CORSOrigins).RegisterRoutes(protected)

	dashboard.NewHandler(
		appointments, medications, recordsClient, messages,
		wearablesClient, auditClient, accountClient,
	).RegisterRoutes(protected)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("portal gateway listening")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}
