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

	"github.com/careboard/careboard/internal/config"
	"github.com/careboard/careboard/internal/dashboard"
	"github.com/careboard/careboard/internal/domain/alert"
	"github.com/careboard/careboard/internal/domain/labs"
	"github.com/careboard/careboard/internal/domain/patient"
	"github.com/careboard/careboard/internal/domain/prescription"
	"github.com/careboard/careboard/internal/domain/staff"
	"github.com/careboard/careboard/internal/domain/vitals"
	"github.com/careboard/careboard/internal/platform/ai"
	"github.com/careboard/careboard/internal/platform/auth"
	"github.com/careboard/careboard/internal/platform/authz"
	"github.com/careboard/careboard/internal/platform/db"
	"github.com/careboard/careboard/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "careboard-server",
		Short: "Careboard staff dashboard API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
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
			schema, _ := cmd.Flags().GetString("schema")
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
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
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
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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
	statusCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Restore the schema from a backup instead.")
			return nil
		},
	})

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			dir, _ := cmd.Flags().GetString("dir")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

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

			fmt.Printf("Creating tenant schema: tenant_%s\n", name)
			if err := db.CreateTenantSchema(ctx, pool, name, dir); err != nil {
				return err
			}
			fmt.Println("Tenant created and migrated successfully.")
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant identifier (alphanumeric)")
	createCmd.Flags().String("dir", "./migrations", "Path to migrations directory")

	cmd.AddCommand(createCmd)
	return cmd
}

// devSessions and devRoles stand in for the identity backend in development
// so the dashboard guard stays mounted and testable locally.
type devSessions struct{}

func (devSessions) ResolveSession(r *http.Request) (string, error) { return "dev-user", nil }

type devRoles struct{}

func (devRoles) RoleOf(ctx context.Context, userID string) (authz.Role, error) {
	return authz.RoleAdmin, nil
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

	// Authorization policy and route table. A policy or table that references
	// an unknown role or permission is a deployment error, not something to
	// limp along with.
	policy := authz.NewDefaultPolicy()
	if err := policy.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid authorization policy")
	}
	routeTable := authz.NewDefaultRouteTable()
	if err := routeTable.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid route table")
	}
	for _, w := range routeTable.CoverageWarnings(policy) {
		logger.Warn().Str("warning", w).Msg("route table coverage gap")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Domain wiring
	staffRepo := staff.NewRepoPG(pool)
	staffSvc := staff.NewService(staffRepo)
	roleStore := staff.NewRoleStore(staffRepo)

	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	vitalsSvc := vitals.NewService(vitals.NewRepoPG(pool))
	labsSvc := labs.NewService(labs.NewRepoPG(pool))
	rxSvc := prescription.NewService(prescription.NewRepoPG(pool))
	alertSvc := alert.NewService(alert.NewRepoPG(pool))

	analyzer := ai.NewAnalyzer(ai.NewGeminiClient(cfg.AIBaseURL, cfg.AIAPIKey), nil, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestTimeout(30 * time.Second))

	// Session parsing and the dashboard route guard. The guard fails closed:
	// any session or role lookup failure is a redirect, never a pass.
	mode := cfg.ResolvedAuthMode()
	var guardSessions authz.SessionResolver
	var guardRoles authz.RoleStore
	switch mode {
	case "development":
		e.Use(auth.DevMiddleware())
		guardSessions = devSessions{}
		guardRoles = devRoles{}
	default:
		sessionCfg := auth.SessionConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}
		if mode == "local" {
			sessionCfg.SigningKey = []byte(cfg.SessionKey)
		}
		parser := auth.NewParser(sessionCfg)
		e.Use(auth.Middleware(parser, roleStore))
		guardSessions = parser
		guardRoles = roleStore
	}
	logger.Info().Str("auth_mode", mode).Msg("authentication configured")

	// Tenant middleware pins a schema-scoped connection after the session has
	// resolved the tenant claim.
	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))
	e.Use(middleware.Audit(logger))

	// API group
	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Dashboard group behind the route guard
	dash := e.Group("/dashboard", authz.Guard(authz.GuardConfig{
		Table:     routeTable,
		Sessions:  guardSessions,
		Roles:     guardRoles,
		LoginPath: cfg.LoginPath,
		Logger:    logger,
	}))

	// Routes
	staff.NewHandler(staffSvc).RegisterRoutes(apiV1, policy)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1, policy)
	vitals.NewHandler(vitalsSvc).RegisterRoutes(apiV1, policy)
	labs.NewHandler(labsSvc).RegisterRoutes(apiV1, policy)
	prescription.NewHandler(rxSvc).RegisterRoutes(apiV1, policy)
	alert.NewHandler(alertSvc).RegisterRoutes(apiV1, policy)

	dashHandler := dashboard.NewHandler(policy, patientSvc, vitalsSvc, labsSvc, rxSvc, alertSvc, analyzer)
	dashHandler.RegisterRoutes(dash)
	dashHandler.RegisterAPIRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
