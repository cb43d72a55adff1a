package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appworkspm/painai/internal"
	"github.com/appworkspm/painai/internal/activitylog"
	activitypg "github.com/appworkspm/painai/internal/activitylog/postgres"
	"github.com/appworkspm/painai/internal/auth"
	authpg "github.com/appworkspm/painai/internal/auth/postgres"
	"github.com/appworkspm/painai/internal/core/cache"
	"github.com/appworkspm/painai/internal/core/events"
	"github.com/appworkspm/painai/internal/holiday"
	holidaypg "github.com/appworkspm/painai/internal/holiday/postgres"
	"github.com/appworkspm/painai/internal/project"
	projectpg "github.com/appworkspm/painai/internal/project/postgres"
	"github.com/appworkspm/painai/internal/rbac"
	rbacpg "github.com/appworkspm/painai/internal/rbac/postgres"
	"github.com/appworkspm/painai/internal/timesheet"
	timesheetpg "github.com/appworkspm/painai/internal/timesheet/postgres"
	"github.com/appworkspm/painai/internal/transport/rest"
	"github.com/appworkspm/painai/internal/user"
	userpg "github.com/appworkspm/painai/internal/user/postgres"
	"github.com/appworkspm/painai/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Redis  *redis.Client
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
		if deps.Redis != nil {
			if err := deps.Redis.Close(); err != nil {
				slog.Error("Redis close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	bus := events.NewBus(deps.Logger)

	// Graph administration needs the fine-grained permission on top of the
	// ADMIN rank gate; the seeder grants it through the administrator role.
	policy := auth.NewPolicy().
		RequirePermission(auth.ActionManageRBAC, "manage_rbac")

	// Auth
	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authRepo := authpg.NewRepository(deps.GormDB)
	authService := auth.NewService(authRepo, tokenGen, bus, cfg.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)

	// Activity trail, subscribed to bus events
	activityRepo := activitypg.NewActivityLogRepository(deps.GormDB)
	activityService := activitylog.NewService(activityRepo, policy)
	activityService.SubscribeTo(bus)
	activityHandler := activitylog.NewHandler(activityService)

	// Timesheets
	timesheetRepo := timesheetpg.NewTimesheetRepository(deps.GormDB)
	timesheetService := timesheet.NewService(timesheetRepo, policy, deps.Logger)
	timesheetHandler := timesheet.NewHandler(timesheetService)

	// Projects
	projectRepo := projectpg.NewProjectRepository(deps.GormDB)
	projectService := project.NewService(projectRepo, policy, activityService)
	projectHandler := project.NewHandler(projectService)

	// RBAC graph
	rbacRepo := rbacpg.NewRBACRepository(deps.GormDB)
	rbacService := rbac.NewService(rbacRepo, policy, activityService)
	rbacHandler := rbac.NewHandler(rbacService)

	// Users
	userRepo := userpg.NewUserRepository(deps.GormDB)
	userService := user.NewService(userRepo, policy, authService, activityService)
	userHandler := user.NewHandler(userService)

	// Holiday calendar with read-through cache
	var holidayCache cache.Cache
	if deps.Redis != nil {
		holidayCache = cache.NewRedisCache(deps.Redis)
	} else {
		holidayCache = cache.NewMemoryCache()
	}
	holidayRepo := holidaypg.NewHolidayRepository(deps.GormDB)
	holidayService := holiday.NewService(holidayRepo, policy, holidayCache, cfg.Redis.HolidayTTL, activityService)
	holidayHandler := holiday.NewHandler(holidayService)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Redis, rest.Handlers{
		Auth:      authHandler,
		User:      userHandler,
		Timesheet: timesheetHandler,
		Project:   projectHandler,
		RBAC:      rbacHandler,
		Holiday:   holidayHandler,
		Activity:  activityHandler,
	}, deps.Logger)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	var redisClient *redis.Client
	if config.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
	}

	return &Dependencies{
		Config: config,
		Logger: logger.L(),
		DB:     db,
		GormDB: gormDB,
		Redis:  redisClient,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection used for health checks and raw
// queries
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm opens the ORM connection the repositories use. TranslateError maps
// driver duplicate-key failures onto gorm.ErrDuplicatedKey.
func initGorm(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	gormDB, err := gorm.Open(gormpostgres.Open(cfg.Source), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying db: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return gormDB, nil
}
