package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/delivery/http"
	"github.com/safecircle/backend/internal/domain"
	applog "github.com/safecircle/backend/internal/logger"
	"github.com/safecircle/backend/internal/metrics"
	"github.com/safecircle/backend/internal/repository/postgres"
	"github.com/safecircle/backend/internal/repository/redis"
	"github.com/safecircle/backend/internal/service"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg := loadConfig()

	zlog, err := applog.NewLogger(cfg.LogLevel, cfg.LogFormat, "safecircle-backend")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	if envErr != nil {
		zlog.Info("No .env file found, using system environment")
	}

	metrics.Register()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Database connection
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err == nil {
			err = pool.Ping(ctx)
		}
		if err != nil {
			zlog.Warn("Could not connect to database, running with in-memory store", zap.Error(err))
			if pool != nil {
				pool.Close()
			}
			pool = nil
		} else {
			defer pool.Close()
			zlog.Info("Connected to PostgreSQL")
		}
	}

	// Dependency Injection: Repositories
	var (
		escalationRepo service.EscalationRepository
		alertRepo      service.AlertRepository
		zoneRepo       service.ZoneRepository
		health         domain.HealthChecker
		stream         domain.ChangeStream
		publisher      domain.ChangePublisher
	)
	if pool != nil {
		repo := postgres.NewPostgresRepository(pool)
		escalationRepo, alertRepo, zoneRepo, health = repo, repo, repo, repo
	} else {
		mock := postgres.NewMockRepository()
		escalationRepo, alertRepo, zoneRepo, health = mock, mock, mock, mock
		stream = mock
	}

	// Change stream
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			zlog.Warn("Could not connect to Redis, live alert updates disabled", zap.Error(err))
		} else {
			defer client.Close()
			changes := redis.NewChangeStream(client, "", zlog)
			stream, publisher = changes, changes
			zlog.Info("Connected to Redis change stream", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// Zone registry
	zones := service.NewZoneIndex(zlog)
	if err := zones.Load(ctx, zoneRepo); err != nil {
		zlog.Warn("Failed to load zones from store", zap.Error(err))
	}
	if cfg.ZonesGeoJSON != "" {
		if data, err := os.ReadFile(cfg.ZonesGeoJSON); err != nil {
			zlog.Warn("Cannot read zones file", zap.String("path", cfg.ZonesGeoJSON), zap.Error(err))
		} else if list, err := service.LoadZonesGeoJSON(data); err != nil {
			zlog.Warn("Cannot import zones file", zap.String("path", cfg.ZonesGeoJSON), zap.Error(err))
		} else {
			zones.Replace(list)
			zlog.Info("Imported zones", zap.String("path", cfg.ZonesGeoJSON), zap.Int("zone_count", len(list)))
		}
	}

	// Dependency Injection: Services
	triggerSvc := service.NewTriggerService(service.NewClassifier(zones), zlog)
	escalationSvc := service.NewEscalationService(escalationRepo, zlog)
	alertSvc := service.NewAlertService(alertRepo, publisher, zlog)
	etaSvc := service.NewETAService(cfg.RoutingBaseURL, cfg.RoutingAccessToken, zlog)
	alertSync := service.NewAlertSynchronizer(alertRepo, stream, cfg.AlertFetchLimit, zlog)

	if err := alertSync.Activate(context.Background()); err != nil {
		zlog.Warn("Alert synchronizer failed to start", zap.Error(err))
	}

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "SafeCircle API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization," + http.UserIDHeader,
	}))

	// Routes
	http.SetupRoutes(app, http.Services{
		Trigger:    triggerSvc,
		Escalation: escalationSvc,
		AlertSync:  alertSync,
		Alerts:     alertSvc,
		ETA:        etaSvc,
		Health:     health,
	}, zlog)

	// Graceful shutdown
	go func() {
		zlog.Info("Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	alertSync.Deactivate()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited gracefully")
}

type Config struct {
	DatabaseURL        string
	Redis              redis.Config
	RoutingBaseURL     string
	RoutingAccessToken string
	ZonesGeoJSON       string
	AlertFetchLimit    int
	LogLevel           string
	LogFormat          string
	Port               string
	Env                string
}

func loadConfig() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Redis: redis.Config{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RoutingBaseURL:     getEnv("ROUTING_BASE_URL", service.DefaultRoutingBaseURL),
		RoutingAccessToken: getEnv("ROUTING_ACCESS_TOKEN", ""),
		ZonesGeoJSON:       getEnv("ZONES_GEOJSON", ""),
		AlertFetchLimit:    getEnvInt("ALERT_FETCH_LIMIT", service.DefaultAlertLimit),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("GO_ENV", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
