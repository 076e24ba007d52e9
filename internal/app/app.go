package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/data/db"
	apphttp "github.com/cesizen/cesizen-backend/internal/http"
	"github.com/cesizen/cesizen-backend/internal/observability"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/realtime"
	"github.com/cesizen/cesizen-backend/internal/realtime/bus"
)

const collectorInterval = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Bus      bus.Bus
	Metrics  *observability.Metrics
	Server   *apphttp.Server

	database     *db.DatabaseService
	middleware   Middleware
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger reads LOG_MODE, defaulting to development.
func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// OpenDatabase connects with cfg.DB and migrates every model.
func OpenDatabase(log *logger.Logger, cfg Config) (*db.DatabaseService, error) {
	database, err := db.NewDatabaseService(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(database.DB()); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return database, nil
}

func New(log *logger.Logger) (*App, error) {
	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	database, err := OpenDatabase(log, cfg)
	if err != nil {
		return nil, err
	}
	theDB := database.DB()

	sseBus, err := bus.New(cfg.Redis, log)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init realtime bus: %w", err)
	}
	hub := realtime.NewSSEHub(log)
	metrics := observability.Init(log, cfg.MetricsEnabled)

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, sseBus)
	middleware := wireMiddleware(log, cfg, serviceset)
	handlerset := wireHandlers(log, serviceset, hub)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:        log,
		DB:         theDB,
		Cfg:        cfg,
		Repos:      reposet,
		Services:   serviceset,
		SSEHub:     hub,
		Bus:        sseBus,
		Metrics:    metrics,
		Server:     server,
		database:   database,
		middleware: middleware,
	}, nil
}

// Start launches the background loops, all bound to ctx: the bus forwarder
// feeding the SSE hub, the rate limiter sweeper and the metrics collectors.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.otelShutdown = observability.InitOTel(ctx, a.Log, a.Cfg.Otel)

	if err := a.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
		return fmt.Errorf("start realtime forwarder: %w", err)
	}
	if a.middleware.AuthLimiter != nil {
		a.middleware.AuthLimiter.StartSweeper(ctx)
	}
	if a.Metrics != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB, collectorInterval)
		a.Metrics.StartSSECollector(ctx, a.SSEHub.Dropped, collectorInterval)
		if a.Cfg.Redis.Addr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.Redis.Options(), collectorInterval)
		}
	}
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, net.JoinHostPort("", a.Cfg.Port))
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("Realtime bus close failed", "error", err)
		}
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
