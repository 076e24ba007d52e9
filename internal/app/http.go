package app

import (
	apphttp "github.com/cesizen/cesizen-backend/internal/http"
	httpH "github.com/cesizen/cesizen-backend/internal/http/handlers"
	httpMW "github.com/cesizen/cesizen-backend/internal/http/middleware"
	"github.com/cesizen/cesizen-backend/internal/observability"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/realtime"
)

type Middleware struct {
	Auth        *httpMW.AuthMiddleware
	AuthLimiter *httpMW.RateLimiter
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	User        *httpH.UserHandler
	Interaction *httpH.InteractionHandler
	Content     *httpH.ContentHandler
	Comment     *httpH.CommentHandler
	Diagnostic  *httpH.DiagnosticHandler
	Realtime    *httpH.RealtimeHandler
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:        httpMW.NewAuthMiddleware(log, services.Auth),
		AuthLimiter: httpMW.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst),
	}
}

func wireHandlers(log *logger.Logger, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(),
		Auth:        httpH.NewAuthHandler(log, services.Auth),
		User:        httpH.NewUserHandler(log, services.User),
		Interaction: httpH.NewInteractionHandler(log, services.Interaction),
		Content:     httpH.NewContentHandler(log, services.Content),
		Comment:     httpH.NewCommentHandler(log, services.Comment),
		Diagnostic:  httpH.NewDiagnosticHandler(log, services.Diagnostic),
		Realtime:    httpH.NewRealtimeHandler(log, hub, services.Interaction),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:         log,
		ServiceName: cfg.Otel.ServiceName,
		Tracing:     cfg.Otel.Enabled,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     metrics,
		AuthLimiter: middleware.AuthLimiter,

		AuthMiddleware: middleware.Auth,

		AuthHandler:        handlers.Auth,
		UserHandler:        handlers.User,
		InteractionHandler: handlers.Interaction,
		ContentHandler:     handlers.Content,
		CommentHandler:     handlers.Comment,
		DiagnosticHandler:  handlers.Diagnostic,
		RealtimeHandler:    handlers.Realtime,
		HealthHandler:      handlers.Health,
	})
}
