package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/cesizen/cesizen-backend/internal/http/handlers"
	httpMW "github.com/cesizen/cesizen-backend/internal/http/middleware"
	"github.com/cesizen/cesizen-backend/internal/observability"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	Tracing     bool
	CORSOrigins []string
	Metrics     *observability.Metrics
	AuthLimiter *httpMW.RateLimiter

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler        *httpH.AuthHandler
	UserHandler        *httpH.UserHandler
	InteractionHandler *httpH.InteractionHandler
	ContentHandler     *httpH.ContentHandler
	CommentHandler     *httpH.CommentHandler
	DiagnosticHandler  *httpH.DiagnosticHandler
	RealtimeHandler    *httpH.RealtimeHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestIDs())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET(httpMW.MetricsPath, gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	am := cfg.AuthMiddleware
	api := r.Group("/api")

	// Auth
	if cfg.AuthHandler != nil {
		limited := api.Group("/")
		if cfg.AuthLimiter != nil {
			limited.Use(cfg.AuthLimiter.Middleware())
		}
		limited.POST("/register", cfg.AuthHandler.Register)
		limited.POST("/login", cfg.AuthHandler.Login)
		api.POST("/refresh", cfg.AuthHandler.Refresh)
		api.POST("/logout", am.RequireAuth(), cfg.AuthHandler.Logout)
	}

	// Users
	if cfg.UserHandler != nil {
		api.GET("/me", am.RequireAuth(), cfg.UserHandler.GetMe)
		api.PATCH("/me", am.RequireAuth(), cfg.UserHandler.UpdateMe)
		api.PATCH("/admin/users/:id/role", am.RequireAuth(), am.RequireAdmin(), cfg.UserHandler.SetRole)
	}

	// Interactions
	if h := cfg.InteractionHandler; h != nil {
		ig := api.Group("/interactions")
		ig.POST("/content", am.RequireAuth(), h.ToggleContent)
		ig.POST("/comment", am.RequireAuth(), h.ToggleComment)
		ig.POST("/diagnostic", am.RequireAuth(), h.ToggleDiagnostic)
		ig.GET("/favorites", am.RequireAuth(), h.Favorites)
		ig.GET("/:targetType/:id/stats", am.OptionalAuth(), h.Stats)
		ig.GET("/:targetType/:id/user", am.RequireAuth(), h.UserInteractions)
	}

	// Contents
	if h := cfg.ContentHandler; h != nil {
		api.GET("/contents", am.OptionalAuth(), h.List)
		api.POST("/contents", am.RequireAuth(), h.Create)
		api.GET("/contents/:id", am.OptionalAuth(), h.Get)
		api.PATCH("/contents/:id", am.RequireAuth(), h.Update)
		api.DELETE("/contents/:id", am.RequireAuth(), h.Delete)
	}

	// Comments
	if h := cfg.CommentHandler; h != nil {
		api.GET("/contents/:id/comments", am.OptionalAuth(), h.ListForContent)
		api.POST("/contents/:id/comments", am.RequireAuth(), h.CreateForContent)
		api.GET("/diagnostics/:id/comments", am.OptionalAuth(), h.ListForDiagnostic)
		api.POST("/diagnostics/:id/comments", am.RequireAuth(), h.CreateForDiagnostic)
		api.PATCH("/comments/:id", am.RequireAuth(), h.Update)
		api.DELETE("/comments/:id", am.RequireAuth(), h.Delete)
		api.POST("/comments/:id/approve", am.RequireAuth(), am.RequireAdmin(), h.Approve)
	}

	// Diagnostics
	if h := cfg.DiagnosticHandler; h != nil {
		api.GET("/diagnostics/events", h.Events)
		api.GET("/diagnostics/questions", h.Questions)
		api.POST("/diagnostics/score", h.Score)
		api.GET("/diagnostics/public", am.OptionalAuth(), h.ListPublic)
		api.GET("/diagnostics", am.RequireAuth(), h.ListMine)
		api.POST("/diagnostics", am.RequireAuth(), h.Submit)
		api.GET("/diagnostics/:id", am.OptionalAuth(), h.Get)
		api.PATCH("/diagnostics/:id", am.RequireAuth(), h.Update)
		api.DELETE("/diagnostics/:id", am.RequireAuth(), h.Delete)

		admin := api.Group("/admin/diagnostic-questions", am.RequireAuth(), am.RequireAdmin())
		admin.GET("", h.ListAllQuestions)
		admin.POST("", h.CreateQuestion)
		admin.PUT("/:id", h.UpdateQuestion)
		admin.DELETE("/:id", h.DeleteQuestion)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		api.GET("/sse/stream", am.RequireAuth(), cfg.RealtimeHandler.SSEStream)
	}

	return r
}
