package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cesizen/cesizen-backend/internal/platform/ctxutil"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

// slowRequest promotes an otherwise successful request to a warning.
const slowRequest = 2 * time.Second

// quietRoutes succeed often enough that they only log at debug.
var quietRoutes = map[string]bool{
	"/healthcheck":    true,
	MetricsPath:       true,
	"/api/sse/stream": true,
}

// RequestLogger writes one access line per request after the handler chain
// has run, so status and caller identity are known.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		ctx := c.Request.Context()

		fields := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if t, ok := ctxutil.TraceFrom(ctx); ok {
			fields = append(fields, t.LogFields()...)
		}
		if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
			fields = append(fields, "user_id", rd.UserID)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, "errors", errs.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request rejected", fields...)
		case elapsed > slowRequest:
			log.Warn("slow request", fields...)
		case c.Request.Method == http.MethodOptions || quietRoutes[route]:
			log.Debug("request served", fields...)
		default:
			log.Info("request served", fields...)
		}
	}
}
