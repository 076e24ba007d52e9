package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/cesizen/cesizen-backend/internal/platform/ctxutil"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"

	maxInboundIDLength = 128
)

func inboundID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxInboundIDLength || strings.ContainsAny(raw, "\r\n") {
		return ""
	}
	return raw
}

// RequestIDs tags the request with a request id and a trace id and echoes
// both as response headers. It must run after the otelgin middleware so the
// active span's trace id wins over anything the client sent.
func RequestIDs() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := ctxutil.Trace{RequestID: inboundID(c.GetHeader(HeaderRequestID))}
		if t.RequestID == "" {
			t.RequestID = uuid.NewString()
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			t.ID = sc.TraceID().String()
		} else if t.ID = inboundID(c.GetHeader(HeaderTraceID)); t.ID == "" {
			t.ID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}

		c.Request = c.Request.WithContext(ctxutil.WithTrace(c.Request.Context(), t))
		c.Writer.Header().Set(HeaderTraceID, t.ID)
		c.Writer.Header().Set(HeaderRequestID, t.RequestID)
		c.Next()
	}
}
