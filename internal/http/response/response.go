package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/ctxutil"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// AbortWithError is RespondError for middleware that must stop the chain.
func AbortWithError(c *gin.Context, status int, code string, err error) {
	RespondError(c, status, code, err)
	c.Abort()
}

// RespondAPIError maps service errors onto the error envelope. Anything that
// is not an *apierr.Error becomes a 500 whose cause only reaches the log.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.As(err)
	if ae == nil {
		ae = apierr.Internal(errors.New("unknown error"))
	}
	if ae.Status >= http.StatusInternalServerError {
		if log != nil {
			fields := []any{"path", c.FullPath(), "error", err}
			if t, ok := ctxutil.TraceFrom(c.Request.Context()); ok {
				fields = append(fields, t.LogFields()...)
			}
			log.Error("Request failed", fields...)
		}
		RespondError(c, ae.Status, ae.Code, errors.New("internal server error"))
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
