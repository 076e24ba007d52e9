package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cesizen/cesizen-backend/internal/http/response"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/ctxutil"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

func (am *AuthMiddleware) authenticate(c *gin.Context) error {
	tokenString := extractTokenFromAll(c)
	if tokenString == "" {
		return apierr.Unauthorized(errors.New("missing or invalid token"))
	}
	ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
	if err != nil {
		return err
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.Unauthorized(errors.New("missing or invalid token"))
	}
	c.Request = c.Request.WithContext(ctx)
	return nil
}

func (am *AuthMiddleware) abort(c *gin.Context, err error) {
	ae := apierr.As(err)
	if ae.Status >= http.StatusInternalServerError {
		am.log.Error("Auth lookup failed", "error", err)
		response.AbortWithError(c, ae.Status, ae.Code, errors.New("internal server error"))
		return
	}
	response.AbortWithError(c, ae.Status, ae.Code, ae)
}

// RequireAuth rejects requests without a valid, unrevoked access token.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := am.authenticate(c); err != nil {
			am.abort(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when a token is present. A bad token is
// still an error so clients notice expired sessions.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if extractTokenFromAll(c) == "" {
			c.Next()
			return
		}
		if err := am.authenticate(c); err != nil {
			am.abort(c, err)
			return
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := access.FromRequestData(ctxutil.GetRequestData(c.Request.Context()))
		if !p.Authenticated() {
			response.AbortWithError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("authentication required"))
			return
		}
		if !access.CanModerate(p) {
			response.AbortWithError(c, http.StatusForbidden, apierr.CodeForbidden, errors.New("admin role required"))
			return
		}
		c.Next()
	}
}

// EventSource cannot set headers, so the SSE stream passes ?token=.
func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
