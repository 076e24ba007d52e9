package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cesizen/cesizen-backend/internal/http/response"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Password  string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	user, err := ah.authService.RegisterUser(c.Request.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "user": user})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	pair, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	response.RespondOK(c, pair)
}

// Refresh reads the refresh token from the body. Clients that only hold a
// bearer session can send an empty body.
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			response.RespondAPIError(c, ah.log, err)
			return
		}
	}
	pair, err := ah.authService.RefreshUser(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	response.RespondOK(c, pair)
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
