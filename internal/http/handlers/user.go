package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cesizen/cesizen-backend/internal/http/response"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(log *logger.Logger, userService services.UserService) *UserHandler {
	return &UserHandler{log: log.With("handler", "UserHandler"), userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, uh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, uh.log, err)
		return
	}
	me, err := uh.userService.UpdateName(c.Request.Context(), req.FirstName, req.LastName)
	if err != nil {
		response.RespondAPIError(c, uh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

func (uh *UserHandler) SetRole(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, uh.log, err)
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, uh.log, err)
		return
	}
	user, err := uh.userService.SetRole(c.Request.Context(), principal(c), id, req.Role)
	if err != nil {
		response.RespondAPIError(c, uh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}
