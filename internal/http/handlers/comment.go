package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/http/response"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/services"
)

type CommentHandler struct {
	log            *logger.Logger
	commentService services.CommentService
}

func NewCommentHandler(log *logger.Logger, commentService services.CommentService) *CommentHandler {
	return &CommentHandler{log: log.With("handler", "CommentHandler"), commentService: commentService}
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *CommentHandler) list(c *gin.Context, tt interaction.TargetType) {
	targetID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	comments, err := h.commentService.List(c.Request.Context(), principal(c), tt, targetID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"comments": comments})
}

func (h *CommentHandler) create(c *gin.Context, tt interaction.TargetType) {
	targetID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	created, err := h.commentService.Create(c.Request.Context(), principal(c), tt, targetID, req.Body)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"comment": created})
}

func (h *CommentHandler) ListForContent(c *gin.Context) { h.list(c, interaction.TargetContent) }

func (h *CommentHandler) CreateForContent(c *gin.Context) { h.create(c, interaction.TargetContent) }

func (h *CommentHandler) ListForDiagnostic(c *gin.Context) { h.list(c, interaction.TargetDiagnostic) }

func (h *CommentHandler) CreateForDiagnostic(c *gin.Context) {
	h.create(c, interaction.TargetDiagnostic)
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	updated, err := h.commentService.Update(c.Request.Context(), principal(c), id, req.Body)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"comment": updated})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if err := h.commentService.Delete(c.Request.Context(), principal(c), id); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *CommentHandler) Approve(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	approved, err := h.commentService.Approve(c.Request.Context(), principal(c), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"comment": approved})
}
