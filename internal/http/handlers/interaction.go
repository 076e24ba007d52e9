package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/http/response"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/services"
)

type InteractionHandler struct {
	log                *logger.Logger
	interactionService services.InteractionService
}

func NewInteractionHandler(log *logger.Logger, interactionService services.InteractionService) *InteractionHandler {
	return &InteractionHandler{log: log.With("handler", "InteractionHandler"), interactionService: interactionService}
}

type toggleRequest struct {
	ContentID    string `json:"contentId"`
	CommentID    string `json:"commentId"`
	DiagnosticID string `json:"diagnosticId"`
	Type         string `json:"type"`
}

func (r toggleRequest) targetID(tt interaction.TargetType) (uuid.UUID, error) {
	raw := map[interaction.TargetType]string{
		interaction.TargetContent:    r.ContentID,
		interaction.TargetComment:    r.CommentID,
		interaction.TargetDiagnostic: r.DiagnosticID,
	}[tt]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierr.Validation("invalid %sId", tt)
	}
	return id, nil
}

// toggle handles the three POST /interactions/<target> routes. A "view"
// type is recorded once rather than toggled.
func (ih *InteractionHandler) toggle(c *gin.Context, tt interaction.TargetType) {
	var req toggleRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	targetID, err := req.targetID(tt)
	if err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	kind, ok := interaction.ParseKind(req.Type)
	if !ok {
		response.RespondAPIError(c, ih.log, apierr.Validation("unknown interaction type %q", req.Type))
		return
	}
	ctx := c.Request.Context()
	p := principal(c)

	if kind == interaction.KindView {
		if err := ih.interactionService.RecordView(ctx, p, tt, targetID); err != nil {
			response.RespondAPIError(c, ih.log, err)
			return
		}
		response.RespondOK(c, gin.H{"success": true, "message": "view recorded", "status": ih.statusValue(tt, interaction.StatusAdded)})
		return
	}

	status, err := ih.interactionService.Toggle(ctx, p, tt, targetID, kind)
	if err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	code := http.StatusOK
	if status == interaction.StatusAdded {
		code = http.StatusCreated
	}
	c.JSON(code, gin.H{
		"success": true,
		"message": fmt.Sprintf("%s %s", kind, status),
		"status":  ih.statusValue(tt, status),
	})
}

// Diagnostic toggles report a boolean status for older clients.
func (ih *InteractionHandler) statusValue(tt interaction.TargetType, status interaction.Status) any {
	if tt == interaction.TargetDiagnostic {
		return status == interaction.StatusAdded
	}
	return status
}

func (ih *InteractionHandler) ToggleContent(c *gin.Context) { ih.toggle(c, interaction.TargetContent) }

func (ih *InteractionHandler) ToggleComment(c *gin.Context) { ih.toggle(c, interaction.TargetComment) }

func (ih *InteractionHandler) ToggleDiagnostic(c *gin.Context) {
	ih.toggle(c, interaction.TargetDiagnostic)
}

func (ih *InteractionHandler) Stats(c *gin.Context) {
	tt, err := targetTypeParam(c)
	if err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	counts, err := ih.interactionService.TargetStats(c.Request.Context(), principal(c), tt, id)
	if err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "stats": services.NewStatsView(counts)})
}

func (ih *InteractionHandler) UserInteractions(c *gin.Context) {
	tt, err := targetTypeParam(c)
	if err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	p := principal(c)
	if err := ih.interactionService.EnsureVisible(c.Request.Context(), p, tt, id); err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	flags, err := ih.interactionService.UserInteractionsFor(c.Request.Context(), p, tt, id)
	if err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "userInteractions": services.NewUserFlagsView(flags)})
}

func (ih *InteractionHandler) Favorites(c *gin.Context) {
	raw := c.DefaultQuery("targetType", string(interaction.TargetContent))
	tt, ok := interaction.ParseTargetType(raw)
	if !ok {
		response.RespondAPIError(c, ih.log, apierr.Validation("unknown target type %q", raw))
		return
	}
	ids, err := ih.interactionService.ListByActor(c.Request.Context(), principal(c), tt, interaction.KindFavorite)
	if err != nil {
		response.RespondAPIError(c, ih.log, err)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	response.RespondOK(c, gin.H{"success": true, "targetIds": ids})
}
