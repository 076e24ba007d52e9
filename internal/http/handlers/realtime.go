package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/http/response"
	"github.com/cesizen/cesizen-backend/internal/observability"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/realtime"
	"github.com/cesizen/cesizen-backend/internal/services"
)

type RealtimeHandler struct {
	log                *logger.Logger
	hub                *realtime.SSEHub
	interactionService services.InteractionService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, interactionService services.InteractionService) *RealtimeHandler {
	return &RealtimeHandler{
		log:                log.With("handler", "RealtimeHandler"),
		hub:                hub,
		interactionService: interactionService,
	}
}

// SSEStream subscribes the caller to every ?channel= given, e.g.
// channel=content:<id>&channel=diagnostic:<id>. Every target must be
// readable by the caller before anything is subscribed.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	p := principal(c)
	if !p.Authenticated() {
		response.RespondAPIError(c, h.log, apierr.Unauthorized(errors.New("authentication required")))
		return
	}
	channels := c.QueryArray("channel")
	if len(channels) == 0 {
		response.RespondAPIError(c, h.log, apierr.Validation("at least one channel is required"))
		return
	}
	for _, ch := range channels {
		prefix, id, ok := realtime.ParseChannel(ch)
		if !ok {
			response.RespondAPIError(c, h.log, apierr.Validation("invalid channel %q", ch))
			return
		}
		tt, ok := interaction.ParseTargetType(prefix)
		if !ok {
			response.RespondAPIError(c, h.log, apierr.Validation("unknown channel type %q", prefix))
			return
		}
		if err := h.interactionService.EnsureVisible(c.Request.Context(), p, tt, id); err != nil {
			response.RespondAPIError(c, h.log, err)
			return
		}
	}

	client := h.hub.NewSSEClient(p.ID)
	for _, ch := range channels {
		prefix, id, _ := realtime.ParseChannel(ch)
		h.hub.Subscribe(client, realtime.Channel(prefix, id))
	}
	m := observability.Current()
	m.SSEClientConnected()
	defer func() {
		h.hub.CloseClient(client)
		m.SSEClientDisconnected()
	}()

	h.log.Debug("SSE stream open", "user_id", p.ID, "client_id", client.ID, "channels", len(channels))
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
