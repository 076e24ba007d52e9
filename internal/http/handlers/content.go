package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cesizen/cesizen-backend/internal/http/response"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/services"
)

type ContentHandler struct {
	log            *logger.Logger
	contentService services.ContentService
}

func NewContentHandler(log *logger.Logger, contentService services.ContentService) *ContentHandler {
	return &ContentHandler{log: log.With("handler", "ContentHandler"), contentService: contentService}
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apierr.Validation("invalid %s", name)
	}
	return n, nil
}

func (ch *ContentHandler) List(c *gin.Context) {
	f := services.ContentListFilter{Kind: c.Query("kind"), Tag: c.Query("tag")}
	if raw := c.Query("author"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondAPIError(c, ch.log, apierr.Validation("invalid author"))
			return
		}
		f.AuthorID = id
	}
	var err error
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	items, err := ch.contentService.List(c.Request.Context(), principal(c), f)
	if err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"contents": items})
}

func (ch *ContentHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	item, err := ch.contentService.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"content": item})
}

func (ch *ContentHandler) Create(c *gin.Context) {
	var in services.ContentInput
	if err := bindJSON(c, &in); err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	created, err := ch.contentService.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"content": created})
}

func (ch *ContentHandler) Update(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	var patch services.ContentPatch
	if err := bindJSON(c, &patch); err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	updated, err := ch.contentService.Update(c.Request.Context(), principal(c), id, patch)
	if err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"content": updated})
}

func (ch *ContentHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	if err := ch.contentService.Delete(c.Request.Context(), principal(c), id); err != nil {
		response.RespondAPIError(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
