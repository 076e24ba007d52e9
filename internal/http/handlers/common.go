package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/ctxutil"
)

func principal(c *gin.Context) access.Principal {
	return access.FromRequestData(ctxutil.GetRequestData(c.Request.Context()))
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apierr.Validation("invalid %s", name)
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.Validation("invalid request body: %v", err)
	}
	return nil
}

func targetTypeParam(c *gin.Context) (interaction.TargetType, error) {
	raw := c.Param("targetType")
	tt, ok := interaction.ParseTargetType(raw)
	if !ok {
		return "", apierr.Validation("unknown target type %q", raw)
	}
	return tt, nil
}
