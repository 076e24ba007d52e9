package realtime

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventInteractionStats SSEEvent = "InteractionStatsUpdated"
	SSEEventCommentCreated   SSEEvent = "CommentCreated"
	SSEEventCommentApproved  SSEEvent = "CommentApproved"
	SSEEventCommentDeleted   SSEEvent = "CommentDeleted"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// Channel names a per-target stream, e.g. "content:<uuid>".
func Channel(targetType string, targetID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", strings.ToLower(strings.TrimSpace(targetType)), targetID)
}

// ParseChannel splits a channel name into its target type and id.
func ParseChannel(channel string) (string, uuid.UUID, bool) {
	prefix, rawID, ok := strings.Cut(strings.TrimSpace(channel), ":")
	if !ok || prefix == "" {
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return "", uuid.Nil, false
	}
	return strings.ToLower(prefix), id, true
}
