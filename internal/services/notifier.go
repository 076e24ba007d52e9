package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/realtime"
)

// RealtimeNotifier pushes committed changes to target channels.
type RealtimeNotifier interface {
	StatsChanged(ctx context.Context, tt interaction.TargetType, targetID uuid.UUID, stats StatsView)
	CommentCreated(ctx context.Context, c *types.Comment)
	CommentApproved(ctx context.Context, c *types.Comment)
	CommentDeleted(ctx context.Context, c *types.Comment)
}

type realtimeNotifier struct {
	emit SSEEmitter
}

func NewRealtimeNotifier(emit SSEEmitter) RealtimeNotifier {
	return &realtimeNotifier{emit: emit}
}

func (n *realtimeNotifier) StatsChanged(ctx context.Context, tt interaction.TargetType, targetID uuid.UUID, stats StatsView) {
	if n == nil || n.emit == nil || targetID == uuid.Nil {
		return
	}
	n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.Channel(string(tt), targetID),
		Event:   realtime.SSEEventInteractionStats,
		Data: map[string]any{
			"target_type": tt,
			"target_id":   targetID,
			"stats":       stats,
		},
	})
}

func (n *realtimeNotifier) commentEvent(ctx context.Context, c *types.Comment, event realtime.SSEEvent) {
	if n == nil || n.emit == nil || c == nil {
		return
	}
	var channel string
	switch {
	case c.ContentID != nil:
		channel = realtime.Channel(string(interaction.TargetContent), *c.ContentID)
	case c.DiagnosticID != nil:
		channel = realtime.Channel(string(interaction.TargetDiagnostic), *c.DiagnosticID)
	default:
		return
	}
	n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: channel,
		Event:   event,
		Data:    map[string]any{"comment": c},
	})
}

func (n *realtimeNotifier) CommentCreated(ctx context.Context, c *types.Comment) {
	n.commentEvent(ctx, c, realtime.SSEEventCommentCreated)
}

func (n *realtimeNotifier) CommentApproved(ctx context.Context, c *types.Comment) {
	n.commentEvent(ctx, c, realtime.SSEEventCommentApproved)
}

func (n *realtimeNotifier) CommentDeleted(ctx context.Context, c *types.Comment) {
	n.commentEvent(ctx, c, realtime.SSEEventCommentDeleted)
}
