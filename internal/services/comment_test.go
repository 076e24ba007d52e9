package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cesizen/cesizen-backend/internal/data/repos/testutil"
	"github.com/cesizen/cesizen-backend/internal/domain/comment"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
)

func TestCommentModerationLifecycle(t *testing.T) {
	h := newHarness(t)
	author := h.user(t)
	reader := h.user(t)
	admin := h.admin(t)
	c := testutil.SeedContent(t, h.ctx, h.db, author.ID, true)

	cm, err := h.comment.Create(h.ctx, reader, interaction.TargetContent, c.ID, "  very calming  ")
	require.NoError(t, err)
	require.Equal(t, comment.StatePending, cm.ModerationState)
	require.Equal(t, "very calming", cm.Body)
	require.Empty(t, h.notifier.Events(), "pending comments are not broadcast")

	own, err := h.comment.List(h.ctx, reader, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)

	anon, err := h.comment.List(h.ctx, access.Anonymous, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.Empty(t, anon)

	_, err = h.comment.Approve(h.ctx, reader, cm.ID)
	require.Equal(t, http.StatusForbidden, apierr.As(err).Status)

	approved, err := h.comment.Approve(h.ctx, admin, cm.ID)
	require.NoError(t, err)
	require.Equal(t, comment.StateApproved, approved.ModerationState)
	require.NotNil(t, approved.ModeratorID)
	require.Equal(t, admin.ID, *approved.ModeratorID)

	events := h.notifier.Events()
	require.Len(t, events, 1)
	require.Equal(t, "comment_approved", events[0].event)

	anon, err = h.comment.List(h.ctx, access.Anonymous, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.Len(t, anon, 1)
	require.Nil(t, anon[0].UserInteractions)

	edited, err := h.comment.Update(h.ctx, reader, cm.ID, "edited")
	require.NoError(t, err)
	require.Equal(t, comment.StatePending, edited.ModerationState)
	require.Nil(t, edited.ModeratorID)
}

func TestAdminCommentsStartApproved(t *testing.T) {
	h := newHarness(t)
	admin := h.admin(t)
	owner := h.user(t)
	d := testutil.SeedDiagnostic(t, h.ctx, h.db, owner.ID, true)

	cm, err := h.comment.Create(h.ctx, admin, interaction.TargetDiagnostic, d.ID, "hang in there")
	require.NoError(t, err)
	require.Equal(t, comment.StateApproved, cm.ModerationState)
	require.NotNil(t, cm.DiagnosticID)
	require.Nil(t, cm.ContentID)

	events := h.notifier.Events()
	require.Len(t, events, 1)
	require.Equal(t, "comment_created", events[0].event)
}

func TestCommentCreateValidation(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	other := h.user(t)
	c := testutil.SeedContent(t, h.ctx, h.db, u.ID, true)
	private := testutil.SeedDiagnostic(t, h.ctx, h.db, other.ID, false)

	_, err := h.comment.Create(h.ctx, u, interaction.TargetContent, c.ID, "   ")
	require.Equal(t, http.StatusBadRequest, apierr.As(err).Status)

	_, err = h.comment.Create(h.ctx, u, interaction.TargetComment, c.ID, "nested")
	require.Equal(t, http.StatusBadRequest, apierr.As(err).Status)

	_, err = h.comment.Create(h.ctx, u, interaction.TargetContent, uuid.New(), "ghost")
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	_, err = h.comment.Create(h.ctx, u, interaction.TargetDiagnostic, private.ID, "peek")
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	_, err = h.comment.Create(h.ctx, access.Anonymous, interaction.TargetContent, c.ID, "hi")
	require.Equal(t, http.StatusUnauthorized, apierr.As(err).Status)
}

func TestCommentDeleteGateAndCascade(t *testing.T) {
	h := newHarness(t)
	author := h.user(t)
	stranger := h.user(t)
	admin := h.admin(t)
	c := testutil.SeedContent(t, h.ctx, h.db, author.ID, true)
	cm := testutil.SeedContentComment(t, h.ctx, h.db, author.ID, c.ID, comment.StateApproved)

	_, err := h.interaction.Toggle(h.ctx, stranger, interaction.TargetComment, cm.ID, interaction.KindLike)
	require.NoError(t, err)

	err = h.comment.Delete(h.ctx, stranger, cm.ID)
	require.Equal(t, http.StatusForbidden, apierr.As(err).Status)

	_, err = h.comment.Update(h.ctx, stranger, cm.ID, "defaced")
	require.Equal(t, http.StatusForbidden, apierr.As(err).Status)

	require.NoError(t, h.comment.Delete(h.ctx, admin, cm.ID))

	stats, err := h.interaction.StatsFor(h.ctx, interaction.TargetComment, cm.ID)
	require.NoError(t, err)
	require.Zero(t, stats[interaction.KindLike])

	err = h.comment.Delete(h.ctx, admin, cm.ID)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	var deleted int
	for _, ev := range h.notifier.Events() {
		if ev.event == "comment_deleted" {
			deleted++
		}
	}
	require.Equal(t, 1, deleted)
}

func TestCommentListAttachesStats(t *testing.T) {
	h := newHarness(t)
	author := h.user(t)
	admin := h.admin(t)
	c := testutil.SeedContent(t, h.ctx, h.db, author.ID, true)
	approved := testutil.SeedContentComment(t, h.ctx, h.db, author.ID, c.ID, comment.StateApproved)
	testutil.SeedContentComment(t, h.ctx, h.db, author.ID, c.ID, comment.StatePending)
	testutil.SeedInteraction(t, h.ctx, h.db, admin.ID, interaction.TargetComment, approved.ID, interaction.KindLike)

	all, err := h.comment.List(h.ctx, admin, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, d := range all {
		if d.ID == approved.ID {
			require.EqualValues(t, 1, d.Stats.Likes)
			require.True(t, d.UserInteractions.Like)
		}
	}
}
