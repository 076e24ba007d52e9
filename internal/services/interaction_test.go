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

func TestToggleTwiceLeavesNoRecord(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	c := testutil.SeedContent(t, h.ctx, h.db, u.ID, true)

	status, err := h.interaction.Toggle(h.ctx, u, interaction.TargetContent, c.ID, interaction.KindLike)
	require.NoError(t, err)
	require.Equal(t, interaction.StatusAdded, status)

	status, err = h.interaction.Toggle(h.ctx, u, interaction.TargetContent, c.ID, interaction.KindLike)
	require.NoError(t, err)
	require.Equal(t, interaction.StatusRemoved, status)

	stats, err := h.interaction.StatsFor(h.ctx, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.Zero(t, stats[interaction.KindLike])

	flags, err := h.interaction.UserInteractionsFor(h.ctx, u, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.Empty(t, flags)
}

func TestLikeThenDislikeIsMutuallyExclusive(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	c := testutil.SeedContent(t, h.ctx, h.db, u.ID, true)

	_, err := h.interaction.Toggle(h.ctx, u, interaction.TargetContent, c.ID, interaction.KindLike)
	require.NoError(t, err)
	status, err := h.interaction.Toggle(h.ctx, u, interaction.TargetContent, c.ID, interaction.KindDislike)
	require.NoError(t, err)
	require.Equal(t, interaction.StatusAdded, status)

	flags, err := h.interaction.UserInteractionsFor(h.ctx, u, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.Equal(t, map[interaction.Kind]bool{interaction.KindDislike: true}, flags)

	stats, err := h.interaction.StatsFor(h.ctx, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, stats[interaction.KindLike])
	require.EqualValues(t, 1, stats[interaction.KindDislike])
}

func TestFavoriteCoexistsWithLike(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	c := testutil.SeedContent(t, h.ctx, h.db, u.ID, true)

	for _, k := range []interaction.Kind{interaction.KindLike, interaction.KindFavorite, interaction.KindShare} {
		_, err := h.interaction.Toggle(h.ctx, u, interaction.TargetContent, c.ID, k)
		require.NoError(t, err)
	}
	flags, err := h.interaction.UserInteractionsFor(h.ctx, u, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.Equal(t, map[interaction.Kind]bool{
		interaction.KindLike:     true,
		interaction.KindFavorite: true,
		interaction.KindShare:    true,
	}, flags)
}

func TestRecordViewIsIdempotent(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	c := testutil.SeedContent(t, h.ctx, h.db, u.ID, true)

	require.NoError(t, h.interaction.RecordView(h.ctx, u, interaction.TargetContent, c.ID))
	require.NoError(t, h.interaction.RecordView(h.ctx, u, interaction.TargetContent, c.ID))

	stats, err := h.interaction.StatsFor(h.ctx, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats[interaction.KindView])

	statsEvents := 0
	for _, ev := range h.notifier.Events() {
		if ev.event == "stats" {
			statsEvents++
		}
	}
	require.Equal(t, 1, statsEvents, "only the first view publishes")
}

func TestViewCannotBeToggled(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	c := testutil.SeedContent(t, h.ctx, h.db, u.ID, true)

	_, err := h.interaction.Toggle(h.ctx, u, interaction.TargetContent, c.ID, interaction.KindView)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, apierr.As(err).Status)
}

func TestStatsAggregateAcrossUsers(t *testing.T) {
	h := newHarness(t)
	author := h.user(t)
	c := testutil.SeedContent(t, h.ctx, h.db, author.ID, true)

	want := map[interaction.Kind]int{
		interaction.KindLike:    3,
		interaction.KindDislike: 1,
		interaction.KindView:    5,
	}
	var users []access.Principal
	for i := 0; i < 5; i++ {
		users = append(users, h.user(t))
	}
	for i := 0; i < want[interaction.KindLike]; i++ {
		_, err := h.interaction.Toggle(h.ctx, users[i], interaction.TargetContent, c.ID, interaction.KindLike)
		require.NoError(t, err)
	}
	_, err := h.interaction.Toggle(h.ctx, users[4], interaction.TargetContent, c.ID, interaction.KindDislike)
	require.NoError(t, err)
	for _, u := range users {
		require.NoError(t, h.interaction.RecordView(h.ctx, u, interaction.TargetContent, c.ID))
	}

	stats, err := h.interaction.StatsFor(h.ctx, interaction.TargetContent, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatsView{Likes: 3, Dislikes: 1, Favorites: 0, Views: 5}, NewStatsView(stats))
	require.Len(t, stats, len(interaction.Kinds()))
}

func TestToggleRequiresActorAndTarget(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)

	_, err := h.interaction.Toggle(h.ctx, access.Anonymous, interaction.TargetContent, uuid.New(), interaction.KindLike)
	require.Equal(t, http.StatusUnauthorized, apierr.As(err).Status)

	_, err = h.interaction.Toggle(h.ctx, u, interaction.TargetContent, uuid.New(), interaction.KindLike)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)
}

func TestPrivateDiagnosticHiddenFromOthers(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t)
	other := h.user(t)
	d := testutil.SeedDiagnostic(t, h.ctx, h.db, owner.ID, false)

	_, err := h.interaction.Toggle(h.ctx, other, interaction.TargetDiagnostic, d.ID, interaction.KindFavorite)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	status, err := h.interaction.Toggle(h.ctx, owner, interaction.TargetDiagnostic, d.ID, interaction.KindFavorite)
	require.NoError(t, err)
	require.Equal(t, interaction.StatusAdded, status)
}

func TestToggleOnCommentTarget(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	c := testutil.SeedContent(t, h.ctx, h.db, u.ID, true)
	cm := testutil.SeedContentComment(t, h.ctx, h.db, u.ID, c.ID, "approved")

	_, err := h.interaction.Toggle(h.ctx, u, interaction.TargetComment, cm.ID, interaction.KindReport)
	require.NoError(t, err)
	stats, err := h.interaction.StatsForMany(h.ctx, interaction.TargetComment, []uuid.UUID{cm.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, stats[cm.ID][interaction.KindReport])
}

func TestListByActorReturnsFavorites(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	a := testutil.SeedContent(t, h.ctx, h.db, u.ID, true)
	b := testutil.SeedContent(t, h.ctx, h.db, u.ID, true)

	_, err := h.interaction.Toggle(h.ctx, u, interaction.TargetContent, a.ID, interaction.KindFavorite)
	require.NoError(t, err)
	_, err = h.interaction.Toggle(h.ctx, u, interaction.TargetContent, b.ID, interaction.KindLike)
	require.NoError(t, err)

	ids, err := h.interaction.ListByActor(h.ctx, u, interaction.TargetContent, interaction.KindFavorite)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a.ID}, ids)
}

func TestHiddenContentRejectsStrangers(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t)
	stranger := h.user(t)
	admin := h.admin(t)
	draft := testutil.SeedContent(t, h.ctx, h.db, owner.ID, false)

	_, err := h.interaction.Toggle(h.ctx, stranger, interaction.TargetContent, draft.ID, interaction.KindLike)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)
	err = h.interaction.RecordView(h.ctx, stranger, interaction.TargetContent, draft.ID)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)
	_, err = h.interaction.TargetStats(h.ctx, stranger, interaction.TargetContent, draft.ID)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	for _, p := range []access.Principal{owner, admin} {
		_, err = h.interaction.Toggle(h.ctx, p, interaction.TargetContent, draft.ID, interaction.KindLike)
		require.NoError(t, err)
	}
	stats, err := h.interaction.TargetStats(h.ctx, owner, interaction.TargetContent, draft.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats[interaction.KindLike])
}

func TestPendingCommentRejectsStrangers(t *testing.T) {
	h := newHarness(t)
	author := h.user(t)
	stranger := h.user(t)
	admin := h.admin(t)
	c := testutil.SeedContent(t, h.ctx, h.db, author.ID, true)
	cm := testutil.SeedContentComment(t, h.ctx, h.db, author.ID, c.ID, comment.StatePending)

	_, err := h.interaction.Toggle(h.ctx, stranger, interaction.TargetComment, cm.ID, interaction.KindLike)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)
	require.Equal(t, apierr.CodeTargetNotFound, apierr.As(err).Code)

	_, err = h.interaction.Toggle(h.ctx, author, interaction.TargetComment, cm.ID, interaction.KindLike)
	require.NoError(t, err)
	_, err = h.interaction.Toggle(h.ctx, admin, interaction.TargetComment, cm.ID, interaction.KindReport)
	require.NoError(t, err)
}

func TestCommentOnPrivateDiagnosticRejectsStrangers(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t)
	stranger := h.user(t)
	d := testutil.SeedDiagnostic(t, h.ctx, h.db, owner.ID, false)
	cm := testutil.SeedDiagnosticComment(t, h.ctx, h.db, owner.ID, d.ID, comment.StateApproved)

	_, err := h.interaction.Toggle(h.ctx, stranger, interaction.TargetComment, cm.ID, interaction.KindLike)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	_, err = h.interaction.Toggle(h.ctx, owner, interaction.TargetComment, cm.ID, interaction.KindLike)
	require.NoError(t, err)
}

func TestTargetStatsChecksVisibility(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t)
	stranger := h.user(t)
	d := testutil.SeedDiagnostic(t, h.ctx, h.db, owner.ID, false)

	for _, p := range []access.Principal{access.Anonymous, stranger} {
		_, err := h.interaction.TargetStats(h.ctx, p, interaction.TargetDiagnostic, d.ID)
		require.Equal(t, http.StatusNotFound, apierr.As(err).Status)
		require.Equal(t, http.StatusNotFound, apierr.As(h.interaction.EnsureVisible(h.ctx, p, interaction.TargetDiagnostic, d.ID)).Status)
	}

	stats, err := h.interaction.TargetStats(h.ctx, owner, interaction.TargetDiagnostic, d.ID)
	require.NoError(t, err)
	require.Len(t, stats, len(interaction.Kinds()))

	_, err = h.interaction.TargetStats(h.ctx, access.Anonymous, interaction.TargetContent, uuid.New())
	require.Equal(t, apierr.CodeTargetNotFound, apierr.As(err).Code)
}
