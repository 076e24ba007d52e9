package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cesizen/cesizen-backend/internal/data/repos/testutil"
	"github.com/cesizen/cesizen-backend/internal/domain/comment"
	"github.com/cesizen/cesizen-backend/internal/domain/content"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
)

func ptr[T any](v T) *T { return &v }

func TestContentCreateDefaults(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)

	c, err := h.content.Create(h.ctx, u, ContentInput{Title: " Breathe ", Body: "slowly", Tags: []string{"Sleep", "sleep", " calm "}})
	require.NoError(t, err)
	require.Equal(t, "Breathe", c.Title)
	require.Equal(t, content.KindArticle, c.Kind)
	require.Equal(t, content.VisibilityDraft, c.Visibility)
	require.Equal(t, u.ID, c.AuthorID)

	_, err = h.content.Create(h.ctx, u, ContentInput{Title: "x", Body: "y", Kind: "podcast-ish"})
	require.Equal(t, http.StatusBadRequest, apierr.As(err).Status)

	_, err = h.content.Create(h.ctx, access.Anonymous, ContentInput{Title: "x", Body: "y"})
	require.Equal(t, http.StatusUnauthorized, apierr.As(err).Status)
}

func TestContentGetRecordsViewAndAttachesStats(t *testing.T) {
	h := newHarness(t)
	author := h.user(t)
	reader := h.user(t)
	c := testutil.SeedContent(t, h.ctx, h.db, author.ID, true)

	detail, err := h.content.Get(h.ctx, reader, c.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, detail.Stats.Views)
	require.NotNil(t, detail.UserInteractions)
	require.True(t, detail.UserInteractions.Viewed)

	detail, err = h.content.Get(h.ctx, reader, c.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, detail.Stats.Views)

	anon, err := h.content.Get(h.ctx, access.Anonymous, c.ID)
	require.NoError(t, err)
	require.Nil(t, anon.UserInteractions)
	require.EqualValues(t, 1, anon.Stats.Views)
}

func TestContentDraftHiddenFromOthers(t *testing.T) {
	h := newHarness(t)
	author := h.user(t)
	other := h.user(t)

	draft, err := h.content.Create(h.ctx, author, ContentInput{Title: "wip", Body: "todo"})
	require.NoError(t, err)

	_, err = h.content.Get(h.ctx, other, draft.ID)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	_, err = h.content.Get(h.ctx, author, draft.ID)
	require.NoError(t, err)

	list, err := h.content.List(h.ctx, other, ContentListFilter{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestContentUpdateRequiresOwnerOrAdmin(t *testing.T) {
	h := newHarness(t)
	author := h.user(t)
	other := h.user(t)
	admin := h.admin(t)
	c := testutil.SeedContent(t, h.ctx, h.db, author.ID, true)

	_, err := h.content.Update(h.ctx, other, c.ID, ContentPatch{Title: ptr("hijack")})
	require.Equal(t, http.StatusForbidden, apierr.As(err).Status)

	updated, err := h.content.Update(h.ctx, admin, c.ID, ContentPatch{Title: ptr("reviewed"), Tags: &[]string{"Focus"}})
	require.NoError(t, err)
	require.Equal(t, "reviewed", updated.Title)
	require.Equal(t, []string{"Focus"}, []string(updated.Tags))

	_, err = h.content.Update(h.ctx, author, c.ID, ContentPatch{Body: ptr("   ")})
	require.Equal(t, http.StatusBadRequest, apierr.As(err).Status)
}

func TestContentListFiltersAndStats(t *testing.T) {
	h := newHarness(t)
	author := h.user(t)
	reader := h.user(t)
	a := testutil.SeedContent(t, h.ctx, h.db, author.ID, true)
	testutil.SeedContent(t, h.ctx, h.db, author.ID, true)
	testutil.SeedInteraction(t, h.ctx, h.db, reader.ID, interaction.TargetContent, a.ID, interaction.KindLike)

	list, err := h.content.List(h.ctx, reader, ContentListFilter{Tag: "stress"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, d := range list {
		require.NotNil(t, d.UserInteractions)
		if d.ID == a.ID {
			require.EqualValues(t, 1, d.Stats.Likes)
			require.True(t, d.UserInteractions.Like)
		} else {
			require.Zero(t, d.Stats.Likes)
		}
	}

	list, err = h.content.List(h.ctx, reader, ContentListFilter{Tag: "nope"})
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = h.content.List(h.ctx, reader, ContentListFilter{Kind: "bogus"})
	require.Equal(t, http.StatusBadRequest, apierr.As(err).Status)
}

func TestContentDeleteCascades(t *testing.T) {
	h := newHarness(t)
	author := h.user(t)
	reader := h.user(t)
	c := testutil.SeedContent(t, h.ctx, h.db, author.ID, true)
	cm := testutil.SeedContentComment(t, h.ctx, h.db, reader.ID, c.ID, comment.StateApproved)
	testutil.SeedInteraction(t, h.ctx, h.db, reader.ID, interaction.TargetContent, c.ID, interaction.KindLike)
	testutil.SeedInteraction(t, h.ctx, h.db, reader.ID, interaction.TargetComment, cm.ID, interaction.KindLike)

	err := h.content.Delete(h.ctx, reader, c.ID)
	require.Equal(t, http.StatusForbidden, apierr.As(err).Status)

	require.NoError(t, h.content.Delete(h.ctx, author, c.ID))

	_, err = h.content.Get(h.ctx, author, c.ID)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	dbc := dbctx.Context{Ctx: h.ctx}
	left, err := h.commentRepo.GetByID(dbc, cm.ID)
	require.NoError(t, err)
	require.Nil(t, left)

	for _, target := range []struct {
		tt interaction.TargetType
		id uuid.UUID
	}{{interaction.TargetContent, c.ID}, {interaction.TargetComment, cm.ID}} {
		counts, err := h.interactionRepo.CountByKind(dbc, target.tt, target.id)
		require.NoError(t, err)
		require.Empty(t, counts)
	}

	err = h.content.Delete(h.ctx, author, c.ID)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)
}
