package services

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cesizen/cesizen-backend/internal/data/repos/testutil"
	"github.com/cesizen/cesizen-backend/internal/domain/comment"
	"github.com/cesizen/cesizen-backend/internal/domain/diagnostic"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
)

func TestSubmitHolmesRahe(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)

	d, err := h.diagnostic.Submit(h.ctx, u, DiagnosticInput{
		Mode:      "holmes_rahe",
		Responses: map[string]any{"death_of_spouse": true, "divorce": true, "not_an_event": true},
	})
	require.NoError(t, err)
	require.Equal(t, 173, d.Score)
	require.Equal(t, diagnostic.RiskModerate, d.RiskBand)
	require.NotEmpty(t, d.Recommendation)
	require.NotEmpty(t, d.Title)
	require.False(t, d.IsPublic)

	var stored map[string]any
	require.NoError(t, json.Unmarshal(d.Responses, &stored))
	require.Equal(t, true, stored["divorce"])
}

func TestSubmitRejectsUnknownMode(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)

	_, err := h.diagnostic.Submit(h.ctx, u, DiagnosticInput{Mode: "tarot"})
	require.Error(t, err)
	require.Equal(t, apierr.CodeInvalidDiagnosticMode, apierr.As(err).Code)

	_, err = h.diagnostic.Preview(h.ctx, "tarot", nil)
	require.Equal(t, apierr.CodeInvalidDiagnosticMode, apierr.As(err).Code)
}

func TestPreviewEmptyResponsesScoresZero(t *testing.T) {
	h := newHarness(t)
	res, err := h.diagnostic.Preview(h.ctx, "holmes_rahe", map[string]any{})
	require.NoError(t, err)
	require.Zero(t, res.Score)
	require.Equal(t, diagnostic.RiskLow, res.RiskBand)
}

func TestQuestionBankFlow(t *testing.T) {
	h := newHarness(t)
	admin := h.admin(t)
	u := h.user(t)

	_, err := h.diagnostic.CreateQuestion(h.ctx, u, QuestionInput{Text: "sleep?", Type: "scale", Weight: 1})
	require.Equal(t, http.StatusForbidden, apierr.As(err).Status)

	q, err := h.diagnostic.CreateQuestion(h.ctx, admin, QuestionInput{Text: "How rested do you feel?", Type: "scale", Weight: 1})
	require.NoError(t, err)
	require.True(t, q.Active)

	hidden, err := h.diagnostic.CreateQuestion(h.ctx, admin, QuestionInput{
		Text: "Mood", Type: "single_choice", Weight: 2, Position: 1, Active: ptr(false),
		Options: []diagnostic.QuestionOption{{Value: "good", Label: "Good", Score: 10}, {Value: "bad", Label: "Bad", Score: 0}},
	})
	require.NoError(t, err)
	require.False(t, hidden.Active)

	active, err := h.diagnostic.Questions(h.ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := h.diagnostic.ListAllQuestions(h.ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 2)

	d, err := h.diagnostic.Submit(h.ctx, u, DiagnosticInput{
		Mode:      "question_bank",
		Responses: map[string]any{q.ID.String(): 7.0, hidden.ID.String(): "bad"},
	})
	require.NoError(t, err)
	require.Equal(t, 70, d.Score)
	require.Equal(t, diagnostic.RiskGood, d.RiskBand)

	_, err = h.diagnostic.UpdateQuestion(h.ctx, admin, hidden.ID, QuestionInput{
		Text: "Mood", Type: "single_choice", Weight: 2, Active: ptr(true),
		Options: []diagnostic.QuestionOption{{Value: "good", Score: 10}, {Value: "bad", Score: 0}},
	})
	require.NoError(t, err)
	active, err = h.diagnostic.Questions(h.ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)

	require.NoError(t, h.diagnostic.DeleteQuestion(h.ctx, admin, hidden.ID))
	err = h.diagnostic.DeleteQuestion(h.ctx, admin, hidden.ID)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)
}

func TestCreateQuestionValidation(t *testing.T) {
	h := newHarness(t)
	admin := h.admin(t)

	cases := []QuestionInput{
		{Text: "", Type: "scale", Weight: 1},
		{Text: "x", Type: "essay", Weight: 1},
		{Text: "x", Type: "scale", Weight: 0},
		{Text: "x", Type: "single_choice", Weight: 1},
		{Text: "x", Type: "multiple_choice", Weight: 1, Options: []diagnostic.QuestionOption{{Value: "a"}, {Value: "A"}}},
	}
	for _, in := range cases {
		_, err := h.diagnostic.CreateQuestion(h.ctx, admin, in)
		require.Equal(t, http.StatusBadRequest, apierr.As(err).Status, "input %+v", in)
	}
}

func TestDiagnosticVisibility(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t)
	other := h.user(t)
	admin := h.admin(t)
	private := testutil.SeedDiagnostic(t, h.ctx, h.db, owner.ID, false)
	public := testutil.SeedDiagnostic(t, h.ctx, h.db, owner.ID, true)

	_, err := h.diagnostic.Get(h.ctx, other, private.ID)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)
	_, err = h.diagnostic.Get(h.ctx, access.Anonymous, private.ID)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	got, err := h.diagnostic.Get(h.ctx, owner, private.ID)
	require.NoError(t, err)
	require.Equal(t, private.ID, got.ID)
	_, err = h.diagnostic.Get(h.ctx, admin, private.ID)
	require.NoError(t, err)

	pub, err := h.diagnostic.ListPublic(h.ctx, access.Anonymous, 0)
	require.NoError(t, err)
	require.Len(t, pub, 1)
	require.Equal(t, public.ID, pub[0].ID)
	require.Nil(t, pub[0].UserInteractions)

	mine, err := h.diagnostic.ListMine(h.ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)
}

func TestDiagnosticUpdateOwnership(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t)
	other := h.user(t)
	d := testutil.SeedDiagnostic(t, h.ctx, h.db, owner.ID, false)

	_, err := h.diagnostic.Update(h.ctx, other, d.ID, DiagnosticPatch{IsPublic: ptr(true)})
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	updated, err := h.diagnostic.Update(h.ctx, owner, d.ID, DiagnosticPatch{Title: ptr("after exams"), IsPublic: ptr(true)})
	require.NoError(t, err)
	require.Equal(t, "after exams", updated.Title)
	require.True(t, updated.IsPublic)

	got, err := h.diagnostic.Get(h.ctx, other, d.ID)
	require.NoError(t, err)
	require.Equal(t, "after exams", got.Title)

	_, err = h.diagnostic.Update(h.ctx, owner, d.ID, DiagnosticPatch{Title: ptr("  ")})
	require.Equal(t, http.StatusBadRequest, apierr.As(err).Status)
}

func TestDiagnosticDeleteOwnershipGate(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t)
	other := h.user(t)
	admin := h.admin(t)
	d := testutil.SeedDiagnostic(t, h.ctx, h.db, owner.ID, true)

	err := h.diagnostic.Delete(h.ctx, other, d.ID)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)

	_, err = h.diagnostic.Get(h.ctx, owner, d.ID)
	require.NoError(t, err, "a denied delete leaves the diagnostic in place")

	require.NoError(t, h.diagnostic.Delete(h.ctx, admin, d.ID))
	_, err = h.diagnostic.Get(h.ctx, owner, d.ID)
	require.Equal(t, http.StatusNotFound, apierr.As(err).Status)
}

func TestDiagnosticDeleteCascades(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t)
	fan := h.user(t)
	d := testutil.SeedDiagnostic(t, h.ctx, h.db, owner.ID, true)
	cm := testutil.SeedDiagnosticComment(t, h.ctx, h.db, fan.ID, d.ID, comment.StateApproved)

	_, err := h.interaction.Toggle(h.ctx, fan, interaction.TargetDiagnostic, d.ID, interaction.KindLike)
	require.NoError(t, err)
	_, err = h.interaction.Toggle(h.ctx, fan, interaction.TargetDiagnostic, d.ID, interaction.KindFavorite)
	require.NoError(t, err)
	_, err = h.interaction.Toggle(h.ctx, owner, interaction.TargetComment, cm.ID, interaction.KindLike)
	require.NoError(t, err)

	require.NoError(t, h.diagnostic.Delete(h.ctx, owner, d.ID))

	stats, err := h.interaction.StatsFor(h.ctx, interaction.TargetDiagnostic, d.ID)
	require.NoError(t, err)
	require.Equal(t, StatsView{}, NewStatsView(stats))

	commentStats, err := h.interaction.StatsForMany(h.ctx, interaction.TargetComment, []uuid.UUID{cm.ID})
	require.NoError(t, err)
	require.Equal(t, StatsView{}, NewStatsView(commentStats[cm.ID]))

	left, err := h.commentRepo.GetByID(dbctx.Context{Ctx: h.ctx}, cm.ID)
	require.NoError(t, err)
	require.Nil(t, left)
}
