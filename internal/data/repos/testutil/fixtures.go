package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/domain/comment"
	"github.com/cesizen/cesizen-backend/internal/domain/content"
	"github.com/cesizen/cesizen-backend/internal/domain/diagnostic"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      user.RoleUser,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email)
	if err := tx.WithContext(ctx).Model(u).Update("role", user.RoleAdmin).Error; err != nil {
		tb.Fatalf("promote admin: %v", err)
	}
	u.Role = user.RoleAdmin
	return u
}

func SeedContent(tb testing.TB, ctx context.Context, tx *gorm.DB, authorID uuid.UUID, public bool) *types.Content {
	tb.Helper()
	c := &types.Content{
		ID:         uuid.New(),
		AuthorID:   authorID,
		Title:      "breathing basics",
		Body:       "inhale, exhale",
		Kind:       content.KindArticle,
		Visibility: content.VisibilityPublished,
		IsPublic:   public,
		Tags:       datatypes.JSONSlice[string]{"stress"},
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed content: %v", err)
	}
	return c
}

func SeedDiagnostic(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, public bool) *types.Diagnostic {
	tb.Helper()
	d := &types.Diagnostic{
		ID:             uuid.New(),
		UserID:         ownerID,
		Title:          "spring check",
		Mode:           diagnostic.ModeHolmesRahe,
		Score:          173,
		RiskBand:       diagnostic.RiskModerate,
		Recommendation: "moderate",
		Responses:      datatypes.JSON([]byte(`{"death_of_spouse":true,"divorce":true}`)),
		IsPublic:       public,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed diagnostic: %v", err)
	}
	return d
}

func SeedContentComment(tb testing.TB, ctx context.Context, tx *gorm.DB, authorID, contentID uuid.UUID, state comment.ModerationState) *types.Comment {
	tb.Helper()
	cid := contentID
	c := &types.Comment{
		ID:              uuid.New(),
		AuthorID:        authorID,
		ContentID:       &cid,
		Body:            "helpful, thanks",
		ModerationState: state,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed comment: %v", err)
	}
	return c
}

func SeedDiagnosticComment(tb testing.TB, ctx context.Context, tx *gorm.DB, authorID, diagnosticID uuid.UUID, state comment.ModerationState) *types.Comment {
	tb.Helper()
	did := diagnosticID
	c := &types.Comment{
		ID:              uuid.New(),
		AuthorID:        authorID,
		DiagnosticID:    &did,
		Body:            "take care",
		ModerationState: state,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed comment: %v", err)
	}
	return c
}

func SeedInteraction(tb testing.TB, ctx context.Context, tx *gorm.DB, actorID uuid.UUID, tt interaction.TargetType, targetID uuid.UUID, kind interaction.Kind) *types.Interaction {
	tb.Helper()
	in := &types.Interaction{
		ID:         uuid.New(),
		UserID:     actorID,
		TargetType: tt,
		TargetID:   targetID,
		Kind:       kind,
	}
	if err := tx.WithContext(ctx).Create(in).Error; err != nil {
		tb.Fatalf("seed interaction: %v", err)
	}
	return in
}

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, q *types.DiagnosticQuestion) *types.DiagnosticQuestion {
	tb.Helper()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}
