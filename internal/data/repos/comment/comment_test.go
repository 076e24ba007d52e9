package comment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/cesizen/cesizen-backend/internal/data/repos/testutil"
	domaincomment "github.com/cesizen/cesizen-backend/internal/domain/comment"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
)

func TestCommentRepoListByTarget(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCommentRepo(db, testutil.Logger(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice@example.com")
	bob := testutil.SeedUser(t, ctx, tx, "bob@example.com")
	c := testutil.SeedContent(t, ctx, tx, alice.ID, true)

	approved := testutil.SeedContentComment(t, ctx, tx, alice.ID, c.ID, domaincomment.StateApproved)
	pending := testutil.SeedContentComment(t, ctx, tx, bob.ID, c.ID, domaincomment.StatePending)

	anon, err := repo.ListByTarget(dbc, TargetFilter{ContentID: c.ID})
	if err != nil || len(anon) != 1 || anon[0].ID != approved.ID {
		t.Fatalf("ListByTarget(anon): %v err=%v", anon, err)
	}
	forBob, err := repo.ListByTarget(dbc, TargetFilter{ContentID: c.ID, ViewerID: bob.ID})
	if err != nil || len(forBob) != 2 {
		t.Fatalf("ListByTarget(bob): len=%d err=%v", len(forBob), err)
	}
	all, err := repo.ListByTarget(dbc, TargetFilter{ContentID: c.ID, All: true})
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByTarget(all): len=%d err=%v", len(all), err)
	}

	ids, err := repo.ListIDsByContentIDs(dbc, []uuid.UUID{c.ID})
	if err != nil || len(ids) != 2 {
		t.Fatalf("ListIDsByContentIDs: %v err=%v", ids, err)
	}

	// A full save re-runs the target check.
	bad, err := repo.GetByID(dbc, pending.ID)
	if err != nil || bad == nil {
		t.Fatalf("GetByID: %v err=%v", bad, err)
	}
	did := uuid.New()
	bad.DiagnosticID = &did
	if err := repo.Save(dbc, bad); !errors.Is(err, domaincomment.ErrInvalidTarget) {
		t.Fatalf("Save with two targets: want ErrInvalidTarget got %v", err)
	}

	if err := repo.DeleteByIDs(dbc, ids); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	left, err := repo.ListByTarget(dbc, TargetFilter{ContentID: c.ID, All: true})
	if err != nil || len(left) != 0 {
		t.Fatalf("after delete: len=%d err=%v", len(left), err)
	}
}
