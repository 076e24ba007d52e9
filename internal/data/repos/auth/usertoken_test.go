package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cesizen/cesizen-backend/internal/data/repos/testutil"
	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "usertokenrepo@example.com")

	makeToken := func(access, refresh string, ttl time.Duration) *types.UserToken {
		return &types.UserToken{
			ID:           uuid.New(),
			UserID:       u.ID,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    time.Now().UTC().Add(ttl),
		}
	}

	t1 := makeToken("access-1", "refresh-1", time.Hour)
	if err := repo.Create(dbc, t1); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got, err := repo.FindByAccessToken(dbc, "access-1"); err != nil || got == nil || got.ID != t1.ID {
		t.Fatalf("FindByAccessToken: err=%v got=%v", err, got)
	}
	if got, err := repo.FindByRefreshToken(dbc, "refresh-1"); err != nil || got == nil || got.ID != t1.ID {
		t.Fatalf("FindByRefreshToken: err=%v got=%v", err, got)
	}
	if got, err := repo.FindByAccessToken(dbc, "missing"); err != nil || got != nil {
		t.Fatalf("unknown token must return nil, nil: err=%v got=%v", err, got)
	}

	t2 := makeToken("access-2", "refresh-2", time.Hour)
	if err := repo.Rotate(dbc, t1.ID, t2); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if got, _ := repo.FindByRefreshToken(dbc, "refresh-1"); got != nil {
		t.Fatalf("rotated session must be gone")
	}
	reused := makeToken("access-x", "refresh-x", time.Hour)
	if err := repo.Rotate(dbc, t1.ID, reused); !errors.Is(err, ErrTokenConsumed) {
		t.Fatalf("second rotation of the same session: want ErrTokenConsumed, got %v", err)
	}

	expired := makeToken("access-3", "refresh-3", -time.Hour)
	if err := repo.Create(dbc, expired); err != nil {
		t.Fatalf("seed expired: %v", err)
	}
	if !expired.Expired(time.Now().UTC()) {
		t.Fatalf("expected session to report expired")
	}
	n, err := repo.PurgeExpired(dbc, time.Now().UTC())
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpired: err=%v n=%d", err, n)
	}

	t3 := makeToken("access-4", "refresh-4", time.Hour)
	if err := repo.Create(dbc, t3); err != nil {
		t.Fatalf("seed t3: %v", err)
	}
	if rows, err := repo.ListByUser(dbc, u.ID); err != nil || len(rows) != 2 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(rows))
	}
	if n, err := repo.Revoke(dbc, t3.ID); err != nil || n != 1 {
		t.Fatalf("Revoke: err=%v n=%d", err, n)
	}
	if n, err := repo.RevokeAllForUser(dbc, u.ID); err != nil || n != 1 {
		t.Fatalf("RevokeAllForUser: err=%v n=%d", err, n)
	}
	if rows, err := repo.ListByUser(dbc, u.ID); err != nil || len(rows) != 0 {
		t.Fatalf("after RevokeAllForUser: err=%v len=%d", err, len(rows))
	}
}
