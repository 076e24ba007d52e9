package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/cesizen/cesizen-backend/internal/data/repos/testutil"
	types "github.com/cesizen/cesizen-backend/internal/domain"
	domainuser "github.com/cesizen/cesizen-backend/internal/domain/user"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{
		{
			Email:     "  UserRepo@Example.com ",
			Password:  "pw",
			FirstName: "A",
			LastName:  "B",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Create: expected 1 user, got %d", len(created))
	}
	if created[0].ID == uuid.Nil {
		t.Fatalf("Create: expected generated id")
	}
	if created[0].Role != domainuser.RoleUser {
		t.Fatalf("Create: expected default role user, got %q", created[0].Role)
	}

	gotByIDs, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(gotByIDs) != 1 || gotByIDs[0].ID != created[0].ID {
		t.Fatalf("GetByIDs: unexpected result: %+v", gotByIDs)
	}

	gotByEmails, err := repo.GetByEmails(dbc, []string{"userrepo@example.com"})
	if err != nil || len(gotByEmails) != 1 {
		t.Fatalf("GetByEmails: err=%v len=%d", err, len(gotByEmails))
	}

	exists, err := repo.EmailExists(dbc, "USERREPO@example.com")
	if err != nil || !exists {
		t.Fatalf("EmailExists: err=%v exists=%v", err, exists)
	}
	exists, err = repo.EmailExists(dbc, "missing@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists(missing): err=%v exists=%v", err, exists)
	}

	if err := repo.UpdateName(dbc, created[0].ID, "C", "D"); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}

	ok, err := repo.UpdateRole(dbc, created[0].ID, domainuser.RoleAdmin)
	if err != nil || !ok {
		t.Fatalf("UpdateRole: err=%v ok=%v", err, ok)
	}
	ok, err = repo.UpdateRole(dbc, uuid.New(), domainuser.RoleAdmin)
	if err != nil || ok {
		t.Fatalf("UpdateRole(missing): err=%v ok=%v", err, ok)
	}

	after, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil || len(after) != 1 {
		t.Fatalf("GetByIDs(after): err=%v len=%d", err, len(after))
	}
	if after[0].FirstName != "C" || after[0].LastName != "D" || !after[0].IsAdmin() {
		t.Fatalf("unexpected user after updates: %+v", after[0])
	}
}
