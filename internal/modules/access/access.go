package access

import (
	"github.com/google/uuid"

	"github.com/cesizen/cesizen-backend/internal/domain/user"
	"github.com/cesizen/cesizen-backend/internal/platform/ctxutil"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID   uuid.UUID
	Role user.Role
}

// Anonymous is the zero principal.
var Anonymous = Principal{}

func (p Principal) Authenticated() bool { return p.ID != uuid.Nil }

func (p Principal) IsAdmin() bool { return p.Authenticated() && p.Role == user.RoleAdmin }

// FromRequestData builds a principal from the auth middleware's request data.
func FromRequestData(rd *ctxutil.RequestData) Principal {
	if rd == nil || rd.UserID == uuid.Nil {
		return Anonymous
	}
	role, ok := user.ParseRole(rd.Role)
	if !ok {
		role = user.RoleUser
	}
	return Principal{ID: rd.UserID, Role: role}
}

// Ownable is any resource with a single owning user.
type Ownable interface {
	OwnerID() uuid.UUID
}

// CanMutate lets admins mutate anything and owners their own resources.
func CanMutate(p Principal, r Ownable) bool {
	if !p.Authenticated() || r == nil {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	return r.OwnerID() == p.ID
}

func CanModerate(p Principal) bool { return p.IsAdmin() }
