package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/data/repos"
	types "github.com/cesizen/cesizen-backend/internal/domain"
	domainuser "github.com/cesizen/cesizen-backend/internal/domain/user"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/ctxutil"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error)
	SetRole(ctx context.Context, p access.Principal, userID uuid.UUID, role string) (*types.User, error)
	PromoteByEmail(ctx context.Context, email string) (*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, userTokenRepo repos.UserTokenRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(errors.New("request data not set in context"))
	}
	users, err := us.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.Unauthorized(errors.New("user no longer exists"))
	}
	return users[0], nil
}

func (us *userService) UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error) {
	me, err := us.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	if firstName == "" || lastName == "" {
		return nil, apierr.Validation("first and last name are required")
	}
	if err := us.userRepo.UpdateName(dbctx.Context{Ctx: ctx}, me.ID, firstName, lastName); err != nil {
		return nil, fmt.Errorf("update name: %w", err)
	}
	me.FirstName, me.LastName = firstName, lastName
	return me, nil
}

// SetRole changes a user's role and revokes their sessions so the next token
// carries the new role.
func (us *userService) SetRole(ctx context.Context, p access.Principal, userID uuid.UUID, role string) (*types.User, error) {
	if !access.CanModerate(p) {
		return nil, apierr.Forbidden(errors.New("admin role required"))
	}
	parsed, ok := domainuser.ParseRole(role)
	if !ok {
		return nil, apierr.Validation("unknown role %q", role)
	}
	var updated *types.User
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := us.userRepo.UpdateRole(dbc, userID, parsed)
		if err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		if !found {
			return apierr.NotFound("user_not_found", errors.New("user not found"))
		}
		if _, err := us.userTokenRepo.RevokeAllForUser(dbc, userID); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		users, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
		if err != nil {
			return fmt.Errorf("reload user: %w", err)
		}
		if len(users) > 0 {
			updated = users[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("User role changed", "user_id", userID, "actor_id", p.ID, "role", parsed)
	return updated, nil
}

func (us *userService) PromoteByEmail(ctx context.Context, email string) (*types.User, error) {
	users, err := us.userRepo.GetByEmails(dbctx.Context{Ctx: ctx}, []string{email})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("no user with that email"))
	}
	system := access.Principal{ID: users[0].ID, Role: domainuser.RoleAdmin}
	return us.SetRole(ctx, system, users[0].ID, string(domainuser.RoleAdmin))
}
