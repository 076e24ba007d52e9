package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

// ErrTokenConsumed is returned by Rotate when the session row was already
// removed, typically by a concurrent refresh using the same token.
var ErrTokenConsumed = errors.New("session already rotated or revoked")

// UserTokenRepo stores one row per login session. Lookups return (nil, nil)
// when no session matches.
type UserTokenRepo interface {
	Create(dbc dbctx.Context, session *types.UserToken) error
	FindByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error)
	FindByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserToken, error)
	Rotate(dbc dbctx.Context, previous uuid.UUID, next *types.UserToken) error
	Revoke(dbc dbctx.Context, sessionIDs ...uuid.UUID) (int64, error)
	RevokeAllForUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	PurgeExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

func (sr *sessionRepo) Create(dbc dbctx.Context, session *types.UserToken) error {
	if session == nil {
		return errors.New("nil session")
	}
	return dbc.DB(sr.db).Create(session).Error
}

func (sr *sessionRepo) findOne(dbc dbctx.Context, column, value string) (*types.UserToken, error) {
	if value == "" {
		return nil, nil
	}
	var rows []*types.UserToken
	if err := dbc.DB(sr.db).Where(column+" = ?", value).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (sr *sessionRepo) FindByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error) {
	return sr.findOne(dbc, "access_token", accessToken)
}

func (sr *sessionRepo) FindByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error) {
	return sr.findOne(dbc, "refresh_token", refreshToken)
}

func (sr *sessionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserToken, error) {
	var rows []*types.UserToken
	err := dbc.DB(sr.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Rotate swaps a session for its successor. Call it inside a transaction:
// the delete is checked so two refreshes racing on one token cannot both win.
func (sr *sessionRepo) Rotate(dbc dbctx.Context, previous uuid.UUID, next *types.UserToken) error {
	n, err := sr.Revoke(dbc, previous)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenConsumed
	}
	return sr.Create(dbc, next)
}

func (sr *sessionRepo) Revoke(dbc dbctx.Context, sessionIDs ...uuid.UUID) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	res := dbc.DB(sr.db).Where("id IN ?", sessionIDs).Delete(&types.UserToken{})
	return res.RowsAffected, res.Error
}

func (sr *sessionRepo) RevokeAllForUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	res := dbc.DB(sr.db).Where("user_id = ?", userID).Delete(&types.UserToken{})
	if res.Error == nil && res.RowsAffected > 0 {
		sr.log.Debug("Revoked sessions", "user_id", userID, "count", res.RowsAffected)
	}
	return res.RowsAffected, res.Error
}

func (sr *sessionRepo) PurgeExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := dbc.DB(sr.db).Where("expires_at < ?", now).Delete(&types.UserToken{})
	return res.RowsAffected, res.Error
}
