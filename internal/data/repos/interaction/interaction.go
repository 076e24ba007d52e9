package interaction

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/cesizen/cesizen-backend/internal/domain"
	domaininteraction "github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

const pgUniqueViolation = "23505"

// Key is the natural key of a ledger row.
type Key struct {
	UserID     uuid.UUID
	TargetType domaininteraction.TargetType
	TargetID   uuid.UUID
	Kind       domaininteraction.Kind
}

type InteractionRepo interface {
	GetByKey(dbc dbctx.Context, key Key) (*types.Interaction, error)
	// CreateIfAbsent inserts the row unless the natural key already exists.
	// It reports whether this call inserted it.
	CreateIfAbsent(dbc dbctx.Context, key Key) (bool, error)
	DeleteByKey(dbc dbctx.Context, key Key) (int64, error)
	CountByKind(dbc dbctx.Context, tt domaininteraction.TargetType, targetID uuid.UUID) (map[domaininteraction.Kind]int64, error)
	CountByKindForTargets(dbc dbctx.Context, tt domaininteraction.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]map[domaininteraction.Kind]int64, error)
	ListKindsForActor(dbc dbctx.Context, actorID uuid.UUID, tt domaininteraction.TargetType, targetID uuid.UUID) ([]domaininteraction.Kind, error)
	ListKindsForActorTargets(dbc dbctx.Context, actorID uuid.UUID, tt domaininteraction.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID][]domaininteraction.Kind, error)
	ListTargetIDsByActor(dbc dbctx.Context, actorID uuid.UUID, tt domaininteraction.TargetType, kind domaininteraction.Kind) ([]uuid.UUID, error)
	DeleteByTargets(dbc dbctx.Context, tt domaininteraction.TargetType, targetIDs []uuid.UUID) (int64, error)
}

type interactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInteractionRepo(db *gorm.DB, baseLog *logger.Logger) InteractionRepo {
	repoLog := baseLog.With("repo", "InteractionRepo")
	return &interactionRepo{db: db, log: repoLog}
}

func (k Key) where(q *gorm.DB) *gorm.DB {
	return q.Where(
		"user_id = ? AND target_type = ? AND target_id = ? AND kind = ?",
		k.UserID, k.TargetType, k.TargetID, k.Kind,
	)
}

// GetByKey returns nil, nil when no row matches.
func (ir *interactionRepo) GetByKey(dbc dbctx.Context, key Key) (*types.Interaction, error) {
	var results []*types.Interaction
	if err := key.where(dbc.DB(ir.db)).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (ir *interactionRepo) CreateIfAbsent(dbc dbctx.Context, key Key) (bool, error) {
	row := &types.Interaction{
		UserID:     key.UserID,
		TargetType: key.TargetType,
		TargetID:   key.TargetID,
		Kind:       key.Kind,
	}
	res := dbc.DB(ir.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IsUniqueViolation matches both the translated GORM error and a raw
// Postgres 23505.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func (ir *interactionRepo) DeleteByKey(dbc dbctx.Context, key Key) (int64, error) {
	res := key.where(dbc.DB(ir.db)).Delete(&types.Interaction{})
	return res.RowsAffected, res.Error
}

type kindCount struct {
	TargetID uuid.UUID
	Kind     domaininteraction.Kind
	Count    int64
}

func (ir *interactionRepo) CountByKind(dbc dbctx.Context, tt domaininteraction.TargetType, targetID uuid.UUID) (map[domaininteraction.Kind]int64, error) {
	var rows []kindCount
	if err := dbc.DB(ir.db).
		Model(&types.Interaction{}).
		Select("kind, COUNT(*) AS count").
		Where("target_type = ? AND target_id = ?", tt, targetID).
		Group("kind").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domaininteraction.Kind]int64, len(rows))
	for _, r := range rows {
		out[r.Kind] = r.Count
	}
	return out, nil
}

func (ir *interactionRepo) CountByKindForTargets(dbc dbctx.Context, tt domaininteraction.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]map[domaininteraction.Kind]int64, error) {
	out := make(map[uuid.UUID]map[domaininteraction.Kind]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}
	var rows []kindCount
	if err := dbc.DB(ir.db).
		Model(&types.Interaction{}).
		Select("target_id, kind, COUNT(*) AS count").
		Where("target_type = ? AND target_id IN ?", tt, targetIDs).
		Group("target_id, kind").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		m, ok := out[r.TargetID]
		if !ok {
			m = make(map[domaininteraction.Kind]int64)
			out[r.TargetID] = m
		}
		m[r.Kind] = r.Count
	}
	return out, nil
}

func (ir *interactionRepo) ListKindsForActor(dbc dbctx.Context, actorID uuid.UUID, tt domaininteraction.TargetType, targetID uuid.UUID) ([]domaininteraction.Kind, error) {
	var kinds []domaininteraction.Kind
	if err := dbc.DB(ir.db).
		Model(&types.Interaction{}).
		Where("user_id = ? AND target_type = ? AND target_id = ?", actorID, tt, targetID).
		Pluck("kind", &kinds).Error; err != nil {
		return nil, err
	}
	return kinds, nil
}

func (ir *interactionRepo) ListKindsForActorTargets(dbc dbctx.Context, actorID uuid.UUID, tt domaininteraction.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID][]domaininteraction.Kind, error) {
	out := make(map[uuid.UUID][]domaininteraction.Kind, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}
	var rows []*types.Interaction
	if err := dbc.DB(ir.db).
		Select("target_id", "kind").
		Where("user_id = ? AND target_type = ? AND target_id IN ?", actorID, tt, targetIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.TargetID] = append(out[r.TargetID], r.Kind)
	}
	return out, nil
}

func (ir *interactionRepo) ListTargetIDsByActor(dbc dbctx.Context, actorID uuid.UUID, tt domaininteraction.TargetType, kind domaininteraction.Kind) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbc.DB(ir.db).
		Model(&types.Interaction{}).
		Where("user_id = ? AND target_type = ? AND kind = ?", actorID, tt, kind).
		Order("created_at DESC").
		Pluck("target_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (ir *interactionRepo) DeleteByTargets(dbc dbctx.Context, tt domaininteraction.TargetType, targetIDs []uuid.UUID) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}
	res := dbc.DB(ir.db).
		Where("target_type = ? AND target_id IN ?", tt, targetIDs).
		Delete(&types.Interaction{})
	return res.RowsAffected, res.Error
}
