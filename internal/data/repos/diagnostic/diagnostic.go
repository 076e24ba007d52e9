package diagnostic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

type DiagnosticRepo interface {
	Create(dbc dbctx.Context, diagnostics []*types.Diagnostic) ([]*types.Diagnostic, error)
	GetByIDs(dbc dbctx.Context, diagnosticIDs []uuid.UUID) ([]*types.Diagnostic, error)
	GetByID(dbc dbctx.Context, diagnosticID uuid.UUID) (*types.Diagnostic, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Diagnostic, error)
	ListPublic(dbc dbctx.Context, limit int) ([]*types.Diagnostic, error)
	UpdateFields(dbc dbctx.Context, diagnosticID uuid.UUID, updates map[string]any) error
	DeleteByIDs(dbc dbctx.Context, diagnosticIDs []uuid.UUID) error
}

type diagnosticRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDiagnosticRepo(db *gorm.DB, baseLog *logger.Logger) DiagnosticRepo {
	repoLog := baseLog.With("repo", "DiagnosticRepo")
	return &diagnosticRepo{db: db, log: repoLog}
}

func (dr *diagnosticRepo) Create(dbc dbctx.Context, diagnostics []*types.Diagnostic) ([]*types.Diagnostic, error) {
	if len(diagnostics) == 0 {
		return []*types.Diagnostic{}, nil
	}
	if err := dbc.DB(dr.db).Create(&diagnostics).Error; err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func (dr *diagnosticRepo) GetByIDs(dbc dbctx.Context, diagnosticIDs []uuid.UUID) ([]*types.Diagnostic, error) {
	var results []*types.Diagnostic
	if len(diagnosticIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(dr.db).
		Where("id IN ?", diagnosticIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID returns nil, nil when the row does not exist.
func (dr *diagnosticRepo) GetByID(dbc dbctx.Context, diagnosticID uuid.UUID) (*types.Diagnostic, error) {
	rows, err := dr.GetByIDs(dbc, []uuid.UUID{diagnosticID})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (dr *diagnosticRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Diagnostic, error) {
	var results []*types.Diagnostic
	if err := dbc.DB(dr.db).
		Where("user_id = ?", ownerID).
		Order("completed_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *diagnosticRepo) ListPublic(dbc dbctx.Context, limit int) ([]*types.Diagnostic, error) {
	q := dbc.DB(dr.db).
		Where("is_public = ?", true).
		Order("completed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*types.Diagnostic
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *diagnosticRepo) UpdateFields(dbc dbctx.Context, diagnosticID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(dr.db).
		Model(&types.Diagnostic{}).
		Where("id = ?", diagnosticID).
		Updates(updates).Error
}

func (dr *diagnosticRepo) DeleteByIDs(dbc dbctx.Context, diagnosticIDs []uuid.UUID) error {
	if len(diagnosticIDs) == 0 {
		return nil
	}
	return dbc.DB(dr.db).
		Where("id IN ?", diagnosticIDs).
		Delete(&types.Diagnostic{}).Error
}
