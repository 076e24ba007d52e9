package comment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/cesizen/cesizen-backend/internal/domain"
	domaincomment "github.com/cesizen/cesizen-backend/internal/domain/comment"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

// TargetFilter selects the comments of one content or one diagnostic.
type TargetFilter struct {
	ContentID    uuid.UUID
	DiagnosticID uuid.UUID
	// ViewerID sees their own pending comments alongside approved ones.
	ViewerID uuid.UUID
	// All skips moderation filtering.
	All bool
}

type CommentRepo interface {
	Create(dbc dbctx.Context, comments []*types.Comment) ([]*types.Comment, error)
	GetByIDs(dbc dbctx.Context, commentIDs []uuid.UUID) ([]*types.Comment, error)
	GetByID(dbc dbctx.Context, commentID uuid.UUID) (*types.Comment, error)
	ListByTarget(dbc dbctx.Context, f TargetFilter) ([]*types.Comment, error)
	ListIDsByContentIDs(dbc dbctx.Context, contentIDs []uuid.UUID) ([]uuid.UUID, error)
	ListIDsByDiagnosticIDs(dbc dbctx.Context, diagnosticIDs []uuid.UUID) ([]uuid.UUID, error)
	Save(dbc dbctx.Context, c *types.Comment) error
	DeleteByIDs(dbc dbctx.Context, commentIDs []uuid.UUID) error
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	repoLog := baseLog.With("repo", "CommentRepo")
	return &commentRepo{db: db, log: repoLog}
}

func (cr *commentRepo) Create(dbc dbctx.Context, comments []*types.Comment) ([]*types.Comment, error) {
	if len(comments) == 0 {
		return []*types.Comment{}, nil
	}
	if err := dbc.DB(cr.db).Create(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (cr *commentRepo) GetByIDs(dbc dbctx.Context, commentIDs []uuid.UUID) ([]*types.Comment, error) {
	var results []*types.Comment
	if len(commentIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(cr.db).
		Where("id IN ?", commentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID returns nil, nil when the row does not exist.
func (cr *commentRepo) GetByID(dbc dbctx.Context, commentID uuid.UUID) (*types.Comment, error) {
	rows, err := cr.GetByIDs(dbc, []uuid.UUID{commentID})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (cr *commentRepo) ListByTarget(dbc dbctx.Context, f TargetFilter) ([]*types.Comment, error) {
	q := dbc.DB(cr.db).Model(&types.Comment{})
	switch {
	case f.ContentID != uuid.Nil:
		q = q.Where("content_id = ?", f.ContentID)
	case f.DiagnosticID != uuid.Nil:
		q = q.Where("diagnostic_id = ?", f.DiagnosticID)
	default:
		return []*types.Comment{}, nil
	}
	if !f.All {
		if f.ViewerID != uuid.Nil {
			q = q.Where("moderation_state = ? OR author_id = ?", domaincomment.StateApproved, f.ViewerID)
		} else {
			q = q.Where("moderation_state = ?", domaincomment.StateApproved)
		}
	}
	var results []*types.Comment
	if err := q.Order("created_at ASC").Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *commentRepo) listIDs(dbc dbctx.Context, column string, ids []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(cr.db).
		Model(&types.Comment{}).
		Where(column+" IN ?", ids).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (cr *commentRepo) ListIDsByContentIDs(dbc dbctx.Context, contentIDs []uuid.UUID) ([]uuid.UUID, error) {
	return cr.listIDs(dbc, "content_id", contentIDs)
}

func (cr *commentRepo) ListIDsByDiagnosticIDs(dbc dbctx.Context, diagnosticIDs []uuid.UUID) ([]uuid.UUID, error) {
	return cr.listIDs(dbc, "diagnostic_id", diagnosticIDs)
}

// Save writes the full row so the BeforeSave target check sees every field.
func (cr *commentRepo) Save(dbc dbctx.Context, c *types.Comment) error {
	return dbc.DB(cr.db).Save(c).Error
}

func (cr *commentRepo) DeleteByIDs(dbc dbctx.Context, commentIDs []uuid.UUID) error {
	if len(commentIDs) == 0 {
		return nil
	}
	return dbc.DB(cr.db).
		Where("id IN ?", commentIDs).
		Delete(&types.Comment{}).Error
}
