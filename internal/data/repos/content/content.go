package content

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/cesizen/cesizen-backend/internal/domain"
	domaincontent "github.com/cesizen/cesizen-backend/internal/domain/content"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	Kind domaincontent.Kind
	// Tag matches one stored tag exactly.
	Tag      string
	AuthorID uuid.UUID
	// ListedOnly restricts to public+published rows.
	ListedOnly bool
	// IncludeOwnerID keeps this author's rows even when ListedOnly is set.
	IncludeOwnerID uuid.UUID
	Limit          int
	Offset         int
}

type ContentRepo interface {
	Create(dbc dbctx.Context, contents []*types.Content) ([]*types.Content, error)
	GetByIDs(dbc dbctx.Context, contentIDs []uuid.UUID) ([]*types.Content, error)
	GetByID(dbc dbctx.Context, contentID uuid.UUID) (*types.Content, error)
	List(dbc dbctx.Context, f ListFilter) ([]*types.Content, error)
	Save(dbc dbctx.Context, c *types.Content) error
	DeleteByIDs(dbc dbctx.Context, contentIDs []uuid.UUID) error
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	repoLog := baseLog.With("repo", "ContentRepo")
	return &contentRepo{db: db, log: repoLog}
}

func (cr *contentRepo) Create(dbc dbctx.Context, contents []*types.Content) ([]*types.Content, error) {
	if len(contents) == 0 {
		return []*types.Content{}, nil
	}
	if err := dbc.DB(cr.db).Create(&contents).Error; err != nil {
		return nil, err
	}
	return contents, nil
}

func (cr *contentRepo) GetByIDs(dbc dbctx.Context, contentIDs []uuid.UUID) ([]*types.Content, error) {
	var results []*types.Content
	if len(contentIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(cr.db).
		Where("id IN ?", contentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID returns nil, nil when the row does not exist.
func (cr *contentRepo) GetByID(dbc dbctx.Context, contentID uuid.UUID) (*types.Content, error) {
	rows, err := cr.GetByIDs(dbc, []uuid.UUID{contentID})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (cr *contentRepo) List(dbc dbctx.Context, f ListFilter) ([]*types.Content, error) {
	q := dbc.DB(cr.db).Model(&types.Content{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.AuthorID != uuid.Nil {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.ListedOnly {
		if f.IncludeOwnerID != uuid.Nil {
			q = q.Where("(is_public = ? AND visibility = ?) OR author_id = ?", true, domaincontent.VisibilityPublished, f.IncludeOwnerID)
		} else {
			q = q.Where("is_public = ? AND visibility = ?", true, domaincontent.VisibilityPublished)
		}
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		q = q.Where(datatypes.JSONArrayQuery("tags").Contains(tag))
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var results []*types.Content
	if err := q.Order("created_at DESC").Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *contentRepo) Save(dbc dbctx.Context, c *types.Content) error {
	return dbc.DB(cr.db).Save(c).Error
}

func (cr *contentRepo) DeleteByIDs(dbc dbctx.Context, contentIDs []uuid.UUID) error {
	if len(contentIDs) == 0 {
		return nil
	}
	return dbc.DB(cr.db).
		Where("id IN ?", contentIDs).
		Delete(&types.Content{}).Error
}
