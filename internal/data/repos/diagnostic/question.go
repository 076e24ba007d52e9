package diagnostic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, questions []*types.DiagnosticQuestion) ([]*types.DiagnosticQuestion, error)
	GetByID(dbc dbctx.Context, questionID uuid.UUID) (*types.DiagnosticQuestion, error)
	List(dbc dbctx.Context, activeOnly bool) ([]*types.DiagnosticQuestion, error)
	Save(dbc dbctx.Context, q *types.DiagnosticQuestion) error
	DeleteByIDs(dbc dbctx.Context, questionIDs []uuid.UUID) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

func (qr *questionRepo) Create(dbc dbctx.Context, questions []*types.DiagnosticQuestion) ([]*types.DiagnosticQuestion, error) {
	if len(questions) == 0 {
		return []*types.DiagnosticQuestion{}, nil
	}
	if err := dbc.DB(qr.db).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// GetByID returns nil, nil when the row does not exist.
func (qr *questionRepo) GetByID(dbc dbctx.Context, questionID uuid.UUID) (*types.DiagnosticQuestion, error) {
	var results []*types.DiagnosticQuestion
	if err := dbc.DB(qr.db).
		Where("id = ?", questionID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (qr *questionRepo) List(dbc dbctx.Context, activeOnly bool) ([]*types.DiagnosticQuestion, error) {
	q := dbc.DB(qr.db).Order("position ASC").Order("created_at ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var results []*types.DiagnosticQuestion
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (qr *questionRepo) Save(dbc dbctx.Context, q *types.DiagnosticQuestion) error {
	return dbc.DB(qr.db).Save(q).Error
}

func (qr *questionRepo) DeleteByIDs(dbc dbctx.Context, questionIDs []uuid.UUID) error {
	if len(questionIDs) == 0 {
		return nil
	}
	return dbc.DB(qr.db).
		Where("id IN ?", questionIDs).
		Delete(&types.DiagnosticQuestion{}).Error
}
