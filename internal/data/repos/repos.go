package repos

import (
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/data/repos/auth"
	"github.com/cesizen/cesizen-backend/internal/data/repos/comment"
	"github.com/cesizen/cesizen-backend/internal/data/repos/content"
	"github.com/cesizen/cesizen-backend/internal/data/repos/diagnostic"
	"github.com/cesizen/cesizen-backend/internal/data/repos/interaction"
	"github.com/cesizen/cesizen-backend/internal/data/repos/user"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

var ErrTokenConsumed = auth.ErrTokenConsumed

type ContentRepo = content.ContentRepo
type DiagnosticRepo = diagnostic.DiagnosticRepo
type QuestionRepo = diagnostic.QuestionRepo
type CommentRepo = comment.CommentRepo
type InteractionRepo = interaction.InteractionRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}
func NewContentRepo(db *gorm.DB, log *logger.Logger) ContentRepo {
	return content.NewContentRepo(db, log)
}
func NewDiagnosticRepo(db *gorm.DB, log *logger.Logger) DiagnosticRepo {
	return diagnostic.NewDiagnosticRepo(db, log)
}
func NewQuestionRepo(db *gorm.DB, log *logger.Logger) QuestionRepo {
	return diagnostic.NewQuestionRepo(db, log)
}
func NewCommentRepo(db *gorm.DB, log *logger.Logger) CommentRepo {
	return comment.NewCommentRepo(db, log)
}
func NewInteractionRepo(db *gorm.DB, log *logger.Logger) InteractionRepo {
	return interaction.NewInteractionRepo(db, log)
}
