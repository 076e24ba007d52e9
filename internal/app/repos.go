package app

import (
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/data/repos"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

type Repos struct {
	User        repos.UserRepo
	UserToken   repos.UserTokenRepo
	Content     repos.ContentRepo
	Diagnostic  repos.DiagnosticRepo
	Question    repos.QuestionRepo
	Comment     repos.CommentRepo
	Interaction repos.InteractionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		UserToken:   repos.NewUserTokenRepo(db, log),
		Content:     repos.NewContentRepo(db, log),
		Diagnostic:  repos.NewDiagnosticRepo(db, log),
		Question:    repos.NewQuestionRepo(db, log),
		Comment:     repos.NewCommentRepo(db, log),
		Interaction: repos.NewInteractionRepo(db, log),
	}
}
