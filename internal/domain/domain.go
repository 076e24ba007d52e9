package domain

import (
	"github.com/cesizen/cesizen-backend/internal/domain/auth"
	"github.com/cesizen/cesizen-backend/internal/domain/comment"
	"github.com/cesizen/cesizen-backend/internal/domain/content"
	"github.com/cesizen/cesizen-backend/internal/domain/diagnostic"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/domain/user"
)

type (
	User      = user.User
	UserToken = auth.UserToken

	Content            = content.Content
	Diagnostic         = diagnostic.Diagnostic
	DiagnosticQuestion = diagnostic.Question
	Comment            = comment.Comment
	Interaction        = interaction.Interaction
)

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&user.User{},
		&auth.UserToken{},
		&content.Content{},
		&diagnostic.Diagnostic{},
		&diagnostic.Question{},
		&comment.Comment{},
		&interaction.Interaction{},
	}
}
