package app

import (
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/realtime/bus"
	"github.com/cesizen/cesizen-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	User        services.UserService
	Interaction services.InteractionService
	Content     services.ContentService
	Diagnostic  services.DiagnosticService
	Comment     services.CommentService
	Notifier    services.RealtimeNotifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, sseBus bus.Bus) Services {
	log.Info("Wiring services...")
	notifier := services.NewRealtimeNotifier(&services.BusEmitter{Bus: sseBus, Log: log.With("component", "BusEmitter")})

	interaction := services.NewInteractionService(db, log, repos.Interaction, repos.Content, repos.Comment, repos.Diagnostic, notifier)
	return Services{
		Auth:        services.NewAuthService(db, log, repos.User, repos.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		User:        services.NewUserService(db, log, repos.User, repos.UserToken),
		Interaction: interaction,
		Content:     services.NewContentService(db, log, repos.Content, repos.Comment, repos.Interaction, interaction),
		Diagnostic:  services.NewDiagnosticService(db, log, repos.Diagnostic, repos.Question, repos.Comment, repos.Interaction, interaction),
		Comment:     services.NewCommentService(db, log, repos.Comment, repos.Content, repos.Diagnostic, repos.Interaction, interaction, notifier),
		Notifier:    notifier,
	}
}
