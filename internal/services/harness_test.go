package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/data/repos"
	"github.com/cesizen/cesizen-backend/internal/data/repos/testutil"
	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
)

type notification struct {
	event    string
	targetID uuid.UUID
	stats    StatsView
	comment  *types.Comment
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) add(ev notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) StatsChanged(ctx context.Context, tt interaction.TargetType, targetID uuid.UUID, stats StatsView) {
	n.add(notification{event: "stats", targetID: targetID, stats: stats})
}

func (n *recordingNotifier) CommentCreated(ctx context.Context, c *types.Comment) {
	n.add(notification{event: "comment_created", comment: c})
}

func (n *recordingNotifier) CommentApproved(ctx context.Context, c *types.Comment) {
	n.add(notification{event: "comment_approved", comment: c})
}

func (n *recordingNotifier) CommentDeleted(ctx context.Context, c *types.Comment) {
	n.add(notification{event: "comment_deleted", comment: c})
}

func (n *recordingNotifier) Events() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.events...)
}

type harness struct {
	ctx      context.Context
	db       *gorm.DB
	notifier *recordingNotifier

	interactionRepo repos.InteractionRepo
	commentRepo     repos.CommentRepo

	auth        AuthService
	users       UserService
	interaction InteractionService
	content     ContentService
	diagnostic  DiagnosticService
	comment     CommentService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(db, log)
	tokenRepo := repos.NewUserTokenRepo(db, log)
	contentRepo := repos.NewContentRepo(db, log)
	diagnosticRepo := repos.NewDiagnosticRepo(db, log)
	questionRepo := repos.NewQuestionRepo(db, log)
	commentRepo := repos.NewCommentRepo(db, log)
	interactionRepo := repos.NewInteractionRepo(db, log)
	notifier := &recordingNotifier{}

	interactions := NewInteractionService(db, log, interactionRepo, contentRepo, commentRepo, diagnosticRepo, notifier)
	return &harness{
		ctx:             context.Background(),
		db:              db,
		notifier:        notifier,
		interactionRepo: interactionRepo,
		commentRepo:     commentRepo,
		auth:            NewAuthService(db, log, userRepo, tokenRepo, "test-secret", 15*time.Minute, 24*time.Hour),
		users:           NewUserService(db, log, userRepo, tokenRepo),
		interaction:     interactions,
		content:         NewContentService(db, log, contentRepo, commentRepo, interactionRepo, interactions),
		diagnostic:      NewDiagnosticService(db, log, diagnosticRepo, questionRepo, commentRepo, interactionRepo, interactions),
		comment:         NewCommentService(db, log, commentRepo, contentRepo, diagnosticRepo, interactionRepo, interactions, notifier),
	}
}

func (h *harness) user(t *testing.T) access.Principal {
	t.Helper()
	u := testutil.SeedUser(t, h.ctx, h.db, uuid.NewString()+"@example.com")
	return access.Principal{ID: u.ID, Role: u.Role}
}

func (h *harness) admin(t *testing.T) access.Principal {
	t.Helper()
	u := testutil.SeedAdmin(t, h.ctx, h.db, uuid.NewString()+"@example.com")
	return access.Principal{ID: u.ID, Role: u.Role}
}
