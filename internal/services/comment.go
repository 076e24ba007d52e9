package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/data/repos"
	commentrepo "github.com/cesizen/cesizen-backend/internal/data/repos/comment"
	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/domain/comment"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
	"github.com/cesizen/cesizen-backend/internal/observability"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

const (
	codeCommentNotFound = "comment_not_found"
	maxCommentLength    = 4000
)

type CommentDetail struct {
	*types.Comment
	Stats            StatsView      `json:"stats"`
	UserInteractions *UserFlagsView `json:"user_interactions,omitempty"`
}

type CommentService interface {
	Create(ctx context.Context, p access.Principal, tt interaction.TargetType, targetID uuid.UUID, body string) (*types.Comment, error)
	List(ctx context.Context, p access.Principal, tt interaction.TargetType, targetID uuid.UUID) ([]*CommentDetail, error)
	Update(ctx context.Context, p access.Principal, id uuid.UUID, body string) (*types.Comment, error)
	Delete(ctx context.Context, p access.Principal, id uuid.UUID) error
	Approve(ctx context.Context, p access.Principal, id uuid.UUID) (*types.Comment, error)
}

type commentService struct {
	db                 *gorm.DB
	log                *logger.Logger
	commentRepo        repos.CommentRepo
	contentRepo        repos.ContentRepo
	diagnosticRepo     repos.DiagnosticRepo
	interactionRepo    repos.InteractionRepo
	interactionService InteractionService
	notifier           RealtimeNotifier
}

func NewCommentService(
	db *gorm.DB,
	log *logger.Logger,
	commentRepo repos.CommentRepo,
	contentRepo repos.ContentRepo,
	diagnosticRepo repos.DiagnosticRepo,
	interactionRepo repos.InteractionRepo,
	interactionService InteractionService,
	notifier RealtimeNotifier,
) CommentService {
	serviceLog := log.With("service", "CommentService")
	return &commentService{
		db:                 db,
		log:                serviceLog,
		commentRepo:        commentRepo,
		contentRepo:        contentRepo,
		diagnosticRepo:     diagnosticRepo,
		interactionRepo:    interactionRepo,
		interactionService: interactionService,
		notifier:           notifier,
	}
}

func commentNotFound(id uuid.UUID) error {
	return apierr.NotFound(codeCommentNotFound, fmt.Errorf("comment %s not found", id))
}

func cleanBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", apierr.Validation("%s", comment.ErrEmptyBody)
	}
	if len(body) > maxCommentLength {
		return "", apierr.Validation("comment exceeds %d characters", maxCommentLength)
	}
	return body, nil
}

// checkParent fails with not found unless the parent exists and p may read it.
func (cs *commentService) checkParent(dbc dbctx.Context, p access.Principal, tt interaction.TargetType, targetID uuid.UUID) error {
	notFound := apierr.NotFound(apierr.CodeTargetNotFound, fmt.Errorf("%s %s not found", tt, targetID))
	switch tt {
	case interaction.TargetContent:
		c, err := cs.contentRepo.GetByID(dbc, targetID)
		if err != nil {
			return fmt.Errorf("resolve content: %w", err)
		}
		if c == nil || !canReadContent(c, p) {
			return notFound
		}
	case interaction.TargetDiagnostic:
		d, err := cs.diagnosticRepo.GetByID(dbc, targetID)
		if err != nil {
			return fmt.Errorf("resolve diagnostic: %w", err)
		}
		if !diagnosticVisible(d, p) {
			return notFound
		}
	default:
		return apierr.Validation("comments attach to content or diagnostic, not %q", tt)
	}
	return nil
}

func (cs *commentService) Create(ctx context.Context, p access.Principal, tt interaction.TargetType, targetID uuid.UUID, body string) (*types.Comment, error) {
	if err := requireActor(p); err != nil {
		return nil, err
	}
	body, err := cleanBody(body)
	if err != nil {
		return nil, err
	}

	c := &types.Comment{AuthorID: p.ID, Body: body, ModerationState: comment.StatePending}
	if access.CanModerate(p) {
		c.ModerationState = comment.StateApproved
		c.ModeratorID = &p.ID
	}
	switch tt {
	case interaction.TargetContent:
		c.ContentID = &targetID
	case interaction.TargetDiagnostic:
		c.DiagnosticID = &targetID
	}

	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := cs.checkParent(dbc, p, tt, targetID); err != nil {
			return err
		}
		if _, err := cs.commentRepo.Create(dbc, []*types.Comment{c}); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.Current().IncComment("created")
	cs.log.Info("Comment created", "comment_id", c.ID, "actor_id", p.ID, "target_type", tt, "state", c.ModerationState)
	if c.ModerationState == comment.StateApproved && cs.notifier != nil {
		cs.notifier.CommentCreated(ctx, c)
	}
	return c, nil
}

func (cs *commentService) List(ctx context.Context, p access.Principal, tt interaction.TargetType, targetID uuid.UUID) ([]*CommentDetail, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if err := cs.checkParent(dbc, p, tt, targetID); err != nil {
		return nil, err
	}
	f := commentrepo.TargetFilter{ViewerID: p.ID, All: access.CanModerate(p)}
	if tt == interaction.TargetContent {
		f.ContentID = targetID
	} else {
		f.DiagnosticID = targetID
	}
	rows, err := cs.commentRepo.ListByTarget(dbc, f)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.ID)
	}
	stats, err := cs.interactionService.StatsForMany(ctx, interaction.TargetComment, ids)
	if err != nil {
		return nil, err
	}
	flags, err := cs.interactionService.UserInteractionsForMany(ctx, p, interaction.TargetComment, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*CommentDetail, 0, len(rows))
	for _, c := range rows {
		d := &CommentDetail{Comment: c, Stats: NewStatsView(stats[c.ID])}
		if p.Authenticated() {
			view := NewUserFlagsView(flags[c.ID])
			d.UserInteractions = &view
		}
		out = append(out, d)
	}
	return out, nil
}

func (cs *commentService) Update(ctx context.Context, p access.Principal, id uuid.UUID, body string) (*types.Comment, error) {
	if err := requireActor(p); err != nil {
		return nil, err
	}
	body, err := cleanBody(body)
	if err != nil {
		return nil, err
	}
	var updated *types.Comment
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := cs.commentRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load comment: %w", err)
		}
		if c == nil {
			return commentNotFound(id)
		}
		if !access.CanMutate(p, c) {
			return apierr.Forbidden(errors.New("only the author or an admin may edit this comment"))
		}
		c.Body = body
		// Edited text goes back through moderation unless an admin wrote it.
		if !access.CanModerate(p) {
			c.ModerationState = comment.StatePending
			c.ModeratorID = nil
		}
		if err := cs.commentRepo.Save(dbc, c); err != nil {
			return fmt.Errorf("save comment: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (cs *commentService) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := requireActor(p); err != nil {
		return err
	}
	var deleted *types.Comment
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := cs.commentRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load comment: %w", err)
		}
		if c == nil {
			return commentNotFound(id)
		}
		if !access.CanMutate(p, c) {
			return apierr.Forbidden(errors.New("only the author or an admin may delete this comment"))
		}
		if _, err := cs.interactionRepo.DeleteByTargets(dbc, interaction.TargetComment, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete comment interactions: %w", err)
		}
		if err := cs.commentRepo.DeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		deleted = c
		return nil
	})
	if err != nil {
		return err
	}
	observability.Current().IncComment("deleted")
	cs.log.Info("Comment deleted", "comment_id", id, "actor_id", p.ID)
	if deleted.ModerationState == comment.StateApproved && cs.notifier != nil {
		cs.notifier.CommentDeleted(ctx, deleted)
	}
	return nil
}

func (cs *commentService) Approve(ctx context.Context, p access.Principal, id uuid.UUID) (*types.Comment, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	var approved *types.Comment
	var changed bool
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := cs.commentRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load comment: %w", err)
		}
		if c == nil {
			return commentNotFound(id)
		}
		approved = c
		if c.ModerationState == comment.StateApproved {
			return nil
		}
		c.ModerationState = comment.StateApproved
		c.ModeratorID = &p.ID
		if err := cs.commentRepo.Save(dbc, c); err != nil {
			return fmt.Errorf("approve comment: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		observability.Current().IncComment("approved")
		cs.log.Info("Comment approved", "comment_id", id, "moderator_id", p.ID)
		if cs.notifier != nil {
			cs.notifier.CommentApproved(ctx, approved)
		}
	}
	return approved, nil
}
