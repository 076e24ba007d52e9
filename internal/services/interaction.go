package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/data/repos"
	interactionrepo "github.com/cesizen/cesizen-backend/internal/data/repos/interaction"
	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/domain/comment"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
	"github.com/cesizen/cesizen-backend/internal/observability"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

// StatsView is the per-kind count projection served to clients.
type StatsView struct {
	Likes     int64 `json:"likes"`
	Dislikes  int64 `json:"dislikes"`
	Favorites int64 `json:"favorites"`
	Views     int64 `json:"views"`
	Reports   int64 `json:"reports"`
	Shares    int64 `json:"shares"`
}

func NewStatsView(counts map[interaction.Kind]int64) StatsView {
	return StatsView{
		Likes:     counts[interaction.KindLike],
		Dislikes:  counts[interaction.KindDislike],
		Favorites: counts[interaction.KindFavorite],
		Views:     counts[interaction.KindView],
		Reports:   counts[interaction.KindReport],
		Shares:    counts[interaction.KindShare],
	}
}

// UserFlagsView reports which kinds the caller currently holds on a target.
type UserFlagsView struct {
	Like     bool `json:"like"`
	Dislike  bool `json:"dislike"`
	Favorite bool `json:"favorite"`
	Viewed   bool `json:"viewed"`
	Reported bool `json:"reported"`
	Shared   bool `json:"shared"`
}

func NewUserFlagsView(flags map[interaction.Kind]bool) UserFlagsView {
	return UserFlagsView{
		Like:     flags[interaction.KindLike],
		Dislike:  flags[interaction.KindDislike],
		Favorite: flags[interaction.KindFavorite],
		Viewed:   flags[interaction.KindView],
		Reported: flags[interaction.KindReport],
		Shared:   flags[interaction.KindShare],
	}
}

type InteractionService interface {
	Toggle(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID, kind interaction.Kind) (interaction.Status, error)
	RecordView(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID) error
	// StatsFor always returns every kind, zeros included.
	StatsFor(ctx context.Context, tt interaction.TargetType, targetID uuid.UUID) (map[interaction.Kind]int64, error)
	// TargetStats is StatsFor behind a visibility check on the target.
	TargetStats(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID) (map[interaction.Kind]int64, error)
	// EnsureVisible fails with target_not_found unless actor may read the target.
	EnsureVisible(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID) error
	StatsForMany(ctx context.Context, tt interaction.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]map[interaction.Kind]int64, error)
	// UserInteractionsFor only holds the kinds the actor currently has.
	UserInteractionsFor(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID) (map[interaction.Kind]bool, error)
	UserInteractionsForMany(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]map[interaction.Kind]bool, error)
	ListByActor(ctx context.Context, actor access.Principal, tt interaction.TargetType, kind interaction.Kind) ([]uuid.UUID, error)
}

type interactionService struct {
	db              *gorm.DB
	log             *logger.Logger
	interactionRepo repos.InteractionRepo
	contentRepo     repos.ContentRepo
	commentRepo     repos.CommentRepo
	diagnosticRepo  repos.DiagnosticRepo
	notifier        RealtimeNotifier
}

func NewInteractionService(
	db *gorm.DB,
	log *logger.Logger,
	interactionRepo repos.InteractionRepo,
	contentRepo repos.ContentRepo,
	commentRepo repos.CommentRepo,
	diagnosticRepo repos.DiagnosticRepo,
	notifier RealtimeNotifier,
) InteractionService {
	serviceLog := log.With("service", "InteractionService")
	return &interactionService{
		db:              db,
		log:             serviceLog,
		interactionRepo: interactionRepo,
		contentRepo:     contentRepo,
		commentRepo:     commentRepo,
		diagnosticRepo:  diagnosticRepo,
		notifier:        notifier,
	}
}

func requireActor(actor access.Principal) error {
	if !actor.Authenticated() {
		return apierr.Unauthorized(errors.New("authentication required"))
	}
	return nil
}

// resolveTarget fails with a not-found error when the target is missing or
// the actor may not read it. Comments also require a readable parent.
func (s *interactionService) resolveTarget(dbc dbctx.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID) error {
	notFound := apierr.NotFound(apierr.CodeTargetNotFound, fmt.Errorf("%s %s not found", tt, targetID))
	switch tt {
	case interaction.TargetContent:
		c, err := s.contentRepo.GetByID(dbc, targetID)
		if err != nil {
			return fmt.Errorf("resolve content: %w", err)
		}
		if c == nil || !canReadContent(c, actor) {
			return notFound
		}
	case interaction.TargetComment:
		c, err := s.commentRepo.GetByID(dbc, targetID)
		if err != nil {
			return fmt.Errorf("resolve comment: %w", err)
		}
		if !commentVisible(c, actor) {
			return notFound
		}
		parentType, parentID := interaction.TargetContent, uuid.Nil
		if c.ContentID != nil {
			parentID = *c.ContentID
		} else if c.DiagnosticID != nil {
			parentType, parentID = interaction.TargetDiagnostic, *c.DiagnosticID
		}
		if err := s.resolveTarget(dbc, actor, parentType, parentID); err != nil {
			var ae *apierr.Error
			if errors.As(err, &ae) {
				return notFound
			}
			return err
		}
	case interaction.TargetDiagnostic:
		d, err := s.diagnosticRepo.GetByID(dbc, targetID)
		if err != nil {
			return fmt.Errorf("resolve diagnostic: %w", err)
		}
		if !diagnosticVisible(d, actor) {
			return notFound
		}
	default:
		return apierr.Validation("unknown target type %q", tt)
	}
	return nil
}

// commentVisible matches comment listing: approved for everyone, pending only
// for the author and admins.
func commentVisible(c *types.Comment, p access.Principal) bool {
	if c == nil {
		return false
	}
	return c.ModerationState == comment.StateApproved || access.CanMutate(p, c)
}

func diagnosticVisible(d *types.Diagnostic, p access.Principal) bool {
	if d == nil {
		return false
	}
	return d.IsPublic || access.CanMutate(p, d)
}

func (s *interactionService) Toggle(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID, kind interaction.Kind) (interaction.Status, error) {
	if err := requireActor(actor); err != nil {
		return "", err
	}
	if !kind.Toggleable() {
		return "", apierr.Validation("%s cannot be toggled", kind)
	}
	if _, ok := interaction.ParseKind(string(kind)); !ok {
		return "", apierr.Validation("unknown interaction kind %q", kind)
	}

	var status interaction.Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.resolveTarget(dbc, actor, tt, targetID); err != nil {
			return err
		}

		key := interactionrepo.Key{UserID: actor.ID, TargetType: tt, TargetID: targetID, Kind: kind}
		existing, err := s.interactionRepo.GetByKey(dbc, key)
		if err != nil {
			return fmt.Errorf("lookup interaction: %w", err)
		}
		if existing != nil {
			if _, err := s.interactionRepo.DeleteByKey(dbc, key); err != nil {
				return fmt.Errorf("remove interaction: %w", err)
			}
			status = interaction.StatusRemoved
			return nil
		}

		if opposite, ok := kind.Opposite(); ok {
			oppKey := key
			oppKey.Kind = opposite
			if _, err := s.interactionRepo.DeleteByKey(dbc, oppKey); err != nil {
				return fmt.Errorf("remove opposite interaction: %w", err)
			}
		}

		// A concurrent insert of the same key is reported as added too.
		if _, err := s.interactionRepo.CreateIfAbsent(dbc, key); err != nil {
			return fmt.Errorf("add interaction: %w", err)
		}
		status = interaction.StatusAdded
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Debug("Interaction toggled", "actor_id", actor.ID, "target_type", tt, "target_id", targetID, "kind", kind, "status", status)
	observability.Current().IncInteraction(string(tt), string(kind), string(status))
	s.publishStats(ctx, tt, targetID)
	return status, nil
}

func (s *interactionService) RecordView(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	var inserted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.resolveTarget(dbc, actor, tt, targetID); err != nil {
			return err
		}
		key := interactionrepo.Key{UserID: actor.ID, TargetType: tt, TargetID: targetID, Kind: interaction.KindView}
		ok, err := s.interactionRepo.CreateIfAbsent(dbc, key)
		if err != nil {
			return fmt.Errorf("record view: %w", err)
		}
		inserted = ok
		return nil
	})
	if err != nil {
		return err
	}
	if inserted {
		observability.Current().IncView(string(tt))
		s.publishStats(ctx, tt, targetID)
	}
	return nil
}

func (s *interactionService) publishStats(ctx context.Context, tt interaction.TargetType, targetID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	counts, err := s.StatsFor(ctx, tt, targetID)
	if err != nil {
		s.log.Warn("Failed to load stats for publish", "target_type", tt, "target_id", targetID, "error", err)
		return
	}
	s.notifier.StatsChanged(ctx, tt, targetID, NewStatsView(counts))
}

func fillKinds(counts map[interaction.Kind]int64) map[interaction.Kind]int64 {
	out := make(map[interaction.Kind]int64, len(interaction.Kinds()))
	for _, k := range interaction.Kinds() {
		out[k] = counts[k]
	}
	return out
}

func (s *interactionService) StatsFor(ctx context.Context, tt interaction.TargetType, targetID uuid.UUID) (map[interaction.Kind]int64, error) {
	counts, err := s.interactionRepo.CountByKind(dbctx.Context{Ctx: ctx}, tt, targetID)
	if err != nil {
		return nil, fmt.Errorf("count interactions: %w", err)
	}
	return fillKinds(counts), nil
}

func (s *interactionService) EnsureVisible(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID) error {
	return s.resolveTarget(dbctx.Context{Ctx: ctx}, actor, tt, targetID)
}

func (s *interactionService) TargetStats(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID) (map[interaction.Kind]int64, error) {
	if err := s.EnsureVisible(ctx, actor, tt, targetID); err != nil {
		return nil, err
	}
	return s.StatsFor(ctx, tt, targetID)
}

func (s *interactionService) StatsForMany(ctx context.Context, tt interaction.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]map[interaction.Kind]int64, error) {
	grouped, err := s.interactionRepo.CountByKindForTargets(dbctx.Context{Ctx: ctx}, tt, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("count interactions: %w", err)
	}
	out := make(map[uuid.UUID]map[interaction.Kind]int64, len(targetIDs))
	for _, id := range targetIDs {
		out[id] = fillKinds(grouped[id])
	}
	return out, nil
}

func (s *interactionService) UserInteractionsFor(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetID uuid.UUID) (map[interaction.Kind]bool, error) {
	out := map[interaction.Kind]bool{}
	if !actor.Authenticated() {
		return out, nil
	}
	kinds, err := s.interactionRepo.ListKindsForActor(dbctx.Context{Ctx: ctx}, actor.ID, tt, targetID)
	if err != nil {
		return nil, fmt.Errorf("list actor interactions: %w", err)
	}
	for _, k := range kinds {
		out[k] = true
	}
	return out, nil
}

func (s *interactionService) UserInteractionsForMany(ctx context.Context, actor access.Principal, tt interaction.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]map[interaction.Kind]bool, error) {
	out := make(map[uuid.UUID]map[interaction.Kind]bool, len(targetIDs))
	if !actor.Authenticated() || len(targetIDs) == 0 {
		return out, nil
	}
	perTarget, err := s.interactionRepo.ListKindsForActorTargets(dbctx.Context{Ctx: ctx}, actor.ID, tt, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("list actor interactions: %w", err)
	}
	for id, kinds := range perTarget {
		m := make(map[interaction.Kind]bool, len(kinds))
		for _, k := range kinds {
			m[k] = true
		}
		out[id] = m
	}
	return out, nil
}

func (s *interactionService) ListByActor(ctx context.Context, actor access.Principal, tt interaction.TargetType, kind interaction.Kind) ([]uuid.UUID, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ids, err := s.interactionRepo.ListTargetIDsByActor(dbctx.Context{Ctx: ctx}, actor.ID, tt, kind)
	if err != nil {
		return nil, fmt.Errorf("list by actor: %w", err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}
