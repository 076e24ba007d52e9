package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/data/repos"
	contentrepo "github.com/cesizen/cesizen-backend/internal/data/repos/content"
	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/domain/content"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

const (
	codeContentNotFound = "content_not_found"
	defaultPageSize     = 20
	maxPageSize         = 100
)

type ContentInput struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Kind       string   `json:"kind"`
	Visibility string   `json:"visibility"`
	IsPublic   bool     `json:"is_public"`
	Tags       []string `json:"tags"`
}

// ContentPatch only touches non-nil fields.
type ContentPatch struct {
	Title      *string   `json:"title"`
	Body       *string   `json:"body"`
	Kind       *string   `json:"kind"`
	Visibility *string   `json:"visibility"`
	IsPublic   *bool     `json:"is_public"`
	Tags       *[]string `json:"tags"`
}

type ContentListFilter struct {
	Kind     string
	Tag      string
	AuthorID uuid.UUID
	Limit    int
	Offset   int
}

type ContentDetail struct {
	*types.Content
	Stats            StatsView      `json:"stats"`
	UserInteractions *UserFlagsView `json:"user_interactions,omitempty"`
}

type ContentService interface {
	Create(ctx context.Context, p access.Principal, in ContentInput) (*types.Content, error)
	Get(ctx context.Context, p access.Principal, id uuid.UUID) (*ContentDetail, error)
	List(ctx context.Context, p access.Principal, f ContentListFilter) ([]*ContentDetail, error)
	Update(ctx context.Context, p access.Principal, id uuid.UUID, patch ContentPatch) (*types.Content, error)
	Delete(ctx context.Context, p access.Principal, id uuid.UUID) error
}

type contentService struct {
	db                 *gorm.DB
	log                *logger.Logger
	contentRepo        repos.ContentRepo
	commentRepo        repos.CommentRepo
	interactionRepo    repos.InteractionRepo
	interactionService InteractionService
}

func NewContentService(
	db *gorm.DB,
	log *logger.Logger,
	contentRepo repos.ContentRepo,
	commentRepo repos.CommentRepo,
	interactionRepo repos.InteractionRepo,
	interactionService InteractionService,
) ContentService {
	serviceLog := log.With("service", "ContentService")
	return &contentService{
		db:                 db,
		log:                serviceLog,
		contentRepo:        contentRepo,
		commentRepo:        commentRepo,
		interactionRepo:    interactionRepo,
		interactionService: interactionService,
	}
}

func contentNotFound(id uuid.UUID) error {
	return apierr.NotFound(codeContentNotFound, fmt.Errorf("content %s not found", id))
}

func canReadContent(c *types.Content, p access.Principal) bool {
	return c.Listed() || access.CanMutate(p, c)
}

func (cs *contentService) Create(ctx context.Context, p access.Principal, in ContentInput) (*types.Content, error) {
	if err := requireActor(p); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)
	if title == "" || body == "" {
		return nil, apierr.Validation("title and body are required")
	}
	kind := content.KindArticle
	if in.Kind != "" {
		k, ok := content.ParseKind(in.Kind)
		if !ok {
			return nil, apierr.Validation("unknown content kind %q", in.Kind)
		}
		kind = k
	}
	visibility := content.VisibilityDraft
	if in.Visibility != "" {
		v, ok := content.ParseVisibility(in.Visibility)
		if !ok {
			return nil, apierr.Validation("unknown visibility %q", in.Visibility)
		}
		visibility = v
	}

	c := &types.Content{
		AuthorID:   p.ID,
		Title:      title,
		Body:       body,
		Kind:       kind,
		Visibility: visibility,
		IsPublic:   in.IsPublic,
		Tags:       datatypes.JSONSlice[string](content.NormalizeTags(in.Tags)),
	}
	if _, err := cs.contentRepo.Create(dbctx.Context{Ctx: ctx}, []*types.Content{c}); err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	cs.log.Info("Content created", "content_id", c.ID, "actor_id", p.ID)
	return c, nil
}

func (cs *contentService) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*ContentDetail, error) {
	c, err := cs.contentRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if c == nil || !canReadContent(c, p) {
		return nil, contentNotFound(id)
	}

	if p.Authenticated() {
		if err := cs.interactionService.RecordView(ctx, p, interaction.TargetContent, id); err != nil {
			cs.log.Warn("Failed to record content view", "content_id", id, "error", err)
		}
	}

	counts, err := cs.interactionService.StatsFor(ctx, interaction.TargetContent, id)
	if err != nil {
		return nil, err
	}
	detail := &ContentDetail{Content: c, Stats: NewStatsView(counts)}
	if p.Authenticated() {
		flags, err := cs.interactionService.UserInteractionsFor(ctx, p, interaction.TargetContent, id)
		if err != nil {
			return nil, err
		}
		view := NewUserFlagsView(flags)
		detail.UserInteractions = &view
	}
	return detail, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (cs *contentService) List(ctx context.Context, p access.Principal, f ContentListFilter) ([]*ContentDetail, error) {
	filter := contentrepo.ListFilter{
		Tag:      f.Tag,
		AuthorID: f.AuthorID,
	}
	filter.Limit, filter.Offset = clampPage(f.Limit, f.Offset)
	if f.Kind != "" {
		k, ok := content.ParseKind(f.Kind)
		if !ok {
			return nil, apierr.Validation("unknown content kind %q", f.Kind)
		}
		filter.Kind = k
	}
	if !p.IsAdmin() {
		filter.ListedOnly = true
		filter.IncludeOwnerID = p.ID
	}

	rows, err := cs.contentRepo.List(dbctx.Context{Ctx: ctx}, filter)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.ID)
	}

	var (
		stats map[uuid.UUID]map[interaction.Kind]int64
		flags map[uuid.UUID]map[interaction.Kind]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = cs.interactionService.StatsForMany(gctx, interaction.TargetContent, ids)
		return err
	})
	if p.Authenticated() {
		g.Go(func() error {
			var err error
			flags, err = cs.interactionService.UserInteractionsForMany(gctx, p, interaction.TargetContent, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*ContentDetail, 0, len(rows))
	for _, c := range rows {
		d := &ContentDetail{Content: c, Stats: NewStatsView(stats[c.ID])}
		if p.Authenticated() {
			view := NewUserFlagsView(flags[c.ID])
			d.UserInteractions = &view
		}
		out = append(out, d)
	}
	return out, nil
}

func (cs *contentService) Update(ctx context.Context, p access.Principal, id uuid.UUID, patch ContentPatch) (*types.Content, error) {
	if err := requireActor(p); err != nil {
		return nil, err
	}
	var updated *types.Content
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := cs.contentRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load content: %w", err)
		}
		if c == nil {
			return contentNotFound(id)
		}
		if !access.CanMutate(p, c) {
			return apierr.Forbidden(errors.New("only the author or an admin may edit this content"))
		}
		if err := applyContentPatch(c, patch); err != nil {
			return err
		}
		if err := cs.contentRepo.Save(dbc, c); err != nil {
			return fmt.Errorf("save content: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyContentPatch(c *types.Content, patch ContentPatch) error {
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return apierr.Validation("title cannot be empty")
		}
		c.Title = t
	}
	if patch.Body != nil {
		b := strings.TrimSpace(*patch.Body)
		if b == "" {
			return apierr.Validation("body cannot be empty")
		}
		c.Body = b
	}
	if patch.Kind != nil {
		k, ok := content.ParseKind(*patch.Kind)
		if !ok {
			return apierr.Validation("unknown content kind %q", *patch.Kind)
		}
		c.Kind = k
	}
	if patch.Visibility != nil {
		v, ok := content.ParseVisibility(*patch.Visibility)
		if !ok {
			return apierr.Validation("unknown visibility %q", *patch.Visibility)
		}
		c.Visibility = v
	}
	if patch.IsPublic != nil {
		c.IsPublic = *patch.IsPublic
	}
	if patch.Tags != nil {
		c.Tags = datatypes.JSONSlice[string](content.NormalizeTags(*patch.Tags))
	}
	return nil
}

// Delete removes the content with its comments and every interaction on
// either, in one transaction.
func (cs *contentService) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := requireActor(p); err != nil {
		return err
	}
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := cs.contentRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load content: %w", err)
		}
		if c == nil {
			return contentNotFound(id)
		}
		if !access.CanMutate(p, c) {
			return apierr.Forbidden(errors.New("only the author or an admin may delete this content"))
		}
		commentIDs, err := cs.commentRepo.ListIDsByContentIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		if _, err := cs.interactionRepo.DeleteByTargets(dbc, interaction.TargetComment, commentIDs); err != nil {
			return fmt.Errorf("delete comment interactions: %w", err)
		}
		if err := cs.commentRepo.DeleteByIDs(dbc, commentIDs); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if _, err := cs.interactionRepo.DeleteByTargets(dbc, interaction.TargetContent, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete content interactions: %w", err)
		}
		if err := cs.contentRepo.DeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete content: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cs.log.Info("Content deleted", "content_id", id, "actor_id", p.ID)
	return nil
}
