package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/data/repos"
	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/domain/diagnostic"
	"github.com/cesizen/cesizen-backend/internal/domain/interaction"
	"github.com/cesizen/cesizen-backend/internal/modules/access"
	"github.com/cesizen/cesizen-backend/internal/modules/scoring"
	"github.com/cesizen/cesizen-backend/internal/observability"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

const (
	codeDiagnosticNotFound = "diagnostic_not_found"
	codeQuestionNotFound   = "question_not_found"
	maxTitleLength         = 200
)

type DiagnosticInput struct {
	Title     string         `json:"title"`
	Mode      string         `json:"mode"`
	Responses map[string]any `json:"responses"`
	IsPublic  bool           `json:"is_public"`
}

type DiagnosticPatch struct {
	Title    *string `json:"title"`
	IsPublic *bool   `json:"is_public"`
}

type QuestionInput struct {
	Text     string                      `json:"text"`
	Type     string                      `json:"type"`
	Weight   float64                     `json:"weight"`
	Options  []diagnostic.QuestionOption `json:"options"`
	Position int                         `json:"position"`
	Active   *bool                       `json:"active"`
}

type DiagnosticDetail struct {
	*types.Diagnostic
	Stats            StatsView      `json:"stats"`
	UserInteractions *UserFlagsView `json:"user_interactions,omitempty"`
}

type DiagnosticService interface {
	Catalog() []scoring.Event
	Questions(ctx context.Context) ([]*types.DiagnosticQuestion, error)
	Preview(ctx context.Context, mode string, responses map[string]any) (scoring.Result, error)
	Submit(ctx context.Context, p access.Principal, in DiagnosticInput) (*types.Diagnostic, error)
	ListMine(ctx context.Context, p access.Principal) ([]*DiagnosticDetail, error)
	ListPublic(ctx context.Context, p access.Principal, limit int) ([]*DiagnosticDetail, error)
	Get(ctx context.Context, p access.Principal, id uuid.UUID) (*DiagnosticDetail, error)
	Update(ctx context.Context, p access.Principal, id uuid.UUID, patch DiagnosticPatch) (*types.Diagnostic, error)
	Delete(ctx context.Context, p access.Principal, id uuid.UUID) error

	ListAllQuestions(ctx context.Context, p access.Principal) ([]*types.DiagnosticQuestion, error)
	CreateQuestion(ctx context.Context, p access.Principal, in QuestionInput) (*types.DiagnosticQuestion, error)
	UpdateQuestion(ctx context.Context, p access.Principal, id uuid.UUID, in QuestionInput) (*types.DiagnosticQuestion, error)
	DeleteQuestion(ctx context.Context, p access.Principal, id uuid.UUID) error
}

type diagnosticService struct {
	db                 *gorm.DB
	log                *logger.Logger
	diagnosticRepo     repos.DiagnosticRepo
	questionRepo       repos.QuestionRepo
	commentRepo        repos.CommentRepo
	interactionRepo    repos.InteractionRepo
	interactionService InteractionService
}

func NewDiagnosticService(
	db *gorm.DB,
	log *logger.Logger,
	diagnosticRepo repos.DiagnosticRepo,
	questionRepo repos.QuestionRepo,
	commentRepo repos.CommentRepo,
	interactionRepo repos.InteractionRepo,
	interactionService InteractionService,
) DiagnosticService {
	serviceLog := log.With("service", "DiagnosticService")
	return &diagnosticService{
		db:                 db,
		log:                serviceLog,
		diagnosticRepo:     diagnosticRepo,
		questionRepo:       questionRepo,
		commentRepo:        commentRepo,
		interactionRepo:    interactionRepo,
		interactionService: interactionService,
	}
}

// diagnosticNotFound also answers denied mutations so ownership never leaks.
func diagnosticNotFound(id uuid.UUID) error {
	return apierr.NotFound(codeDiagnosticNotFound, fmt.Errorf("diagnostic %s not found", id))
}

func (ds *diagnosticService) Catalog() []scoring.Event {
	return scoring.Catalog()
}

func (ds *diagnosticService) Questions(ctx context.Context) ([]*types.DiagnosticQuestion, error) {
	qs, err := ds.questionRepo.List(dbctx.Context{Ctx: ctx}, true)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return qs, nil
}

func (ds *diagnosticService) score(ctx context.Context, rawMode string, responses map[string]any) (diagnostic.Mode, scoring.Result, error) {
	mode, ok := diagnostic.ParseMode(rawMode)
	if !ok {
		return "", scoring.Result{}, apierr.InvalidDiagnosticMode(rawMode)
	}
	var bank []*diagnostic.Question
	if mode == diagnostic.ModeQuestionBank {
		qs, err := ds.questionRepo.List(dbctx.Context{Ctx: ctx}, true)
		if err != nil {
			return "", scoring.Result{}, fmt.Errorf("load question bank: %w", err)
		}
		bank = qs
	}
	res, err := scoring.Score(mode, responses, bank)
	if err != nil {
		if errors.Is(err, scoring.ErrUnknownMode) {
			return "", scoring.Result{}, apierr.InvalidDiagnosticMode(rawMode)
		}
		return "", scoring.Result{}, err
	}
	return mode, res, nil
}

func (ds *diagnosticService) Preview(ctx context.Context, mode string, responses map[string]any) (scoring.Result, error) {
	_, res, err := ds.score(ctx, mode, responses)
	return res, err
}

func (ds *diagnosticService) Submit(ctx context.Context, p access.Principal, in DiagnosticInput) (*types.Diagnostic, error) {
	if err := requireActor(p); err != nil {
		return nil, err
	}
	mode, res, err := ds.score(ctx, in.Mode, in.Responses)
	if err != nil {
		return nil, err
	}

	responses := in.Responses
	if responses == nil {
		responses = map[string]any{}
	}
	raw, err := json.Marshal(responses)
	if err != nil {
		return nil, apierr.Validation("responses are not serializable: %v", err)
	}

	now := time.Now().UTC()
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = fmt.Sprintf("Diagnostic %s", now.Format("2006-01-02"))
	}
	if len(title) > maxTitleLength {
		return nil, apierr.Validation("title is too long")
	}

	d := &types.Diagnostic{
		UserID:         p.ID,
		Title:          title,
		Mode:           mode,
		Score:          res.Score,
		RiskBand:       res.RiskBand,
		Recommendation: res.Recommendation,
		Responses:      datatypes.JSON(raw),
		IsPublic:       in.IsPublic,
		CompletedAt:    now,
	}
	if _, err := ds.diagnosticRepo.Create(dbctx.Context{Ctx: ctx}, []*types.Diagnostic{d}); err != nil {
		return nil, fmt.Errorf("create diagnostic: %w", err)
	}
	observability.Current().IncDiagnostic(string(mode), string(res.RiskBand))
	ds.log.Info("Diagnostic submitted", "diagnostic_id", d.ID, "actor_id", p.ID, "mode", mode, "risk_band", res.RiskBand)
	return d, nil
}

func (ds *diagnosticService) attachStats(ctx context.Context, p access.Principal, rows []*types.Diagnostic) ([]*DiagnosticDetail, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, d := range rows {
		ids = append(ids, d.ID)
	}
	stats, err := ds.interactionService.StatsForMany(ctx, interaction.TargetDiagnostic, ids)
	if err != nil {
		return nil, err
	}
	flags, err := ds.interactionService.UserInteractionsForMany(ctx, p, interaction.TargetDiagnostic, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*DiagnosticDetail, 0, len(rows))
	for _, d := range rows {
		detail := &DiagnosticDetail{Diagnostic: d, Stats: NewStatsView(stats[d.ID])}
		if p.Authenticated() {
			view := NewUserFlagsView(flags[d.ID])
			detail.UserInteractions = &view
		}
		out = append(out, detail)
	}
	return out, nil
}

func (ds *diagnosticService) ListMine(ctx context.Context, p access.Principal) ([]*DiagnosticDetail, error) {
	if err := requireActor(p); err != nil {
		return nil, err
	}
	rows, err := ds.diagnosticRepo.ListByOwner(dbctx.Context{Ctx: ctx}, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	return ds.attachStats(ctx, p, rows)
}

func (ds *diagnosticService) ListPublic(ctx context.Context, p access.Principal, limit int) ([]*DiagnosticDetail, error) {
	limit, _ = clampPage(limit, 0)
	rows, err := ds.diagnosticRepo.ListPublic(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, fmt.Errorf("list public diagnostics: %w", err)
	}
	return ds.attachStats(ctx, p, rows)
}

func (ds *diagnosticService) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*DiagnosticDetail, error) {
	d, err := ds.diagnosticRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load diagnostic: %w", err)
	}
	if !diagnosticVisible(d, p) {
		return nil, diagnosticNotFound(id)
	}
	details, err := ds.attachStats(ctx, p, []*types.Diagnostic{d})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

func (ds *diagnosticService) Update(ctx context.Context, p access.Principal, id uuid.UUID, patch DiagnosticPatch) (*types.Diagnostic, error) {
	if err := requireActor(p); err != nil {
		return nil, err
	}
	var updated *types.Diagnostic
	err := ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		d, err := ds.diagnosticRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load diagnostic: %w", err)
		}
		if d == nil || !access.CanMutate(p, d) {
			return diagnosticNotFound(id)
		}
		updates := map[string]any{}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" || len(title) > maxTitleLength {
				return apierr.Validation("title must be 1-%d characters", maxTitleLength)
			}
			updates["title"] = title
			d.Title = title
		}
		if patch.IsPublic != nil {
			updates["is_public"] = *patch.IsPublic
			d.IsPublic = *patch.IsPublic
		}
		if err := ds.diagnosticRepo.UpdateFields(dbc, id, updates); err != nil {
			return fmt.Errorf("update diagnostic: %w", err)
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the diagnostic, its comments and every interaction on either
// in one transaction. Stats for the id read as zero afterwards.
func (ds *diagnosticService) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := requireActor(p); err != nil {
		return err
	}
	err := ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		d, err := ds.diagnosticRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load diagnostic: %w", err)
		}
		if d == nil || !access.CanMutate(p, d) {
			return diagnosticNotFound(id)
		}
		commentIDs, err := ds.commentRepo.ListIDsByDiagnosticIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		if _, err := ds.interactionRepo.DeleteByTargets(dbc, interaction.TargetComment, commentIDs); err != nil {
			return fmt.Errorf("delete comment interactions: %w", err)
		}
		if err := ds.commentRepo.DeleteByIDs(dbc, commentIDs); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if _, err := ds.interactionRepo.DeleteByTargets(dbc, interaction.TargetDiagnostic, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete diagnostic interactions: %w", err)
		}
		if err := ds.diagnosticRepo.DeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete diagnostic: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	ds.log.Info("Diagnostic deleted", "diagnostic_id", id, "actor_id", p.ID)
	return nil
}

func requireModerator(p access.Principal) error {
	if !p.Authenticated() {
		return apierr.Unauthorized(errors.New("authentication required"))
	}
	if !access.CanModerate(p) {
		return apierr.Forbidden(errors.New("admin role required"))
	}
	return nil
}

func validateQuestion(in QuestionInput) (diagnostic.QuestionType, error) {
	if strings.TrimSpace(in.Text) == "" {
		return "", apierr.Validation("question text is required")
	}
	qt, ok := diagnostic.ParseQuestionType(in.Type)
	if !ok {
		return "", apierr.Validation("unknown question type %q", in.Type)
	}
	if in.Weight <= 0 {
		return "", apierr.Validation("weight must be positive")
	}
	if qt != diagnostic.QuestionScale {
		if len(in.Options) == 0 {
			return "", apierr.Validation("choice questions need options")
		}
		seen := map[string]struct{}{}
		for _, o := range in.Options {
			v := strings.ToLower(strings.TrimSpace(o.Value))
			if v == "" {
				return "", apierr.Validation("option value is required")
			}
			if _, dup := seen[v]; dup {
				return "", apierr.Validation("duplicate option %q", o.Value)
			}
			seen[v] = struct{}{}
		}
	}
	return qt, nil
}

func (ds *diagnosticService) ListAllQuestions(ctx context.Context, p access.Principal) ([]*types.DiagnosticQuestion, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	qs, err := ds.questionRepo.List(dbctx.Context{Ctx: ctx}, false)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return qs, nil
}

func (ds *diagnosticService) CreateQuestion(ctx context.Context, p access.Principal, in QuestionInput) (*types.DiagnosticQuestion, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	qt, err := validateQuestion(in)
	if err != nil {
		return nil, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	q := &types.DiagnosticQuestion{
		Text:     strings.TrimSpace(in.Text),
		Type:     qt,
		Weight:   in.Weight,
		Options:  datatypes.JSONSlice[diagnostic.QuestionOption](in.Options),
		Position: in.Position,
		Active:   active,
	}
	if _, err := ds.questionRepo.Create(dbctx.Context{Ctx: ctx}, []*types.DiagnosticQuestion{q}); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (ds *diagnosticService) UpdateQuestion(ctx context.Context, p access.Principal, id uuid.UUID, in QuestionInput) (*types.DiagnosticQuestion, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	qt, err := validateQuestion(in)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	q, err := ds.questionRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if q == nil {
		return nil, apierr.NotFound(codeQuestionNotFound, fmt.Errorf("question %s not found", id))
	}
	q.Text = strings.TrimSpace(in.Text)
	q.Type = qt
	q.Weight = in.Weight
	q.Options = datatypes.JSONSlice[diagnostic.QuestionOption](in.Options)
	q.Position = in.Position
	if in.Active != nil {
		q.Active = *in.Active
	}
	if err := ds.questionRepo.Save(dbc, q); err != nil {
		return nil, fmt.Errorf("save question: %w", err)
	}
	return q, nil
}

func (ds *diagnosticService) DeleteQuestion(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := requireModerator(p); err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	q, err := ds.questionRepo.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load question: %w", err)
	}
	if q == nil {
		return apierr.NotFound(codeQuestionNotFound, fmt.Errorf("question %s not found", id))
	}
	return ds.questionRepo.DeleteByIDs(dbc, []uuid.UUID{id})
}
