package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Kind string

const (
	KindArticle  Kind = "article"
	KindResource Kind = "resource"
	KindTutorial Kind = "tutorial"
)

func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindArticle:
		return KindArticle, true
	case KindResource:
		return KindResource, true
	case KindTutorial:
		return KindTutorial, true
	default:
		return "", false
	}
}

type Visibility string

const (
	VisibilityDraft     Visibility = "draft"
	VisibilityPublished Visibility = "published"
	VisibilityArchived  Visibility = "archived"
)

func ParseVisibility(raw string) (Visibility, bool) {
	switch Visibility(strings.ToLower(strings.TrimSpace(raw))) {
	case VisibilityDraft:
		return VisibilityDraft, true
	case VisibilityPublished:
		return VisibilityPublished, true
	case VisibilityArchived:
		return VisibilityArchived, true
	default:
		return "", false
	}
}

type Content struct {
	ID         uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID   uuid.UUID                   `gorm:"type:uuid;not null;index" json:"author_id"`
	Title      string                      `gorm:"not null" json:"title"`
	Body       string                      `gorm:"type:text;not null" json:"body"`
	Kind       Kind                        `gorm:"type:varchar(16);not null;default:'article';index" json:"kind"`
	Visibility Visibility                  `gorm:"type:varchar(16);not null;default:'draft';index" json:"visibility"`
	IsPublic   bool                        `gorm:"not null;default:false" json:"is_public"`
	Tags       datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt  time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Content) TableName() string { return "content" }

func (c *Content) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Content) OwnerID() uuid.UUID { return c.AuthorID }

// Listed reports whether anonymous readers may see the content.
func (c *Content) Listed() bool {
	return c.IsPublic && c.Visibility == VisibilityPublished
}

// NormalizeTags drops blank tags and case-insensitive duplicates, keeping first
// occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
