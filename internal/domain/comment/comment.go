package comment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ModerationState string

const (
	StatePending  ModerationState = "pending"
	StateApproved ModerationState = "approved"
)

var (
	ErrInvalidTarget = errors.New("comment must target exactly one of content or diagnostic")
	ErrEmptyBody     = errors.New("comment body is required")
)

// Comment targets exactly one of a content or a diagnostic.
type Comment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"author_id"`
	ContentID       *uuid.UUID      `gorm:"type:uuid;index" json:"content_id,omitempty"`
	DiagnosticID    *uuid.UUID      `gorm:"type:uuid;index" json:"diagnostic_id,omitempty"`
	Body            string          `gorm:"type:text;not null" json:"body"`
	ModerationState ModerationState `gorm:"type:varchar(16);not null;default:'pending';index" json:"moderation_state"`
	ModeratorID     *uuid.UUID      `gorm:"type:uuid" json:"moderator_id,omitempty"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

func (Comment) TableName() string { return "comment" }

func (c *Comment) OwnerID() uuid.UUID { return c.AuthorID }

func (c *Comment) Validate() error {
	hasContent := c.ContentID != nil && *c.ContentID != uuid.Nil
	hasDiagnostic := c.DiagnosticID != nil && *c.DiagnosticID != uuid.Nil
	if hasContent == hasDiagnostic {
		return ErrInvalidTarget
	}
	if strings.TrimSpace(c.Body) == "" {
		return ErrEmptyBody
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ModerationState == "" {
		c.ModerationState = StatePending
	}
	return nil
}

func (c *Comment) BeforeSave(tx *gorm.DB) error {
	return c.Validate()
}
