package diagnostic

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Mode string

const (
	// ModeHolmesRahe scores boolean flags over the fixed life-event catalog.
	ModeHolmesRahe Mode = "holmes_rahe"
	// ModeQuestionBank scores answers against the weighted question bank.
	ModeQuestionBank Mode = "question_bank"
)

func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeHolmesRahe, "fixed_event_weights", "holmes-rahe":
		return ModeHolmesRahe, true
	case ModeQuestionBank, "weighted_question_bank", "question-bank":
		return ModeQuestionBank, true
	default:
		return "", false
	}
}

type RiskBand string

const (
	RiskLow      RiskBand = "low"
	RiskModerate RiskBand = "moderate"
	RiskHigh     RiskBand = "high"

	RiskExcellent  RiskBand = "excellent"
	RiskGood       RiskBand = "good"
	RiskAverage    RiskBand = "average"
	RiskConcerning RiskBand = "concerning"
	RiskCritical   RiskBand = "critical"
)

type Diagnostic struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Title          string         `gorm:"not null" json:"title"`
	Mode           Mode           `gorm:"type:varchar(32);not null" json:"mode"`
	Score          int            `gorm:"not null" json:"score"`
	RiskBand       RiskBand       `gorm:"type:varchar(16);not null" json:"risk_band"`
	Recommendation string         `gorm:"type:text;not null" json:"recommendation"`
	Responses      datatypes.JSON `json:"responses"`
	IsPublic       bool           `gorm:"not null;default:false;index" json:"is_public"`
	CompletedAt    time.Time      `gorm:"not null" json:"completed_at"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (Diagnostic) TableName() string { return "diagnostic" }

func (d *Diagnostic) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CompletedAt.IsZero() {
		d.CompletedAt = time.Now().UTC()
	}
	return nil
}

func (d *Diagnostic) OwnerID() uuid.UUID { return d.UserID }
