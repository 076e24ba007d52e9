package diagnostic

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionScale          QuestionType = "scale"
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
)

func ParseQuestionType(raw string) (QuestionType, bool) {
	switch QuestionType(strings.ToLower(strings.TrimSpace(raw))) {
	case QuestionScale:
		return QuestionScale, true
	case QuestionSingleChoice:
		return QuestionSingleChoice, true
	case QuestionMultipleChoice:
		return QuestionMultipleChoice, true
	default:
		return "", false
	}
}

type QuestionOption struct {
	Value string  `json:"value"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Question is one entry of the weighted question bank.
type Question struct {
	ID        uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	Text      string                              `gorm:"type:text;not null" json:"text"`
	Type      QuestionType                        `gorm:"type:varchar(32);not null" json:"type"`
	Weight    float64                             `gorm:"not null;default:1" json:"weight"`
	Options   datatypes.JSONSlice[QuestionOption] `json:"options"`
	Position  int                                 `gorm:"not null;default:0;index" json:"position"`
	Active    bool                                `gorm:"not null" json:"active"`
	CreatedAt time.Time                           `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                           `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "diagnostic_question" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// Option finds an option by value, case-insensitively.
func (q *Question) Option(value string) (QuestionOption, bool) {
	value = strings.TrimSpace(value)
	for _, o := range q.Options {
		if strings.EqualFold(o.Value, value) {
			return o, true
		}
	}
	return QuestionOption{}, false
}
