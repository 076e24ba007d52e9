package interaction

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TargetType string

const (
	TargetContent    TargetType = "content"
	TargetComment    TargetType = "comment"
	TargetDiagnostic TargetType = "diagnostic"
)

func ParseTargetType(raw string) (TargetType, bool) {
	switch TargetType(strings.ToLower(strings.TrimSpace(raw))) {
	case TargetContent:
		return TargetContent, true
	case TargetComment:
		return TargetComment, true
	case TargetDiagnostic:
		return TargetDiagnostic, true
	default:
		return "", false
	}
}

type Kind string

const (
	KindLike     Kind = "like"
	KindDislike  Kind = "dislike"
	KindFavorite Kind = "favorite"
	KindView     Kind = "view"
	KindReport   Kind = "report"
	KindShare    Kind = "share"
)

// Kinds lists every interaction kind in display order.
func Kinds() []Kind {
	return []Kind{KindLike, KindDislike, KindFavorite, KindView, KindReport, KindShare}
}

func ParseKind(raw string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Kinds() {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Opposite returns the mutually exclusive partner of like/dislike.
func (k Kind) Opposite() (Kind, bool) {
	switch k {
	case KindLike:
		return KindDislike, true
	case KindDislike:
		return KindLike, true
	default:
		return "", false
	}
}

// Toggleable is false for view, which is record-once.
func (k Kind) Toggleable() bool { return k != KindView }

type Status string

const (
	StatusAdded   Status = "added"
	StatusRemoved Status = "removed"
)

// Interaction is one ledger row. (user_id, target_type, target_id, kind) is
// the natural key; rows are hard-deleted on toggle-off.
type Interaction struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_interaction_natural_key,priority:1;index:idx_interaction_actor" json:"user_id"`
	TargetType TargetType `gorm:"type:varchar(32);not null;uniqueIndex:idx_interaction_natural_key,priority:2;index:idx_interaction_target,priority:1" json:"target_type"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_interaction_natural_key,priority:3;index:idx_interaction_target,priority:2" json:"target_id"`
	Kind       Kind       `gorm:"type:varchar(16);not null;uniqueIndex:idx_interaction_natural_key,priority:4" json:"kind"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
}

func (Interaction) TableName() string { return "interaction" }

func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
