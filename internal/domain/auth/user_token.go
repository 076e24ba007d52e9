package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/domain/user"
)

// UserToken is a login session: the issued access JWT plus its opaque
// refresh token. Deleting the row revokes both.
type UserToken struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"userId"`
	User         *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	AccessToken  string     `gorm:"uniqueIndex;not null" json:"-"`
	RefreshToken string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt    time.Time  `gorm:"index;not null" json:"expiresAt"`
	CreatedAt    time.Time  `gorm:"not null" json:"createdAt"`
}

func (UserToken) TableName() string { return "user_token" }

func (t *UserToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the refresh window has closed at now.
func (t *UserToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
