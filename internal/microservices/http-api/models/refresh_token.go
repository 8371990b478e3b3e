package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshToken struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	MemberID  int64     `json:"member_id" gorm:"not null;index"`
	Token     string    `json:"-" gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Revoked   bool      `json:"revoked" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`

	Member *Member `json:"-" gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE;"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
