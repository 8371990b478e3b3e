package models

import (
	"time"

	"gorm.io/gorm"
)

// Member is a library patron. Administrators are members with IsAdmin set.
// Members are soft deleted so their borrow and reservation history survives.
type Member struct {
	ID             int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Email          string         `json:"email" gorm:"uniqueIndex;size:254;not null"`
	Password       string         `json:"-" gorm:"column:password_hash;not null"`
	FirstName      string         `json:"first_name" gorm:"size:100;not null"`
	LastName       string         `json:"last_name" gorm:"size:100;not null"`
	MembershipDate time.Time      `json:"membership_date" gorm:"type:date;not null"`
	Address        *string        `json:"address,omitempty"`
	PhoneNumber    *string        `json:"phone_number,omitempty" gorm:"size:20"`
	IsActive       bool           `json:"is_active" gorm:"not null"`
	IsAdmin        bool           `json:"is_admin" gorm:"not null;default:false"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Member) TableName() string {
	return "members"
}

// FullName joins first and last name.
func (m Member) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}
