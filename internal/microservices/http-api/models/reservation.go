package models

import "time"

// Reservation is a member's hold on a title that had no copies available.
type Reservation struct {
	ID              int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	MemberID        int64     `json:"member_id" gorm:"not null;index:idx_reservations_member_book"`
	BookID          int64     `json:"book_id" gorm:"not null;index:idx_reservations_member_book"`
	ReservationDate time.Time `json:"reservation_date" gorm:"type:date;not null"`
	IsActive        bool      `json:"is_active" gorm:"not null;index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// associations
	Member *Member `json:"member,omitempty" gorm:"foreignKey:MemberID;constraint:OnDelete:RESTRICT;"`
	Book   *Book   `json:"book,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT;"`
}

func (Reservation) TableName() string {
	return "reservations"
}
