package models

import "time"

// Borrow records one copy of a book lent to a member. A nil ReturnDate means
// the copy is still out. Dates are civil dates stored at UTC midnight.
type Borrow struct {
	ID         int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	MemberID   int64      `json:"member_id" gorm:"not null;index"`
	BookID     int64      `json:"book_id" gorm:"not null;index"`
	BorrowDate time.Time  `json:"borrow_date" gorm:"type:date;not null"`
	DueDate    time.Time  `json:"due_date" gorm:"type:date;not null;index"`
	ReturnDate *time.Time `json:"return_date,omitempty" gorm:"type:date;index"`
	CreatedAt  time.Time  `json:"created_at"`

	// associations
	Member *Member `json:"member,omitempty" gorm:"foreignKey:MemberID;constraint:OnDelete:RESTRICT;"`
	Book   *Book   `json:"book,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT;"`
}

func (Borrow) TableName() string {
	return "borrows"
}

// IsOpen reports whether the copy has not been returned yet.
func (b Borrow) IsOpen() bool {
	return b.ReturnDate == nil
}
