package models

import "time"

type Author struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	FirstName string    `json:"first_name" gorm:"size:100;not null"`
	LastName  string    `json:"last_name" gorm:"size:100;not null"`
	Biography *string   `json:"biography,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Author) TableName() string {
	return "authors"
}

type Category struct {
	ID   int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"uniqueIndex;size:100;not null"`
}

func (Category) TableName() string {
	return "categories"
}

// Book is a catalog title. AvailableCopies is owned by the copy ledger and
// always satisfies 0 <= AvailableCopies <= TotalCopies.
type Book struct {
	ID              int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title           string    `json:"title" gorm:"size:255;not null;index"`
	ISBN            string    `json:"isbn" gorm:"column:isbn;size:13;not null;index"`
	CategoryID      *int64    `json:"category_id,omitempty" gorm:"index"`
	TotalCopies     int       `json:"total_copies" gorm:"not null;check:chk_books_total_copies,total_copies >= 0"`
	AvailableCopies int       `json:"available_copies" gorm:"not null;check:chk_books_available_copies,available_copies >= 0 AND available_copies <= total_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// associations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;"`
	Authors  []Author  `json:"authors,omitempty" gorm:"many2many:book_authors;constraint:OnDelete:CASCADE;"`
}

func (Book) TableName() string {
	return "books"
}

// OnLoan is the number of copies currently out with members.
func (b Book) OnLoan() int {
	return b.TotalCopies - b.AvailableCopies
}
