package dto

import "libraryhub/internal/microservices/http-api/models"

// BorrowRequest: payload for POST /borrow and /borrows. member_id is honoured for admins only.
type BorrowRequest struct {
	BookID   int64  `json:"book_id" binding:"required,gt=0"`
	MemberID *int64 `json:"member_id,omitempty" binding:"omitempty,gt=0"`
}

// BookRefRequest: payload naming a book, for POST /return, /reserve and /cancel-reservation
type BookRefRequest struct {
	BookID int64 `json:"book_id" binding:"required,gt=0"`
}

type BorrowResponse struct {
	ID          int64         `json:"id"`
	MemberID    int64         `json:"member_id"`
	MemberEmail string        `json:"member_email,omitempty"`
	BookID      int64         `json:"book_id"`
	BookDetail  *BookResponse `json:"book_detail,omitempty"`
	BorrowDate  Date          `json:"borrow_date"`
	DueDate     Date          `json:"due_date"`
	ReturnDate  *Date         `json:"return_date"`
	Fine        int64         `json:"fine"`
}

// FromBorrow renders a borrow with its fine as of the return date, or today while open.
func FromBorrow(b models.Borrow, fine int64) BorrowResponse {
	resp := BorrowResponse{
		ID:         b.ID,
		MemberID:   b.MemberID,
		BookID:     b.BookID,
		BorrowDate: Date(b.BorrowDate),
		DueDate:    Date(b.DueDate),
		ReturnDate: DatePtr(b.ReturnDate),
		Fine:       fine,
	}
	if b.Member != nil {
		resp.MemberEmail = b.Member.Email
	}
	if b.Book != nil {
		book := FromBook(*b.Book)
		resp.BookDetail = &book
	}
	return resp
}

type ReturnedBook struct {
	Title      string `json:"title"`
	BorrowDate Date   `json:"borrow_date"`
	DueDate    Date   `json:"due_date"`
	ReturnDate Date   `json:"return_date"`
}

type BorrowedBook struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	BorrowDate Date   `json:"borrow_date"`
	DueDate    Date   `json:"due_date"`
}

// ReturnResponse: response for POST /return and /borrows/:id/return_book
type ReturnResponse struct {
	Message                string         `json:"message"`
	BookReturned           ReturnedBook   `json:"book_returned"`
	Late                   bool           `json:"late"`
	LateDays               int            `json:"late_days,omitempty"`
	Fine                   int64          `json:"fine,omitempty"`
	CurrentlyBorrowedBooks []BorrowedBook `json:"currently_borrowed_books"`
}

func bookTitle(b *models.Book) string {
	if b == nil {
		return ""
	}
	return b.Title
}

func NewReturnResponse(b models.Borrow, lateDays int, fine int64, open []models.Borrow) ReturnResponse {
	resp := ReturnResponse{
		Message: "Book returned successfully.",
		BookReturned: ReturnedBook{
			Title:      bookTitle(b.Book),
			BorrowDate: Date(b.BorrowDate),
			DueDate:    Date(b.DueDate),
		},
		Late:                   lateDays > 0,
		CurrentlyBorrowedBooks: make([]BorrowedBook, 0, len(open)),
	}
	if b.ReturnDate != nil {
		resp.BookReturned.ReturnDate = Date(*b.ReturnDate)
	}
	if resp.Late {
		resp.LateDays = lateDays
		resp.Fine = fine
	}
	for _, o := range open {
		resp.CurrentlyBorrowedBooks = append(resp.CurrentlyBorrowedBooks, BorrowedBook{
			ID:         o.ID,
			Title:      bookTitle(o.Book),
			BorrowDate: Date(o.BorrowDate),
			DueDate:    Date(o.DueDate),
		})
	}
	return resp
}
