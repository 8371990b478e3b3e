package dto

// Dates are YYYY-MM-DD strings; the CLI only prints them.

type BookRefRequest struct {
	BookID int64 `json:"book_id"`
}

type BorrowRequest struct {
	BookID   int64  `json:"book_id"`
	MemberID *int64 `json:"member_id,omitempty"`
}

type Borrow struct {
	ID          int64   `json:"id"`
	MemberID    int64   `json:"member_id"`
	MemberEmail string  `json:"member_email"`
	BookID      int64   `json:"book_id"`
	BookDetail  *Book   `json:"book_detail"`
	BorrowDate  string  `json:"borrow_date"`
	DueDate     string  `json:"due_date"`
	ReturnDate  *string `json:"return_date"`
	Fine        int64   `json:"fine"`
}

type ReturnedBook struct {
	Title      string `json:"title"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date"`
}

type BorrowedBook struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
}

type ReturnResponse struct {
	Message                string         `json:"message"`
	BookReturned           ReturnedBook   `json:"book_returned"`
	Late                   bool           `json:"late"`
	LateDays               int            `json:"late_days"`
	Fine                   int64          `json:"fine"`
	CurrentlyBorrowedBooks []BorrowedBook `json:"currently_borrowed_books"`
}

type Reservation struct {
	ID              int64  `json:"id"`
	MemberID        int64  `json:"member_id"`
	MemberEmail     string `json:"member_email"`
	BookID          int64  `json:"book_id"`
	BookTitle       string `json:"book_title"`
	ReservationDate string `json:"reservation_date"`
	IsActive        bool   `json:"is_active"`
}
