package dto

import "libraryhub/internal/microservices/http-api/models"

type ReservationResponse struct {
	ID              int64  `json:"id"`
	MemberID        int64  `json:"member_id"`
	MemberEmail     string `json:"member_email,omitempty"`
	BookID          int64  `json:"book_id"`
	BookTitle       string `json:"book_title,omitempty"`
	ReservationDate Date   `json:"reservation_date"`
	IsActive        bool   `json:"is_active"`
}

func FromReservation(r models.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:              r.ID,
		MemberID:        r.MemberID,
		BookID:          r.BookID,
		ReservationDate: Date(r.ReservationDate),
		IsActive:        r.IsActive,
	}
	if r.Member != nil {
		resp.MemberEmail = r.Member.Email
	}
	resp.BookTitle = bookTitle(r.Book)
	return resp
}
