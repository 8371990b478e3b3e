package dto

import "libraryhub/internal/microservices/http-api/models"

// AuthorRequest used for POST and PUT /authors
type AuthorRequest struct {
	FirstName string  `json:"first_name" binding:"required,max=100"`
	LastName  string  `json:"last_name" binding:"required,max=100"`
	Biography *string `json:"biography,omitempty"`
}

type AuthorResponse struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Biography *string `json:"biography,omitempty"`
}

// CategoryRequest used for POST and PUT /categories
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateBookRequest used for POST /books. available_copies defaults to total_copies.
type CreateBookRequest struct {
	Title           string  `json:"title" binding:"required,max=255"`
	ISBN            string  `json:"isbn" binding:"required,isbn"`
	AuthorIDs       []int64 `json:"author_ids" binding:"omitempty,dive,gt=0"`
	CategoryID      *int64  `json:"category_id,omitempty" binding:"omitempty,gt=0"`
	TotalCopies     int     `json:"total_copies" binding:"gte=0"`
	AvailableCopies *int    `json:"available_copies,omitempty" binding:"omitempty,gte=0"`
}

// UpdateBookRequest used for PUT/PATCH /books/:id (partial updates allowed).
// A category_id of 0 clears the category.
type UpdateBookRequest struct {
	Title           *string  `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	ISBN            *string  `json:"isbn,omitempty" binding:"omitempty,isbn"`
	AuthorIDs       *[]int64 `json:"author_ids,omitempty" binding:"omitempty,dive,gt=0"`
	CategoryID      *int64   `json:"category_id,omitempty" binding:"omitempty,gte=0"`
	TotalCopies     *int     `json:"total_copies,omitempty" binding:"omitempty,gte=0"`
	AvailableCopies *int     `json:"available_copies,omitempty" binding:"omitempty,gte=0"`
}

type BookResponse struct {
	ID              int64             `json:"id"`
	Title           string            `json:"title"`
	ISBN            string            `json:"isbn"`
	Authors         []AuthorResponse  `json:"authors"`
	Category        *CategoryResponse `json:"category"`
	TotalCopies     int               `json:"total_copies"`
	AvailableCopies int               `json:"available_copies"`
}

func FromAuthor(a models.Author) AuthorResponse {
	return AuthorResponse{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, Biography: a.Biography}
}

func FromCategory(c models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name}
}

func FromBook(b models.Book) BookResponse {
	resp := BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		ISBN:            b.ISBN,
		Authors:         make([]AuthorResponse, 0, len(b.Authors)),
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
	}
	for _, a := range b.Authors {
		resp.Authors = append(resp.Authors, FromAuthor(a))
	}
	if b.Category != nil {
		c := FromCategory(*b.Category)
		resp.Category = &c
	}
	return resp
}
