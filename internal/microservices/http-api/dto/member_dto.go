package dto

import "libraryhub/internal/microservices/http-api/models"

// CreateMemberRequest used for POST /members (admin)
type CreateMemberRequest struct {
	RegisterRequest
	IsAdmin  bool  `json:"is_admin"`
	IsActive *bool `json:"is_active,omitempty"`
}

// UpdateMemberRequest used for PUT/PATCH /members/:id and /members/me.
// email and membership_date are read-only.
type UpdateMemberRequest struct {
	FirstName   *string `json:"first_name,omitempty" binding:"omitempty,min=1,max=150"`
	LastName    *string `json:"last_name,omitempty" binding:"omitempty,min=1,max=150"`
	Address     *string `json:"address,omitempty" binding:"omitempty,max=500"`
	PhoneNumber *string `json:"phone_number,omitempty" binding:"omitempty,max=20"`
	Password    *string `json:"password,omitempty" binding:"omitempty,min=8,max=72"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsAdmin     *bool   `json:"is_admin,omitempty"`
}

type MemberResponse struct {
	ID             int64   `json:"id"`
	Email          string  `json:"email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	MembershipDate Date    `json:"membership_date"`
	Address        *string `json:"address,omitempty"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	IsActive       bool    `json:"is_active"`
	IsAdmin        bool    `json:"is_admin"`
}

func FromMember(m models.Member) MemberResponse {
	return MemberResponse{
		ID:             m.ID,
		Email:          m.Email,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		MembershipDate: Date(m.MembershipDate),
		Address:        m.Address,
		PhoneNumber:    m.PhoneNumber,
		IsActive:       m.IsActive,
		IsAdmin:        m.IsAdmin,
	}
}
