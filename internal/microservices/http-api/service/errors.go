package service

import (
	"errors"
	"fmt"

	"libraryhub/internal/microservices/http-api/policy"

	"gorm.io/gorm"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = policy.ErrForbidden
	ErrUnauthenticated = policy.ErrUnauthenticated
)

// lending rules, reported to clients as 400 with a machine readable code
var (
	ErrNoCopiesAvailable    = errors.New("no copies available for this book")
	ErrAlreadyReturned      = errors.New("this book has already been returned")
	ErrNoActiveBorrow       = errors.New("no active borrow found for this book")
	ErrBookAvailable        = errors.New("book is available, no need to reserve")
	ErrDuplicateReservation = errors.New("you already have an active reservation for this book")
	ErrNoActiveReservation  = errors.New("no active reservation found")
	ErrCopiesAtCapacity     = errors.New("all copies of this book are already on the shelf")
	ErrMemberInactive       = errors.New("member account is inactive")
)

// auth
var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
)

var businessRules = []struct {
	err  error
	code string
}{
	{ErrNoCopiesAvailable, "no_copies_available"},
	{ErrAlreadyReturned, "already_returned"},
	{ErrNoActiveBorrow, "no_active_borrow"},
	{ErrBookAvailable, "book_available"},
	{ErrDuplicateReservation, "duplicate_reservation"},
	{ErrNoActiveReservation, "no_active_reservation"},
	{ErrCopiesAtCapacity, "copies_at_capacity"},
	{ErrMemberInactive, "member_inactive"},
}

// BusinessRuleCode reports the rule err violates, if any.
func BusinessRuleCode(err error) (string, bool) {
	for _, r := range businessRules {
		if errors.Is(err, r.err) {
			return r.code, true
		}
	}
	return "", false
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
