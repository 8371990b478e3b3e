// Package policy decides who may do what. It is a pure table lookup with no
// store access; callers pass the owner of the record when one is involved.
package policy

import "errors"

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
)

// Subject is the caller of a request. The zero value is an anonymous caller.
type Subject struct {
	MemberID int64
	Email    string
	IsAdmin  bool
}

// Anonymous is an unauthenticated caller.
var Anonymous = Subject{}

func (s Subject) Authenticated() bool {
	return s.MemberID > 0
}

type Resource string

const (
	Member      Resource = "member"
	Catalog     Resource = "catalog" // authors, categories, books
	Borrow      Resource = "borrow"
	Reservation Resource = "reservation"
)

type Action string

const (
	List    Action = "list"
	ListAll Action = "list_all" // every member's records, overdue report
	Read    Action = "read"
	Create  Action = "create"
	Update  Action = "update"
	Delete  Action = "delete"
	Return  Action = "return"
	Cancel  Action = "cancel"
)

// Rule is who an action is open to.
type Rule int

const (
	Deny Rule = iota
	Anyone
	Authenticated
	OwnerOrAdmin
	AdminOnly
)

type key struct {
	resource Resource
	action   Action
}

var rules = map[key]Rule{
	{Member, List}:   AdminOnly,
	{Member, Create}: AdminOnly,
	{Member, Delete}: AdminOnly,
	{Member, Read}:   OwnerOrAdmin,
	{Member, Update}: OwnerOrAdmin,

	{Catalog, List}:   Anyone,
	{Catalog, Read}:   Anyone,
	{Catalog, Create}: AdminOnly,
	{Catalog, Update}: AdminOnly,
	{Catalog, Delete}: AdminOnly,

	{Borrow, Create}:  Authenticated,
	{Borrow, List}:    Anyone, // narrowed by Scope
	{Borrow, ListAll}: AdminOnly,
	{Borrow, Read}:    OwnerOrAdmin,
	{Borrow, Return}:  OwnerOrAdmin,

	{Reservation, Create}:  Authenticated,
	{Reservation, List}:    Anyone,
	{Reservation, ListAll}: AdminOnly,
	{Reservation, Read}:    OwnerOrAdmin,
	{Reservation, Cancel}:  OwnerOrAdmin,
}

// RuleFor returns the rule for an action. Unknown pairs are denied.
func RuleFor(res Resource, act Action) Rule {
	return rules[key{res, act}]
}

// Authorize returns nil when sub may perform act on res. ownerID is the member
// owning the record and is only consulted for OwnerOrAdmin rules.
func Authorize(sub Subject, res Resource, act Action, ownerID int64) error {
	rule := RuleFor(res, act)
	if rule == Anyone {
		return nil
	}
	if rule == Deny {
		return ErrForbidden
	}
	if !sub.Authenticated() {
		return ErrUnauthenticated
	}

	switch rule {
	case Authenticated:
		return nil
	case OwnerOrAdmin:
		if sub.IsAdmin || (ownerID > 0 && ownerID == sub.MemberID) {
			return nil
		}
	case AdminOnly:
		if sub.IsAdmin {
			return nil
		}
	}
	return ErrForbidden
}

// Scope is the set of records a listing may return.
type Scope struct {
	All      bool  // every member's records
	MemberID int64 // only this member's records, when All is false
	Empty    bool  // nothing at all
}

// ListScope narrows an owner-scoped listing: admins see everything, members
// see their own records, anonymous callers get an empty result.
func ListScope(sub Subject) Scope {
	switch {
	case !sub.Authenticated():
		return Scope{Empty: true}
	case sub.IsAdmin:
		return Scope{All: true}
	default:
		return Scope{MemberID: sub.MemberID}
	}
}
