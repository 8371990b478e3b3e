package service

import (
	"context"
	"strings"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/policy"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/middleware/auth"

	"github.com/rs/zerolog"
)

// CreateMemberInput is an admin-created account.
type CreateMemberInput struct {
	RegisterInput
	IsAdmin  bool
	IsActive *bool
}

// UpdateMemberInput is a partial profile update; nil fields are left alone.
// IsActive and IsAdmin are only honoured for admins.
type UpdateMemberInput struct {
	FirstName   *string
	LastName    *string
	Address     *string
	PhoneNumber *string
	Password    *string
	IsActive    *bool
	IsAdmin     *bool
}

type MemberService interface {
	List(ctx context.Context, actor policy.Subject, page repository.Page) ([]models.Member, int64, error)
	Create(ctx context.Context, actor policy.Subject, in CreateMemberInput) (*models.Member, error)
	Get(ctx context.Context, actor policy.Subject, id int64) (*models.Member, error)
	Update(ctx context.Context, actor policy.Subject, id int64, in UpdateMemberInput) (*models.Member, error)
	Delete(ctx context.Context, actor policy.Subject, id int64) error
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type memberService struct {
	tx            repository.Transactor
	members       repository.MemberRepository
	refreshTokens repository.RefreshTokenRepository
	clock         Clock
	log           zerolog.Logger
}

func NewMemberService(
	tx repository.Transactor,
	members repository.MemberRepository,
	refreshTokens repository.RefreshTokenRepository,
	clock Clock,
	log zerolog.Logger,
) MemberService {
	return &memberService{
		tx:            tx,
		members:       members,
		refreshTokens: refreshTokens,
		clock:         clock,
		log:           log.With().Str("component", "member").Logger(),
	}
}

func (s *memberService) List(ctx context.Context, actor policy.Subject, page repository.Page) ([]models.Member, int64, error) {
	if err := policy.Authorize(actor, policy.Member, policy.List, 0); err != nil {
		return nil, 0, err
	}
	return s.members.List(ctx, page)
}

func (s *memberService) Create(ctx context.Context, actor policy.Subject, in CreateMemberInput) (*models.Member, error) {
	if err := policy.Authorize(actor, policy.Member, policy.Create, 0); err != nil {
		return nil, err
	}
	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	member := &models.Member{
		Email:          normalizeEmail(in.Email),
		Password:       hashed,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		MembershipDate: s.clock.Today(),
		Address:        in.Address,
		PhoneNumber:    in.PhoneNumber,
		IsActive:       active,
		IsAdmin:        in.IsAdmin,
	}
	if err := s.members.Create(ctx, member); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	s.log.Info().Int64("member_id", member.ID).Int64("by", actor.MemberID).Bool("admin", member.IsAdmin).Msg("member created")
	return member, nil
}

func (s *memberService) Get(ctx context.Context, actor policy.Subject, id int64) (*models.Member, error) {
	if err := policy.Authorize(actor, policy.Member, policy.Read, id); err != nil {
		return nil, err
	}
	m, err := s.members.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, notFoundf("member %d not found", id)
	}
	return m, err
}

// Update applies a profile change. Email and membership date are fixed.
func (s *memberService) Update(ctx context.Context, actor policy.Subject, id int64, in UpdateMemberInput) (*models.Member, error) {
	if err := policy.Authorize(actor, policy.Member, policy.Update, id); err != nil {
		return nil, err
	}

	var member *models.Member
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.members.FindByID(ctx, id)
		if isNotFound(err) {
			return notFoundf("member %d not found", id)
		}
		if err != nil {
			return err
		}

		if in.FirstName != nil {
			m.FirstName = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			m.LastName = strings.TrimSpace(*in.LastName)
		}
		if in.Address != nil {
			m.Address = in.Address
		}
		if in.PhoneNumber != nil {
			m.PhoneNumber = in.PhoneNumber
		}
		if in.Password != nil {
			hashed, err := auth.HashPassword(*in.Password)
			if err != nil {
				return err
			}
			m.Password = hashed
		}
		// silently ignored for non-admins
		if actor.IsAdmin {
			if in.IsActive != nil {
				if !*in.IsActive && m.ID == actor.MemberID {
					return validationf("administrators cannot deactivate their own account")
				}
				m.IsActive = *in.IsActive
			}
			if in.IsAdmin != nil {
				if !*in.IsAdmin && m.ID == actor.MemberID {
					return validationf("administrators cannot revoke their own admin rights")
				}
				m.IsAdmin = *in.IsAdmin
			}
		}

		if err := s.members.Update(ctx, m); err != nil {
			return err
		}
		if !m.IsActive {
			if err := s.refreshTokens.RevokeAllForMember(ctx, m.ID); err != nil {
				return err
			}
		}
		member = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Delete deactivates and soft deletes a member and revokes their sessions.
func (s *memberService) Delete(ctx context.Context, actor policy.Subject, id int64) error {
	if err := policy.Authorize(actor, policy.Member, policy.Delete, id); err != nil {
		return err
	}
	if id == actor.MemberID {
		return validationf("administrators cannot delete their own account")
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.members.Deactivate(ctx, id); err != nil {
			if isNotFound(err) {
				return notFoundf("member %d not found", id)
			}
			return err
		}
		return s.refreshTokens.RevokeAllForMember(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info().Int64("member_id", id).Int64("by", actor.MemberID).Msg("member deactivated")
	return nil
}

// EnsureAdmin creates an administrator with the given credentials unless a
// member with that email already exists. It reports whether one was created.
func (s *memberService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if _, err := s.members.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !isNotFound(err) {
		return false, err
	}
	if len(password) < auth.MinPasswordLength {
		return false, validationf("bootstrap admin password must be at least %d characters", auth.MinPasswordLength)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &models.Member{
		Email:          email,
		Password:       hashed,
		FirstName:      "Library",
		LastName:       "Administrator",
		MembershipDate: s.clock.Today(),
		IsActive:       true,
		IsAdmin:        true,
	}
	if err := s.members.Create(ctx, admin); err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	s.log.Info().Int64("member_id", admin.ID).Msg("bootstrap administrator created")
	return true, nil
}
