package service

import (
	"context"

	"libraryhub/internal/microservices/http-api/metrics"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/policy"
	"libraryhub/internal/microservices/http-api/repository"

	"github.com/rs/zerolog"
)

type ReservationService interface {
	Reserve(ctx context.Context, actor policy.Subject, bookID int64) (*models.Reservation, error)
	CancelByBook(ctx context.Context, actor policy.Subject, bookID int64) (*models.Reservation, error)
	CancelByID(ctx context.Context, actor policy.Subject, id int64) (*models.Reservation, error)
	Get(ctx context.Context, actor policy.Subject, id int64) (*models.Reservation, error)
	List(ctx context.Context, actor policy.Subject, activeOnly bool, page repository.Page) ([]models.Reservation, int64, error)
}

type reservationService struct {
	tx           repository.Transactor
	reservations repository.ReservationRepository
	members      repository.MemberRepository
	books        repository.BookRepository
	clock        Clock
	log          zerolog.Logger
}

func NewReservationService(
	tx repository.Transactor,
	reservations repository.ReservationRepository,
	members repository.MemberRepository,
	books repository.BookRepository,
	clock Clock,
	log zerolog.Logger,
) ReservationService {
	return &reservationService{
		tx:           tx,
		reservations: reservations,
		members:      members,
		books:        books,
		clock:        clock,
		log:          log.With().Str("component", "reservation").Logger(),
	}
}

// Reserve places a hold on a book with no copies on the shelf. The book row
// stays locked while eligibility is checked and the hold is written.
func (s *reservationService) Reserve(ctx context.Context, actor policy.Subject, bookID int64) (*models.Reservation, error) {
	if err := policy.Authorize(actor, policy.Reservation, policy.Create, actor.MemberID); err != nil {
		return nil, err
	}
	if bookID <= 0 {
		return nil, validationf("book_id is required")
	}

	var reservation *models.Reservation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		member, err := s.members.FindByID(ctx, actor.MemberID)
		if isNotFound(err) {
			return validationf("member %d does not exist", actor.MemberID)
		}
		if err != nil {
			return err
		}
		if !member.IsActive {
			return ErrMemberInactive
		}

		book, err := s.books.LockByID(ctx, bookID)
		if isNotFound(err) {
			return validationf("book %d does not exist", bookID)
		}
		if err != nil {
			return err
		}
		if book.AvailableCopies > 0 {
			return ErrBookAvailable
		}

		_, err = s.reservations.FindActiveByMemberAndBook(ctx, member.ID, book.ID)
		if err == nil {
			return ErrDuplicateReservation
		}
		if !isNotFound(err) {
			return err
		}

		reservation = &models.Reservation{
			MemberID:        member.ID,
			BookID:          book.ID,
			ReservationDate: s.clock.Today(),
			IsActive:        true,
		}
		if err := s.reservations.Create(ctx, reservation); err != nil {
			return err
		}
		reservation.Member = member
		reservation.Book = book
		return nil
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}

	metrics.ReservationsTotal.WithLabelValues("created").Inc()
	s.log.Info().
		Int64("reservation_id", reservation.ID).
		Int64("member_id", reservation.MemberID).
		Int64("book_id", reservation.BookID).
		Msg("book reserved")
	return reservation, nil
}

// CancelByBook cancels the caller's active hold on bookID.
func (s *reservationService) CancelByBook(ctx context.Context, actor policy.Subject, bookID int64) (*models.Reservation, error) {
	if err := policy.Authorize(actor, policy.Reservation, policy.Cancel, actor.MemberID); err != nil {
		return nil, err
	}
	if bookID <= 0 {
		return nil, validationf("book_id is required")
	}

	var reservation *models.Reservation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.reservations.FindActiveByMemberAndBook(ctx, actor.MemberID, bookID)
		if isNotFound(err) {
			return ErrNoActiveReservation
		}
		if err != nil {
			return err
		}
		reservation = r
		return s.deactivate(ctx, r)
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}
	s.logCancel(reservation)
	return reservation, nil
}

func (s *reservationService) CancelByID(ctx context.Context, actor policy.Subject, id int64) (*models.Reservation, error) {
	var reservation *models.Reservation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.reservations.FindByID(ctx, id)
		if isNotFound(err) {
			return notFoundf("reservation %d not found", id)
		}
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.Reservation, policy.Cancel, r.MemberID); err != nil {
			return err
		}
		if !r.IsActive {
			return ErrNoActiveReservation
		}
		reservation = r
		return s.deactivate(ctx, r)
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}
	s.logCancel(reservation)
	return reservation, nil
}

func (s *reservationService) deactivate(ctx context.Context, r *models.Reservation) error {
	ok, err := s.reservations.Deactivate(ctx, r.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoActiveReservation
	}
	r.IsActive = false
	return nil
}

func (s *reservationService) Get(ctx context.Context, actor policy.Subject, id int64) (*models.Reservation, error) {
	r, err := s.reservations.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, notFoundf("reservation %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.Reservation, policy.Read, r.MemberID); err != nil {
		return nil, notFoundf("reservation %d not found", id)
	}
	return r, nil
}

func (s *reservationService) List(ctx context.Context, actor policy.Subject, activeOnly bool, page repository.Page) ([]models.Reservation, int64, error) {
	scope := policy.ListScope(actor)
	if scope.Empty {
		return []models.Reservation{}, 0, nil
	}
	filter := repository.ReservationFilter{ActiveOnly: activeOnly, Page: page}
	if !scope.All {
		filter.MemberID = &scope.MemberID
	}
	return s.reservations.List(ctx, filter)
}

func (s *reservationService) logCancel(r *models.Reservation) {
	metrics.ReservationsTotal.WithLabelValues("cancelled").Inc()
	s.log.Info().
		Int64("reservation_id", r.ID).
		Int64("member_id", r.MemberID).
		Int64("book_id", r.BookID).
		Msg("reservation cancelled")
}

func (s *reservationService) rejected(err error) {
	if code, ok := BusinessRuleCode(err); ok {
		metrics.LifecycleRejectionsTotal.WithLabelValues(code).Inc()
		s.log.Debug().Str("reason", code).Msg("reservation request rejected")
	}
}
