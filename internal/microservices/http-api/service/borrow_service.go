package service

import (
	"context"
	"strconv"

	"libraryhub/internal/microservices/http-api/metrics"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/policy"
	"libraryhub/internal/microservices/http-api/repository"

	"github.com/rs/zerolog"
)

// LendingRules are the loan length and the late fine per day.
type LendingRules struct {
	LoanPeriodDays int
	FinePerDay     int64
}

// DefaultLendingRules lends for two weeks at 10 per late day.
var DefaultLendingRules = LendingRules{LoanPeriodDays: 14, FinePerDay: 10}

// BorrowInput identifies what to lend. MemberID lets an admin lend on behalf
// of someone else; members always borrow for themselves.
type BorrowInput struct {
	BookID   int64
	MemberID *int64
}

// Assessment is the lateness of a borrow, as of its return date or today.
type Assessment struct {
	LateDays int
	Fine     int64
}

func (a Assessment) Late() bool { return a.LateDays > 0 }

// ReturnResult describes a completed return.
type ReturnResult struct {
	Borrow            models.Borrow
	Assessment        Assessment
	CurrentlyBorrowed []models.Borrow
}

type BorrowService interface {
	Borrow(ctx context.Context, actor policy.Subject, in BorrowInput) (*models.Borrow, error)
	ReturnByID(ctx context.Context, actor policy.Subject, borrowID int64) (*ReturnResult, error)
	ReturnByBook(ctx context.Context, actor policy.Subject, bookID int64) (*ReturnResult, error)
	Get(ctx context.Context, actor policy.Subject, id int64) (*models.Borrow, error)
	List(ctx context.Context, actor policy.Subject, page repository.Page) ([]models.Borrow, int64, error)
	ListByMember(ctx context.Context, actor policy.Subject, memberID int64, page repository.Page) ([]models.Borrow, int64, error)
	Overdue(ctx context.Context, actor policy.Subject, page repository.Page) ([]models.Borrow, int64, error)
	Assess(b models.Borrow) Assessment
}

type borrowService struct {
	tx      repository.Transactor
	borrows repository.BorrowRepository
	members repository.MemberRepository
	ledger  CopyLedger
	clock   Clock
	rules   LendingRules
	log     zerolog.Logger
}

func NewBorrowService(
	tx repository.Transactor,
	borrows repository.BorrowRepository,
	members repository.MemberRepository,
	ledger CopyLedger,
	clock Clock,
	rules LendingRules,
	log zerolog.Logger,
) BorrowService {
	return &borrowService{
		tx:      tx,
		borrows: borrows,
		members: members,
		ledger:  ledger,
		clock:   clock,
		rules:   rules,
		log:     log.With().Str("component", "borrow").Logger(),
	}
}

// Borrow lends one copy: the copy count drops and the borrow row appears in
// the same transaction, or neither happens.
func (s *borrowService) Borrow(ctx context.Context, actor policy.Subject, in BorrowInput) (*models.Borrow, error) {
	if err := policy.Authorize(actor, policy.Borrow, policy.Create, actor.MemberID); err != nil {
		return nil, err
	}
	memberID := actor.MemberID
	if in.MemberID != nil && *in.MemberID != actor.MemberID {
		if !actor.IsAdmin {
			return nil, ErrForbidden
		}
		memberID = *in.MemberID
	}
	if in.BookID <= 0 {
		return nil, validationf("book_id is required")
	}

	var borrow *models.Borrow
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		member, err := s.activeMember(ctx, memberID)
		if err != nil {
			return err
		}
		book, err := s.ledger.Decrement(ctx, in.BookID)
		if err != nil {
			return err
		}

		today := s.clock.Today()
		borrow = &models.Borrow{
			MemberID:   member.ID,
			BookID:     book.ID,
			BorrowDate: today,
			DueDate:    today.AddDate(0, 0, s.rules.LoanPeriodDays),
		}
		if err := s.borrows.Create(ctx, borrow); err != nil {
			return err
		}
		borrow.Member = member
		borrow.Book = book
		return nil
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}

	metrics.BorrowsTotal.Inc()
	s.log.Info().
		Int64("borrow_id", borrow.ID).
		Int64("member_id", borrow.MemberID).
		Int64("book_id", borrow.BookID).
		Time("due_date", borrow.DueDate).
		Msg("book borrowed")
	return borrow, nil
}

func (s *borrowService) ReturnByID(ctx context.Context, actor policy.Subject, borrowID int64) (*ReturnResult, error) {
	var result *ReturnResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.borrows.FindByID(ctx, borrowID)
		if isNotFound(err) {
			return notFoundf("borrow %d not found", borrowID)
		}
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.Borrow, policy.Return, b.MemberID); err != nil {
			return err
		}
		if !b.IsOpen() {
			return ErrAlreadyReturned
		}
		result, err = s.close(ctx, b)
		return err
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}
	s.logReturn(result)
	return result, nil
}

// ReturnByBook closes the caller's oldest open borrow of bookID.
func (s *borrowService) ReturnByBook(ctx context.Context, actor policy.Subject, bookID int64) (*ReturnResult, error) {
	if err := policy.Authorize(actor, policy.Borrow, policy.Return, actor.MemberID); err != nil {
		return nil, err
	}
	if bookID <= 0 {
		return nil, validationf("book_id is required")
	}

	var result *ReturnResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.borrows.FindOpenByMemberAndBook(ctx, actor.MemberID, bookID)
		if isNotFound(err) {
			return ErrNoActiveBorrow
		}
		if err != nil {
			return err
		}
		result, err = s.close(ctx, b)
		return err
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}
	s.logReturn(result)
	return result, nil
}

// close stamps the return date and puts the copy back on the shelf.
func (s *borrowService) close(ctx context.Context, b *models.Borrow) (*ReturnResult, error) {
	today := s.clock.Today()
	ok, err := s.borrows.MarkReturned(ctx, b.ID, today)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyReturned
	}
	book, err := s.ledger.Increment(ctx, b.BookID)
	if err != nil {
		return nil, err
	}
	b.ReturnDate = &today
	b.Book = book

	open, err := s.borrows.ListOpenByMember(ctx, b.MemberID)
	if err != nil {
		return nil, err
	}
	return &ReturnResult{
		Borrow:            *b,
		Assessment:        s.Assess(*b),
		CurrentlyBorrowed: open,
	}, nil
}

// Get hides borrows the caller may not read behind ErrNotFound.
func (s *borrowService) Get(ctx context.Context, actor policy.Subject, id int64) (*models.Borrow, error) {
	b, err := s.borrows.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, notFoundf("borrow %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.Borrow, policy.Read, b.MemberID); err != nil {
		return nil, notFoundf("borrow %d not found", id)
	}
	return b, nil
}

func (s *borrowService) List(ctx context.Context, actor policy.Subject, page repository.Page) ([]models.Borrow, int64, error) {
	scope := policy.ListScope(actor)
	if scope.Empty {
		return []models.Borrow{}, 0, nil
	}
	filter := repository.BorrowFilter{Page: page}
	if !scope.All {
		filter.MemberID = &scope.MemberID
	}
	return s.borrows.List(ctx, filter)
}

func (s *borrowService) ListByMember(ctx context.Context, actor policy.Subject, memberID int64, page repository.Page) ([]models.Borrow, int64, error) {
	if err := policy.Authorize(actor, policy.Borrow, policy.Read, memberID); err != nil {
		return nil, 0, err
	}
	return s.borrows.List(ctx, repository.BorrowFilter{MemberID: &memberID, Page: page})
}

// Overdue lists open borrows whose due date has passed.
func (s *borrowService) Overdue(ctx context.Context, actor policy.Subject, page repository.Page) ([]models.Borrow, int64, error) {
	if err := policy.Authorize(actor, policy.Borrow, policy.ListAll, 0); err != nil {
		return nil, 0, err
	}
	today := s.clock.Today()
	return s.borrows.List(ctx, repository.BorrowFilter{OverdueAsOf: &today, Page: page})
}

// Assess measures lateness against the return date, or today while the book
// is still out.
func (s *borrowService) Assess(b models.Borrow) Assessment {
	asOf := s.clock.Today()
	if b.ReturnDate != nil {
		asOf = *b.ReturnDate
	}
	late := max(0, DaysBetween(b.DueDate, asOf))
	return Assessment{LateDays: late, Fine: int64(late) * s.rules.FinePerDay}
}

func (s *borrowService) activeMember(ctx context.Context, id int64) (*models.Member, error) {
	m, err := s.members.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, validationf("member %d does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, ErrMemberInactive
	}
	return m, nil
}

func (s *borrowService) logReturn(r *ReturnResult) {
	metrics.ReturnsTotal.WithLabelValues(strconv.FormatBool(r.Assessment.Late())).Inc()
	if r.Assessment.Fine > 0 {
		metrics.FinesAssessedTotal.Add(float64(r.Assessment.Fine))
	}
	s.log.Info().
		Int64("borrow_id", r.Borrow.ID).
		Int64("member_id", r.Borrow.MemberID).
		Int64("book_id", r.Borrow.BookID).
		Int("late_days", r.Assessment.LateDays).
		Int64("fine", r.Assessment.Fine).
		Msg("book returned")
}

func (s *borrowService) rejected(err error) {
	if code, ok := BusinessRuleCode(err); ok {
		metrics.LifecycleRejectionsTotal.WithLabelValues(code).Inc()
		s.log.Debug().Str("reason", code).Msg("borrow request rejected")
	}
}
