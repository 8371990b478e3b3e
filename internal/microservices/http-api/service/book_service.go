package service

import (
	"context"
	"strings"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/policy"
	"libraryhub/internal/microservices/http-api/repository"

	"github.com/rs/zerolog"
)

// BookInput creates a book. AvailableCopies defaults to TotalCopies.
type BookInput struct {
	Title           string
	ISBN            string
	CategoryID      *int64
	AuthorIDs       []int64
	TotalCopies     int
	AvailableCopies *int
}

// BookPatch is a partial update; nil fields are left alone.
type BookPatch struct {
	Title           *string
	ISBN            *string
	CategoryID      *int64
	ClearCategory   bool
	AuthorIDs       *[]int64
	TotalCopies     *int
	AvailableCopies *int
}

type BookService interface {
	List(ctx context.Context, filter repository.BookFilter) ([]models.Book, int64, error)
	Get(ctx context.Context, id int64) (*models.Book, error)
	Create(ctx context.Context, actor policy.Subject, in BookInput) (*models.Book, error)
	Update(ctx context.Context, actor policy.Subject, id int64, in BookPatch) (*models.Book, error)
	Delete(ctx context.Context, actor policy.Subject, id int64) error
}

type bookService struct {
	tx           repository.Transactor
	books        repository.BookRepository
	authors      repository.AuthorRepository
	categories   repository.CategoryRepository
	borrows      repository.BorrowRepository
	reservations repository.ReservationRepository
	log          zerolog.Logger
}

func NewBookService(
	tx repository.Transactor,
	books repository.BookRepository,
	authors repository.AuthorRepository,
	categories repository.CategoryRepository,
	borrows repository.BorrowRepository,
	reservations repository.ReservationRepository,
	log zerolog.Logger,
) BookService {
	return &bookService{
		tx:           tx,
		books:        books,
		authors:      authors,
		categories:   categories,
		borrows:      borrows,
		reservations: reservations,
		log:          log.With().Str("component", "catalog").Logger(),
	}
}

func (s *bookService) List(ctx context.Context, filter repository.BookFilter) ([]models.Book, int64, error) {
	if !repository.ValidBookOrdering(filter.Ordering) {
		return nil, 0, validationf("ordering must be one of title, -title, available_copies, -available_copies")
	}
	return s.books.List(ctx, filter)
}

func (s *bookService) Get(ctx context.Context, id int64) (*models.Book, error) {
	b, err := s.books.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, notFoundf("book %d not found", id)
	}
	return b, err
}

func (s *bookService) Create(ctx context.Context, actor policy.Subject, in BookInput) (*models.Book, error) {
	if err := policy.Authorize(actor, policy.Catalog, policy.Create, 0); err != nil {
		return nil, err
	}
	available := in.TotalCopies
	if in.AvailableCopies != nil {
		available = *in.AvailableCopies
	}
	if err := checkCopies(in.TotalCopies, available, 0); err != nil {
		return nil, err
	}

	book := &models.Book{
		Title:           strings.TrimSpace(in.Title),
		ISBN:            strings.TrimSpace(in.ISBN),
		CategoryID:      in.CategoryID,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: available,
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkCategory(ctx, in.CategoryID); err != nil {
			return err
		}
		authors, err := s.lookupAuthors(ctx, in.AuthorIDs)
		if err != nil {
			return err
		}
		book.Authors = authors
		return s.books.Create(ctx, book)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("book_id", book.ID).Int("total_copies", book.TotalCopies).Msg("book added")
	return s.Get(ctx, book.ID)
}

// Update edits a book. Changing total_copies keeps the copies on loan out and
// moves available_copies by the same amount unless it is given explicitly.
func (s *bookService) Update(ctx context.Context, actor policy.Subject, id int64, in BookPatch) (*models.Book, error) {
	if err := policy.Authorize(actor, policy.Catalog, policy.Update, 0); err != nil {
		return nil, err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		book, err := s.books.LockByID(ctx, id)
		if isNotFound(err) {
			return notFoundf("book %d not found", id)
		}
		if err != nil {
			return err
		}

		if in.Title != nil {
			book.Title = strings.TrimSpace(*in.Title)
		}
		if in.ISBN != nil {
			book.ISBN = strings.TrimSpace(*in.ISBN)
		}
		if in.ClearCategory {
			book.CategoryID = nil
		} else if in.CategoryID != nil {
			if err := s.checkCategory(ctx, in.CategoryID); err != nil {
				return err
			}
			book.CategoryID = in.CategoryID
		}

		if in.TotalCopies != nil || in.AvailableCopies != nil {
			onLoan, err := s.borrows.CountOpenByBook(ctx, id)
			if err != nil {
				return err
			}
			total := book.TotalCopies
			if in.TotalCopies != nil {
				total = *in.TotalCopies
			}
			available := total - int(onLoan)
			if in.AvailableCopies != nil {
				available = *in.AvailableCopies
			}
			if err := checkCopies(total, available, int(onLoan)); err != nil {
				return err
			}
			book.TotalCopies = total
			book.AvailableCopies = available
		}

		if err := s.books.Update(ctx, book); err != nil {
			return err
		}
		if in.AuthorIDs != nil {
			authors, err := s.lookupAuthors(ctx, *in.AuthorIDs)
			if err != nil {
				return err
			}
			if err := s.books.ReplaceAuthors(ctx, book, authors); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete refuses books with any lending history so past records stay intact.
func (s *bookService) Delete(ctx context.Context, actor policy.Subject, id int64) error {
	if err := policy.Authorize(actor, policy.Catalog, policy.Delete, 0); err != nil {
		return err
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.books.LockByID(ctx, id); err != nil {
			if isNotFound(err) {
				return notFoundf("book %d not found", id)
			}
			return err
		}
		borrowed, err := s.borrows.CountByBook(ctx, id)
		if err != nil {
			return err
		}
		reserved, err := s.reservations.CountByBook(ctx, id)
		if err != nil {
			return err
		}
		if borrowed+reserved > 0 {
			return conflictf("book %d has borrow or reservation history and cannot be deleted", id)
		}
		return s.books.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info().Int64("book_id", id).Msg("book deleted")
	return nil
}

// checkCopies enforces 0 <= available <= total - onLoan.
func checkCopies(total, available, onLoan int) error {
	switch {
	case total < 0:
		return validationf("total_copies must not be negative")
	case available < 0:
		return validationf("available_copies must not be negative")
	case available > total:
		return validationf("available_copies cannot exceed total_copies")
	case total-available < onLoan:
		return validationf("%d copies are on loan; total_copies minus available_copies must be at least that", onLoan)
	}
	return nil
}

func (s *bookService) checkCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *id); err != nil {
		if isNotFound(err) {
			return validationf("category %d does not exist", *id)
		}
		return err
	}
	return nil
}

func (s *bookService) lookupAuthors(ctx context.Context, ids []int64) ([]models.Author, error) {
	ids = dedupe(ids)
	authors, err := s.authors.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(authors) != len(ids) {
		return nil, validationf("one or more author_ids do not exist")
	}
	return authors, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
