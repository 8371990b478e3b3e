package service

import (
	"context"

	"libraryhub/internal/microservices/http-api/metrics"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
)

// CopyLedger is the only writer of Book.AvailableCopies. Each call locks the
// book row, checks the bound, then applies a guarded update, all inside the
// caller's transaction when ctx carries one.
type CopyLedger interface {
	// Decrement takes a copy off the shelf or fails with ErrNoCopiesAvailable.
	Decrement(ctx context.Context, bookID int64) (*models.Book, error)
	// Increment puts a copy back or fails with ErrCopiesAtCapacity.
	Increment(ctx context.Context, bookID int64) (*models.Book, error)
}

type copyLedger struct {
	tx    repository.Transactor
	books repository.BookRepository
}

func NewCopyLedger(tx repository.Transactor, books repository.BookRepository) CopyLedger {
	return &copyLedger{tx: tx, books: books}
}

func (l *copyLedger) Decrement(ctx context.Context, bookID int64) (*models.Book, error) {
	var book *models.Book
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := l.lock(ctx, bookID)
		if err != nil {
			return err
		}
		if b.AvailableCopies < 1 {
			return ErrNoCopiesAvailable
		}
		ok, err := l.books.DecrementAvailable(ctx, bookID)
		if err != nil {
			return err
		}
		if !ok {
			metrics.LedgerContentionTotal.WithLabelValues("decrement").Inc()
			return ErrNoCopiesAvailable
		}
		b.AvailableCopies--
		book = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (l *copyLedger) Increment(ctx context.Context, bookID int64) (*models.Book, error) {
	var book *models.Book
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := l.lock(ctx, bookID)
		if err != nil {
			return err
		}
		if b.AvailableCopies >= b.TotalCopies {
			return ErrCopiesAtCapacity
		}
		ok, err := l.books.IncrementAvailable(ctx, bookID)
		if err != nil {
			return err
		}
		if !ok {
			metrics.LedgerContentionTotal.WithLabelValues("increment").Inc()
			return ErrCopiesAtCapacity
		}
		b.AvailableCopies++
		book = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (l *copyLedger) lock(ctx context.Context, bookID int64) (*models.Book, error) {
	b, err := l.books.LockByID(ctx, bookID)
	if isNotFound(err) {
		return nil, validationf("book %d does not exist", bookID)
	}
	return b, err
}
