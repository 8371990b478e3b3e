package service

import (
	"context"
	"strings"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/policy"
	"libraryhub/internal/microservices/http-api/repository"
)

type AuthorInput struct {
	FirstName string
	LastName  string
	Biography *string
}

type AuthorService interface {
	List(ctx context.Context, page repository.Page) ([]models.Author, int64, error)
	Get(ctx context.Context, id int64) (*models.Author, error)
	Create(ctx context.Context, actor policy.Subject, in AuthorInput) (*models.Author, error)
	Update(ctx context.Context, actor policy.Subject, id int64, in AuthorInput) (*models.Author, error)
	Delete(ctx context.Context, actor policy.Subject, id int64) error
}

type authorService struct {
	tx      repository.Transactor
	authors repository.AuthorRepository
}

func NewAuthorService(tx repository.Transactor, authors repository.AuthorRepository) AuthorService {
	return &authorService{tx: tx, authors: authors}
}

func (s *authorService) List(ctx context.Context, page repository.Page) ([]models.Author, int64, error) {
	return s.authors.List(ctx, page)
}

func (s *authorService) Get(ctx context.Context, id int64) (*models.Author, error) {
	a, err := s.authors.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, notFoundf("author %d not found", id)
	}
	return a, err
}

func (s *authorService) Create(ctx context.Context, actor policy.Subject, in AuthorInput) (*models.Author, error) {
	if err := policy.Authorize(actor, policy.Catalog, policy.Create, 0); err != nil {
		return nil, err
	}
	a := &models.Author{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Biography: in.Biography,
	}
	if err := s.authors.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *authorService) Update(ctx context.Context, actor policy.Subject, id int64, in AuthorInput) (*models.Author, error) {
	if err := policy.Authorize(actor, policy.Catalog, policy.Update, 0); err != nil {
		return nil, err
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.FirstName = strings.TrimSpace(in.FirstName)
	a.LastName = strings.TrimSpace(in.LastName)
	a.Biography = in.Biography
	if err := s.authors.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes the author; their books remain in the catalog.
func (s *authorService) Delete(ctx context.Context, actor policy.Subject, id int64) error {
	if err := policy.Authorize(actor, policy.Catalog, policy.Delete, 0); err != nil {
		return err
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.authors.Delete(ctx, id)
	})
	if err != nil {
		if isNotFound(err) {
			return notFoundf("author %d not found", id)
		}
		return err
	}
	return nil
}
