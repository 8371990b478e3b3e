package service

import (
	"context"
	"strings"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/policy"
	"libraryhub/internal/microservices/http-api/repository"
)

type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, actor policy.Subject, name string) (*models.Category, error)
	Update(ctx context.Context, actor policy.Subject, id int64, name string) (*models.Category, error)
	Delete(ctx context.Context, actor policy.Subject, id int64) error
}

type categoryService struct {
	tx         repository.Transactor
	categories repository.CategoryRepository
}

func NewCategoryService(tx repository.Transactor, categories repository.CategoryRepository) CategoryService {
	return &categoryService{tx: tx, categories: categories}
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

func (s *categoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, notFoundf("category %d not found", id)
	}
	return c, err
}

func (s *categoryService) Create(ctx context.Context, actor policy.Subject, name string) (*models.Category, error) {
	if err := policy.Authorize(actor, policy.Catalog, policy.Create, 0); err != nil {
		return nil, err
	}
	c := &models.Category{Name: strings.TrimSpace(name)}
	if err := s.categories.Create(ctx, c); err != nil {
		if isDuplicate(err) {
			return nil, conflictf("category %q already exists", c.Name)
		}
		return nil, err
	}
	return c, nil
}

func (s *categoryService) Update(ctx context.Context, actor policy.Subject, id int64, name string) (*models.Category, error) {
	if err := policy.Authorize(actor, policy.Catalog, policy.Update, 0); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(name)
	if err := s.categories.Update(ctx, c); err != nil {
		if isDuplicate(err) {
			return nil, conflictf("category %q already exists", c.Name)
		}
		return nil, err
	}
	return c, nil
}

// Delete removes the category; its books become uncategorised.
func (s *categoryService) Delete(ctx context.Context, actor policy.Subject, id int64) error {
	if err := policy.Authorize(actor, policy.Catalog, policy.Delete, 0); err != nil {
		return err
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.categories.Delete(ctx, id)
	})
	if err != nil {
		if isNotFound(err) {
			return notFoundf("category %d not found", id)
		}
		return err
	}
	return nil
}
