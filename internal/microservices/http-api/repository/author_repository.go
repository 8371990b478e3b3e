package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type AuthorRepository interface {
	Create(ctx context.Context, author *models.Author) error
	FindByID(ctx context.Context, id int64) (*models.Author, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Author, error)
	List(ctx context.Context, page Page) ([]models.Author, int64, error)
	Update(ctx context.Context, author *models.Author) error
	Delete(ctx context.Context, id int64) error
}

type authorRepository struct {
	db *gorm.DB
}

func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

func (r *authorRepository) Create(ctx context.Context, author *models.Author) error {
	if err := conn(ctx, r.db).Create(author).Error; err != nil {
		return fmt.Errorf("create author: %w", err)
	}
	return nil
}

func (r *authorRepository) FindByID(ctx context.Context, id int64) (*models.Author, error) {
	var a models.Author
	if err := conn(ctx, r.db).First(&a, id).Error; err != nil {
		return nil, fmt.Errorf("find author %d: %w", id, err)
	}
	return &a, nil
}

func (r *authorRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Author, error) {
	var list []models.Author
	if len(ids) == 0 {
		return list, nil
	}
	if err := conn(ctx, r.db).Where("id IN ?", ids).Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("find authors: %w", err)
	}
	return list, nil
}

func (r *authorRepository) List(ctx context.Context, page Page) ([]models.Author, int64, error) {
	var (
		list  []models.Author
		total int64
	)
	q := conn(ctx, r.db).Model(&models.Author{}).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count authors: %w", err)
	}
	if err := page.apply(q.Order("last_name ASC, first_name ASC, id ASC")).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	return list, total, nil
}

func (r *authorRepository) Update(ctx context.Context, author *models.Author) error {
	if err := conn(ctx, r.db).Save(author).Error; err != nil {
		return fmt.Errorf("update author: %w", err)
	}
	return nil
}

// Delete removes the author and its book links; the books stay.
func (r *authorRepository) Delete(ctx context.Context, id int64) error {
	db := conn(ctx, r.db)
	if err := db.Exec("DELETE FROM book_authors WHERE author_id = ?", id).Error; err != nil {
		return fmt.Errorf("unlink author: %w", err)
	}
	res := db.Delete(&models.Author{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete author: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete author %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
