package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id int64) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := conn(ctx, r.db).Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	if err := conn(ctx, r.db).First(&c, id).Error; err != nil {
		return nil, fmt.Errorf("find category %d: %w", id, err)
	}
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var list []models.Category
	if err := conn(ctx, r.db).Order("name ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	if err := conn(ctx, r.db).Save(category).Error; err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes the category and leaves its books uncategorised.
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	db := conn(ctx, r.db)
	if err := db.Model(&models.Book{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
		return fmt.Errorf("detach category: %w", err)
	}
	res := db.Delete(&models.Category{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete category %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
