package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// MemberRepository defines data access for members.
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, id int64) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	List(ctx context.Context, page Page) ([]models.Member, int64, error)
	Update(ctx context.Context, member *models.Member) error
	Deactivate(ctx context.Context, id int64) error
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	if err := conn(ctx, r.db).Create(member).Error; err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (r *memberRepository) FindByID(ctx context.Context, id int64) (*models.Member, error) {
	var m models.Member
	if err := conn(ctx, r.db).First(&m, id).Error; err != nil {
		// nil rather than a zero-value member so callers never mistake it for a hit
		return nil, fmt.Errorf("find member %d: %w", id, err)
	}
	return &m, nil
}

func (r *memberRepository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	var m models.Member
	if err := conn(ctx, r.db).Where("LOWER(email) = LOWER(?)", email).First(&m).Error; err != nil {
		return nil, fmt.Errorf("find member by email: %w", err)
	}
	return &m, nil
}

func (r *memberRepository) List(ctx context.Context, page Page) ([]models.Member, int64, error) {
	var (
		list  []models.Member
		total int64
	)
	q := conn(ctx, r.db).Model(&models.Member{}).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}
	if err := page.apply(q.Order("id ASC")).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	return list, total, nil
}

func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	if err := conn(ctx, r.db).Save(member).Error; err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return nil
}

// Deactivate clears is_active and soft deletes the row. Borrow and
// reservation history keeps pointing at it.
func (r *memberRepository) Deactivate(ctx context.Context, id int64) error {
	db := conn(ctx, r.db)
	res := db.Model(&models.Member{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivate member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("deactivate member %d: %w", id, gorm.ErrRecordNotFound)
	}
	if err := db.Delete(&models.Member{}, id).Error; err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}
