package repository

import (
	"context"
	"fmt"
	"time"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// BorrowFilter narrows a borrow listing. A nil MemberID lists every member.
type BorrowFilter struct {
	MemberID    *int64
	OpenOnly    bool
	OverdueAsOf *time.Time // open borrows with due_date strictly before this date
	Page
}

type BorrowRepository interface {
	Create(ctx context.Context, borrow *models.Borrow) error
	FindByID(ctx context.Context, id int64) (*models.Borrow, error)
	FindOpenByMemberAndBook(ctx context.Context, memberID, bookID int64) (*models.Borrow, error)
	MarkReturned(ctx context.Context, id int64, returnDate time.Time) (bool, error)
	ListOpenByMember(ctx context.Context, memberID int64) ([]models.Borrow, error)
	List(ctx context.Context, filter BorrowFilter) ([]models.Borrow, int64, error)
	CountByBook(ctx context.Context, bookID int64) (int64, error)
	CountOpenByBook(ctx context.Context, bookID int64) (int64, error)
}

type borrowRepository struct {
	db *gorm.DB
}

func NewBorrowRepository(db *gorm.DB) BorrowRepository {
	return &borrowRepository{db: db}
}

// withDetails preloads the book and the member, including deactivated members.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Book").
		Preload("Member", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

func (r *borrowRepository) Create(ctx context.Context, borrow *models.Borrow) error {
	if err := conn(ctx, r.db).Omit("Member", "Book").Create(borrow).Error; err != nil {
		return fmt.Errorf("create borrow: %w", err)
	}
	return nil
}

func (r *borrowRepository) FindByID(ctx context.Context, id int64) (*models.Borrow, error) {
	var b models.Borrow
	if err := withDetails(conn(ctx, r.db)).First(&b, id).Error; err != nil {
		return nil, fmt.Errorf("find borrow %d: %w", id, err)
	}
	return &b, nil
}

// FindOpenByMemberAndBook returns the oldest open borrow for the pair.
func (r *borrowRepository) FindOpenByMemberAndBook(ctx context.Context, memberID, bookID int64) (*models.Borrow, error) {
	var b models.Borrow
	if err := withDetails(conn(ctx, r.db)).
		Where("member_id = ? AND book_id = ? AND return_date IS NULL", memberID, bookID).
		Order("borrow_date ASC, id ASC").
		First(&b).Error; err != nil {
		return nil, fmt.Errorf("find open borrow: %w", err)
	}
	return &b, nil
}

// MarkReturned closes an open borrow. It reports false when the borrow was
// already closed.
func (r *borrowRepository) MarkReturned(ctx context.Context, id int64, returnDate time.Time) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Borrow{}).
		Where("id = ? AND return_date IS NULL", id).
		Update("return_date", returnDate)
	if res.Error != nil {
		return false, fmt.Errorf("mark borrow returned: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *borrowRepository) ListOpenByMember(ctx context.Context, memberID int64) ([]models.Borrow, error) {
	var list []models.Borrow
	if err := conn(ctx, r.db).
		Preload("Book").
		Where("member_id = ? AND return_date IS NULL", memberID).
		Order("due_date ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list open borrows: %w", err)
	}
	return list, nil
}

func (r *borrowRepository) List(ctx context.Context, filter BorrowFilter) ([]models.Borrow, int64, error) {
	var (
		list  []models.Borrow
		total int64
	)
	q := conn(ctx, r.db).Model(&models.Borrow{})
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	if filter.OpenOnly || filter.OverdueAsOf != nil {
		q = q.Where("return_date IS NULL")
	}
	if filter.OverdueAsOf != nil {
		q = q.Where("due_date < ?", *filter.OverdueAsOf)
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count borrows: %w", err)
	}
	order := "borrow_date DESC, id DESC"
	if filter.OverdueAsOf != nil {
		order = "due_date ASC, id ASC"
	}
	if err := withDetails(filter.Page.apply(q.Order(order))).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list borrows: %w", err)
	}
	return list, total, nil
}

func (r *borrowRepository) CountByBook(ctx context.Context, bookID int64) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&models.Borrow{}).Where("book_id = ?", bookID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count borrows for book: %w", err)
	}
	return n, nil
}

// CountOpenByBook is the number of copies of bookID currently out.
func (r *borrowRepository) CountOpenByBook(ctx context.Context, bookID int64) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&models.Borrow{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count open borrows for book: %w", err)
	}
	return n, nil
}
