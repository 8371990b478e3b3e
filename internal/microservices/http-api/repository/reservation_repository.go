package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type ReservationFilter struct {
	MemberID   *int64
	ActiveOnly bool
	Page
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	FindByID(ctx context.Context, id int64) (*models.Reservation, error)
	FindActiveByMemberAndBook(ctx context.Context, memberID, bookID int64) (*models.Reservation, error)
	Deactivate(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, int64, error)
	CountByBook(ctx context.Context, bookID int64) (int64, error)
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	if err := conn(ctx, r.db).Omit("Member", "Book").Create(reservation).Error; err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id int64) (*models.Reservation, error) {
	var res models.Reservation
	if err := withDetails(conn(ctx, r.db)).First(&res, id).Error; err != nil {
		return nil, fmt.Errorf("find reservation %d: %w", id, err)
	}
	return &res, nil
}

func (r *reservationRepository) FindActiveByMemberAndBook(ctx context.Context, memberID, bookID int64) (*models.Reservation, error) {
	var res models.Reservation
	if err := withDetails(conn(ctx, r.db)).
		Where("member_id = ? AND book_id = ? AND is_active = ?", memberID, bookID, true).
		Order("id ASC").
		First(&res).Error; err != nil {
		return nil, fmt.Errorf("find active reservation: %w", err)
	}
	return &res, nil
}

// Deactivate cancels an active reservation. It reports false when the
// reservation was already inactive.
func (r *reservationRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Reservation{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return false, fmt.Errorf("cancel reservation: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *reservationRepository) List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, int64, error) {
	var (
		list  []models.Reservation
		total int64
	)
	q := conn(ctx, r.db).Model(&models.Reservation{})
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}
	if err := withDetails(filter.Page.apply(q.Order("reservation_date DESC, id DESC"))).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	return list, total, nil
}

func (r *reservationRepository) CountByBook(ctx context.Context, bookID int64) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&models.Reservation{}).Where("book_id = ?", bookID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count reservations for book: %w", err)
	}
	return n, nil
}
