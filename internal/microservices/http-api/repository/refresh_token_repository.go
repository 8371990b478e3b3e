package repository

import (
	"context"
	"fmt"
	"time"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// RefreshTokenRepository handles database operations for refresh tokens
type RefreshTokenRepository interface {
	Create(ctx context.Context, refreshToken *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeAllForMember(ctx context.Context, memberID int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, refreshToken *models.RefreshToken) error {
	if err := conn(ctx, r.db).Create(refreshToken).Error; err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := conn(ctx, r.db).Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, tokenID string) error {
	if err := conn(ctx, r.db).Model(&models.RefreshToken{}).Where("id = ?", tokenID).Update("revoked", true).Error; err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForMember is used when a member is deactivated.
func (r *refreshTokenRepository) RevokeAllForMember(ctx context.Context, memberID int64) error {
	if err := conn(ctx, r.db).Model(&models.RefreshToken{}).
		Where("member_id = ? AND revoked = ?", memberID, false).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("revoke member refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens past their expiry and returns how many went.
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := conn(ctx, r.db).Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
