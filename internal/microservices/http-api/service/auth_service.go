package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"libraryhub/internal/config"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Claims is the payload of an access token.
type Claims struct {
	MemberID int64  `json:"member_id"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime in seconds
}

type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Address     *string
	PhoneNumber *string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.Member, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *models.Member, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	members          repository.MemberRepository
	refreshTokenRepo repository.RefreshTokenRepository
	clock            Clock
	jwtSecret        []byte
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
	log              zerolog.Logger
}

func NewAuthService(
	members repository.MemberRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	clock Clock,
	cfg *config.Config,
	log zerolog.Logger,
) AuthService {
	return &authService{
		members:          members,
		refreshTokenRepo: refreshTokenRepo,
		clock:            clock,
		jwtSecret:        []byte(cfg.JWTSecret),
		accessTokenTTL:   cfg.AccessTokenTTL,
		refreshTokenTTL:  cfg.RefreshTokenTTL,
		log:              log.With().Str("component", "auth").Logger(),
	}
}

// Register creates an active, non-admin member.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.Member, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.members.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !isNotFound(err) {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	member := &models.Member{
		Email:          email,
		Password:       hashedPassword,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		MembershipDate: s.clock.Today(),
		Address:        in.Address,
		PhoneNumber:    in.PhoneNumber,
		IsActive:       true,
	}
	if err := s.members.Create(ctx, member); err != nil {
		// lost a race with a concurrent registration
		if isDuplicate(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	s.log.Info().Int64("member_id", member.ID).Msg("member registered")
	return member, nil
}

// Login authenticates a member and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, *models.Member, error) {
	member, err := s.members.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !isNotFound(err) {
			return nil, nil, err
		}
		// compare against a dummy hash so unknown emails take as long as bad passwords
		auth.VerifyPassword("$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e", password)
		return nil, nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(member.Password, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !member.IsActive {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, member)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().Int64("member_id", member.ID).Msg("member logged in")
	return pair, member, nil
}

// Refresh rotates a refresh token: the old one is revoked and a new pair issued.
func (s *authService) Refresh(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	rt, err := s.refreshTokenRepo.FindByToken(ctx, refreshTokenString)
	if isNotFound(err) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if rt.Revoked {
		return nil, ErrInvalidToken
	}
	if s.clock.Now().After(rt.ExpiresAt) {
		if err := s.refreshTokenRepo.Revoke(ctx, rt.ID); err != nil {
			s.log.Warn().Err(err).Str("token_id", rt.ID).Msg("failed to revoke expired refresh token")
		}
		return nil, ErrExpiredToken
	}

	member, err := s.members.FindByID(ctx, rt.MemberID)
	if isNotFound(err) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return nil, ErrInvalidToken
	}

	if err := s.refreshTokenRepo.Revoke(ctx, rt.ID); err != nil {
		return nil, err
	}
	return s.issue(ctx, member)
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *authService) Logout(ctx context.Context, refreshTokenString string) error {
	rt, err := s.refreshTokenRepo.FindByToken(ctx, refreshTokenString)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.refreshTokenRepo.Revoke(ctx, rt.ID)
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.MemberID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) issue(ctx context.Context, member *models.Member) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(member)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateRefreshToken(ctx, member)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenTTL.Seconds()),
	}, nil
}

func (s *authService) generateAccessToken(member *models.Member) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		MemberID: member.ID,
		Email:    member.Email,
		IsAdmin:  member.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(member.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) generateRefreshToken(ctx context.Context, member *models.Member) (string, error) {
	refreshToken := &models.RefreshToken{
		ID:        uuid.NewString(),
		MemberID:  member.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.clock.Now().Add(s.refreshTokenTTL),
	}
	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return "", err
	}
	return refreshToken.Token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
