package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*models.Member, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.TokenPair, *models.Member, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*models.Member), args.Error(2)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	return gin.New()
}

func noop(c *gin.Context) { c.Next() }

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func testMember() *models.Member {
	return &models.Member{
		ID:             7,
		Email:          "ada@example.com",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		MembershipDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
	}
}

func newAuthRouter(svc *MockAuthService) *gin.Engine {
	r := setupRouter()
	NewAuthHandler(svc).RegisterRoutes(r, noop)
	return r
}

func TestRegister_Success(t *testing.T) {
	svc := new(MockAuthService)
	r := newAuthRouter(svc)

	svc.On("Register", mock.Anything, service.RegisterInput{
		Email:     "ada@example.com",
		Password:  "password123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}).Return(testMember(), nil)

	w := doJSON(r, http.MethodPost, "/register", dto.RegisterRequest{
		Email:     "ada@example.com",
		Password:  "password123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp dto.MemberResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.False(t, resp.IsAdmin)
	assert.NotContains(t, w.Body.String(), "password")
	svc.AssertExpectations(t)
}

func TestRegister_ValidationMessages(t *testing.T) {
	svc := new(MockAuthService)
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodPost, "/auth/register", map[string]string{
		"email":      "not-an-email",
		"password":   "short",
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	msg := decodeError(t, w).Error
	assert.Contains(t, msg, "email must be a valid email")
	assert.Contains(t, msg, "password")
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_MalformedBody(t *testing.T) {
	r := newAuthRouter(new(MockAuthService))

	req, _ := http.NewRequest(http.MethodPost, "/register", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "malformed request body", decodeError(t, w).Error)
}

func TestRegister_EmailInUse(t *testing.T) {
	svc := new(MockAuthService)
	r := newAuthRouter(svc)

	svc.On("Register", mock.Anything, mock.Anything).Return(nil, service.ErrEmailInUse)

	w := doJSON(r, http.MethodPost, "/register", dto.RegisterRequest{
		Email:     "ada@example.com",
		Password:  "password123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email already in use", decodeError(t, w).Error)
}

func TestLogin_Success(t *testing.T) {
	svc := new(MockAuthService)
	r := newAuthRouter(svc)

	pair := &service.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}
	svc.On("Login", mock.Anything, "ada@example.com", "password123").Return(pair, testMember(), nil)

	w := doJSON(r, http.MethodPost, "/auth/login", dto.LoginRequest{Email: "ada@example.com", Password: "password123"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "refresh", resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Equal(t, int64(7), resp.Member.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := new(MockAuthService)
	r := newAuthRouter(svc)

	svc.On("Login", mock.Anything, "ada@example.com", "wrong").Return(nil, nil, service.ErrInvalidCredentials)

	w := doJSON(r, http.MethodPost, "/auth/login", dto.LoginRequest{Email: "ada@example.com", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", decodeError(t, w).Error)
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name       string
		pair       *service.TokenPair
		err        error
		wantStatus int
	}{
		{"rotated", &service.TokenPair{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 900}, nil, http.StatusOK},
		{"expired", nil, service.ErrExpiredToken, http.StatusUnauthorized},
		{"unknown", nil, service.ErrInvalidToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			r := newAuthRouter(svc)
			if tt.pair != nil {
				svc.On("Refresh", mock.Anything, "r1").Return(tt.pair, nil)
			} else {
				svc.On("Refresh", mock.Anything, "r1").Return(nil, tt.err)
			}

			w := doJSON(r, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "r1"})

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.pair != nil {
				var resp dto.RefreshResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "r2", resp.RefreshToken)
			}
		})
	}
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	svc := new(MockAuthService)
	r := newAuthRouter(svc)

	svc.On("Logout", mock.Anything, "gone").Return(errors.New("redis down"))

	w := doJSON(r, http.MethodPost, "/auth/logout", dto.RefreshTokenRequest{RefreshToken: "gone"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged out successfully.")
	svc.AssertExpectations(t)
}

func TestResolveError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"business rule", service.ErrNoCopiesAvailable, http.StatusBadRequest, "no_copies_available", "no copies available for this book"},
		{"wrapped rule", errors.Join(errors.New("borrow"), service.ErrAlreadyReturned), http.StatusBadRequest, "already_returned", ""},
		{"validation", errors.Join(service.ErrValidation), http.StatusBadRequest, "", "validation failed"},
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized, "", "authentication required"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "", ""},
		{"not found", service.ErrNotFound, http.StatusNotFound, "", "not found"},
		{"conflict", service.ErrConflict, http.StatusConflict, "", "conflict"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := resolveError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Error)
			}
		})
	}
}
