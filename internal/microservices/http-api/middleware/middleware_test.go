package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/policy"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func echoSubject(c *gin.Context) {
	c.JSON(http.StatusOK, SubjectFrom(c))
}

func TestAuthenticate(t *testing.T) {
	tokens := new(MockTokenValidator)
	tokens.On("ValidateToken", "good").Return(&service.Claims{MemberID: 7, Email: "ada@example.com", IsAdmin: true}, nil)
	tokens.On("ValidateToken", "old").Return(nil, service.ErrExpiredToken)
	tokens.On("ValidateToken", "bad").Return(nil, service.ErrInvalidToken)

	router := setupRouter()
	router.GET("/", Authenticate(tokens, nil), echoSubject)

	tests := []struct {
		name    string
		header  string
		status  int
		subject policy.Subject
		errMsg  string
	}{
		{"anonymous", "", http.StatusOK, policy.Anonymous, ""},
		{"valid", "Bearer good", http.StatusOK, policy.Subject{MemberID: 7, Email: "ada@example.com", IsAdmin: true}, ""},
		{"lowercase scheme", "bearer good", http.StatusOK, policy.Subject{MemberID: 7, Email: "ada@example.com", IsAdmin: true}, ""},
		{"expired", "Bearer old", http.StatusUnauthorized, policy.Subject{}, "token has expired"},
		{"invalid", "Bearer bad", http.StatusUnauthorized, policy.Subject{}, "invalid token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, policy.Subject{}, "invalid authorization header format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.errMsg, body["error"])
				return
			}
			var got policy.Subject
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.subject, got)
		})
	}
}

type MockMemberLookup struct {
	mock.Mock
}

func (m *MockMemberLookup) FindByID(ctx context.Context, id int64) (*models.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func TestAuthenticate_UsesStoredMemberState(t *testing.T) {
	tokens := new(MockTokenValidator)
	tokens.On("ValidateToken", "demoted").Return(&service.Claims{MemberID: 1, Email: "ada@example.com", IsAdmin: true}, nil)
	tokens.On("ValidateToken", "deactivated").Return(&service.Claims{MemberID: 2, Email: "bob@example.com"}, nil)
	tokens.On("ValidateToken", "deleted").Return(&service.Claims{MemberID: 3, Email: "eve@example.com"}, nil)
	tokens.On("ValidateToken", "flaky").Return(&service.Claims{MemberID: 4, Email: "joe@example.com"}, nil)

	members := new(MockMemberLookup)
	members.On("FindByID", mock.Anything, int64(1)).Return(&models.Member{ID: 1, IsActive: true, IsAdmin: false}, nil)
	members.On("FindByID", mock.Anything, int64(2)).Return(&models.Member{ID: 2, IsActive: false}, nil)
	members.On("FindByID", mock.Anything, int64(3)).Return(nil, fmt.Errorf("find member 3: %w", gorm.ErrRecordNotFound))
	members.On("FindByID", mock.Anything, int64(4)).Return(nil, errors.New("connection refused"))

	router := setupRouter()
	router.GET("/", Authenticate(tokens, members), echoSubject)
	router.POST("/books", Authenticate(tokens, members), RequireAdmin(), echoSubject)

	send := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send(http.MethodGet, "/", "demoted")
	require.Equal(t, http.StatusOK, w.Code)
	var got policy.Subject
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, policy.Subject{MemberID: 1, Email: "ada@example.com"}, got)
	assert.Equal(t, http.StatusForbidden, send(http.MethodPost, "/books", "demoted").Code)

	assert.Equal(t, http.StatusUnauthorized, send(http.MethodGet, "/", "deactivated").Code)
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodGet, "/", "deleted").Code)
	assert.Equal(t, http.StatusInternalServerError, send(http.MethodGet, "/", "flaky").Code)
}

func TestRequireAuthAndAdmin(t *testing.T) {
	tests := []struct {
		name     string
		sub      policy.Subject
		guard    gin.HandlerFunc
		wantCode int
	}{
		{"auth anonymous", policy.Anonymous, RequireAuth(), http.StatusUnauthorized},
		{"auth member", policy.Subject{MemberID: 1}, RequireAuth(), http.StatusOK},
		{"admin anonymous", policy.Anonymous, RequireAdmin(), http.StatusUnauthorized},
		{"admin member", policy.Subject{MemberID: 1}, RequireAdmin(), http.StatusForbidden},
		{"admin admin", policy.Subject{MemberID: 1, IsAdmin: true}, RequireAdmin(), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter()
			router.GET("/", SetSubject(tt.sub), tt.guard, echoSubject)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	router := setupRouter()
	router.POST("/auth/login", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))

	now = now.Add(time.Hour)
	limiter.Allow("10.0.0.3")
	assert.Len(t, limiter.visitors, 1)
}

// memoryIdempotencyStore is an in-process IdempotencyStore for tests.
type memoryIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]repository.StoredResponse
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{data: make(map[string]repository.StoredResponse)}
}

func (s *memoryIdempotencyStore) Begin(_ context.Context, key string, _ time.Duration) (*repository.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.data[key]; ok {
		return &r, nil
	}
	s.data[key] = repository.StoredResponse{}
	return nil, nil
}

func (s *memoryIdempotencyStore) Complete(_ context.Context, key string, resp repository.StoredResponse, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = resp
	return nil
}

func (s *memoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	router := setupRouter()
	router.POST("/borrow",
		SetSubject(policy.Subject{MemberID: 3}),
		Idempotency(store, time.Hour, zerolog.Nop()),
		func(c *gin.Context) {
			calls++
			c.JSON(http.StatusCreated, gin.H{"id": calls})
		})

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/borrow", nil)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send("abc")
	second := send("abc")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.Equal(t, 1, calls)

	send("other")
	send("")
	assert.Equal(t, 3, calls)
}

func TestIdempotencyInFlightAndServerErrors(t *testing.T) {
	store := newMemoryIdempotencyStore()
	store.data["0:POST:/borrow:busy"] = repository.StoredResponse{}

	fail := true
	router := setupRouter()
	router.POST("/borrow", Idempotency(store, time.Hour, zerolog.Nop()), func(c *gin.Context) {
		if fail {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/borrow", nil)
		req.Header.Set(IdempotencyKeyHeader, key)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusConflict, send("busy"))

	assert.Equal(t, http.StatusInternalServerError, send("retry"))
	fail = false
	assert.Equal(t, http.StatusCreated, send("retry"))
}

func TestIdempotencyReleasesKeyAfterPanic(t *testing.T) {
	store := newMemoryIdempotencyStore()

	panics := true
	router := setupRouter()
	router.Use(Recovery(zerolog.Nop()))
	router.POST("/reserve", Idempotency(store, time.Hour, zerolog.Nop()), func(c *gin.Context) {
		if panics {
			panic("lost connection mid-transaction")
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/reserve", nil)
		req.Header.Set(IdempotencyKeyHeader, "k1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusInternalServerError, send())
	assert.Empty(t, store.data)

	panics = false
	assert.Equal(t, http.StatusCreated, send())
	assert.Equal(t, http.StatusCreated, store.data["0:POST:/reserve:k1"].Status)
}

func TestRequestID(t *testing.T) {
	router := setupRouter()
	router.GET("/", RequestID(), func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Body.String())
}

func TestTimeoutSetsDeadline(t *testing.T) {
	router := setupRouter()
	router.GET("/", Timeout(time.Second), func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
}
