package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/policy"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookService struct {
	mock.Mock
}

func (m *MockBookService) List(ctx context.Context, filter repository.BookFilter) ([]models.Book, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Book), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookService) Get(ctx context.Context, id int64) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookService) Create(ctx context.Context, actor policy.Subject, in service.BookInput) (*models.Book, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookService) Update(ctx context.Context, actor policy.Subject, id int64, in service.BookPatch) (*models.Book, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookService) Delete(ctx context.Context, actor policy.Subject, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) List(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryService) Create(ctx context.Context, actor policy.Subject, name string) (*models.Category, error) {
	args := m.Called(ctx, actor, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryService) Update(ctx context.Context, actor policy.Subject, id int64, name string) (*models.Category, error) {
	args := m.Called(ctx, actor, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, actor policy.Subject, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func newBookRouter(sub policy.Subject, svc *MockBookService) *gin.Engine {
	r := setupRouter()
	r.Use(middleware.SetSubject(sub))
	NewBookHandler(svc).RegisterRoutes(r)
	return r
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func TestListBooks_PassesFilters(t *testing.T) {
	svc := new(MockBookService)
	r := newBookRouter(policy.Anonymous, svc)

	want := repository.BookFilter{
		Category:        "Science Fiction",
		AuthorFirstName: "Frank",
		AuthorLastName:  "Herbert",
		Search:          "dune",
		Ordering:        "-available_copies",
		Page:            repository.Page{Page: 1, PageSize: 10},
	}
	books := []models.Book{{
		ID: 3, Title: "Dune", ISBN: "9780441013593", TotalCopies: 2, AvailableCopies: 1,
		Authors:  []models.Author{{ID: 1, FirstName: "Frank", LastName: "Herbert"}},
		Category: &models.Category{ID: 2, Name: "Science Fiction"},
	}}
	svc.On("List", mock.Anything, want).Return(books, int64(1), nil)

	w := doJSON(r, http.MethodGet,
		"/books?category=Science+Fiction&author_first_name=Frank&author_last_name=Herbert&search=dune&ordering=-available_copies&page_size=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Paginated[dto.BookResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Dune", resp.Data[0].Title)
	assert.Equal(t, "Herbert", resp.Data[0].Authors[0].LastName)
	assert.Equal(t, "Science Fiction", resp.Data[0].Category.Name)
	svc.AssertExpectations(t)
}

func TestSearchBooks(t *testing.T) {
	svc := new(MockBookService)
	r := newBookRouter(policy.Anonymous, svc)

	w := doJSON(r, http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.On("List", mock.Anything, mock.MatchedBy(func(f repository.BookFilter) bool {
		return f.Search == "herbert" && f.Category == ""
	})).Return([]models.Book{}, int64(0), nil)

	w = doJSON(r, http.MethodGet, "/search?q=herbert", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
	svc.AssertExpectations(t)
}

func TestListBooks_BadOrdering(t *testing.T) {
	svc := new(MockBookService)
	r := newBookRouter(policy.Anonymous, svc)
	svc.On("List", mock.Anything, mock.Anything).Return([]models.Book{}, int64(0), service.ErrValidation)

	w := doJSON(r, http.MethodGet, "/books?ordering=isbn", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBook(t *testing.T) {
	tests := []struct {
		name       string
		sub        policy.Subject
		body       map[string]any
		wantStatus int
		wantMsg    string
	}{
		{"anonymous", policy.Anonymous, map[string]any{"title": "Dune", "isbn": "9780441013593"}, http.StatusUnauthorized, ""},
		{"member", alice, map[string]any{"title": "Dune", "isbn": "9780441013593"}, http.StatusForbidden, ""},
		{"bad isbn", admin, map[string]any{"title": "Dune", "isbn": "978-0441"}, http.StatusBadRequest, "isbn must be a 10 or 13 character ISBN"},
		{"missing title", admin, map[string]any{"isbn": "9780441013593"}, http.StatusBadRequest, "title is required"},
		{"negative copies", admin, map[string]any{"title": "Dune", "isbn": "9780441013593", "total_copies": -1}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBookService)
			r := newBookRouter(tt.sub, svc)

			w := doJSON(r, http.MethodPost, "/books", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, decodeError(t, w).Error)
			}
			svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateBook_LegacyPath(t *testing.T) {
	svc := new(MockBookService)
	r := newBookRouter(admin, svc)

	in := service.BookInput{
		Title:       "Emma",
		ISBN:        "014143958X",
		AuthorIDs:   []int64{4},
		TotalCopies: 3,
	}
	svc.On("Create", mock.Anything, admin, in).Return(&models.Book{ID: 9, Title: "Emma", ISBN: "014143958X", TotalCopies: 3, AvailableCopies: 3}, nil)

	w := doJSON(r, http.MethodPost, "/books/add", map[string]any{
		"title": "Emma", "isbn": "014143958X", "author_ids": []int64{4}, "total_copies": 3,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp dto.BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.AvailableCopies)
	assert.Nil(t, resp.Category)
	svc.AssertExpectations(t)
}

func TestUpdateBook_CategoryZeroClears(t *testing.T) {
	svc := new(MockBookService)
	r := newBookRouter(admin, svc)

	svc.On("Update", mock.Anything, admin, int64(3), service.BookPatch{ClearCategory: true}).
		Return(&models.Book{ID: 3, Title: "Dune"}, nil).Once()
	svc.On("Update", mock.Anything, admin, int64(3), service.BookPatch{CategoryID: int64Ptr(2), TotalCopies: intPtr(5)}).
		Return(&models.Book{ID: 3, Title: "Dune", CategoryID: int64Ptr(2)}, nil).Once()

	w := doJSON(r, http.MethodPatch, "/books/3", map[string]any{"category_id": 0})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPut, "/books/3/update", map[string]any{"category_id": 2, "total_copies": 5})
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestDeleteBook(t *testing.T) {
	svc := new(MockBookService)
	r := newBookRouter(admin, svc)

	svc.On("Delete", mock.Anything, admin, int64(3)).Return(nil).Once()
	svc.On("Delete", mock.Anything, admin, int64(4)).Return(service.ErrConflict).Once()

	w := doJSON(r, http.MethodDelete, "/books/3", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodDelete, "/books/4/delete", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetBook_NotFound(t *testing.T) {
	svc := new(MockBookService)
	r := newBookRouter(policy.Anonymous, svc)
	svc.On("Get", mock.Anything, int64(99)).Return(nil, service.ErrNotFound)

	w := doJSON(r, http.MethodGet, "/books/99", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategories(t *testing.T) {
	svc := new(MockCategoryService)
	r := setupRouter()
	r.Use(middleware.SetSubject(admin))
	NewCategoryHandler(svc).RegisterRoutes(r.Group("/categories"))

	svc.On("List", mock.Anything).Return([]models.Category{{ID: 1, Name: "Poetry"}}, nil)
	svc.On("Create", mock.Anything, admin, "Poetry").Return(nil, service.ErrConflict)
	svc.On("Update", mock.Anything, admin, int64(1), "Verse").Return(&models.Category{ID: 1, Name: "Verse"}, nil)

	w := doJSON(r, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []dto.CategoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []dto.CategoryResponse{{ID: 1, Name: "Poetry"}}, list)

	w = doJSON(r, http.MethodPost, "/categories/add", dto.CategoryRequest{Name: "Poetry"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPatch, "/categories/1/update", dto.CategoryRequest{Name: "Verse"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Verse")
}
