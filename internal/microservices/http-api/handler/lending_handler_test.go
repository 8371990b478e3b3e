package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

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

type MockBorrowService struct {
	mock.Mock
}

func (m *MockBorrowService) Borrow(ctx context.Context, actor policy.Subject, in service.BorrowInput) (*models.Borrow, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Borrow), args.Error(1)
}

func (m *MockBorrowService) ReturnByID(ctx context.Context, actor policy.Subject, borrowID int64) (*service.ReturnResult, error) {
	args := m.Called(ctx, actor, borrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReturnResult), args.Error(1)
}

func (m *MockBorrowService) ReturnByBook(ctx context.Context, actor policy.Subject, bookID int64) (*service.ReturnResult, error) {
	args := m.Called(ctx, actor, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReturnResult), args.Error(1)
}

func (m *MockBorrowService) Get(ctx context.Context, actor policy.Subject, id int64) (*models.Borrow, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Borrow), args.Error(1)
}

func (m *MockBorrowService) List(ctx context.Context, actor policy.Subject, page repository.Page) ([]models.Borrow, int64, error) {
	args := m.Called(ctx, actor, page)
	return args.Get(0).([]models.Borrow), args.Get(1).(int64), args.Error(2)
}

func (m *MockBorrowService) ListByMember(ctx context.Context, actor policy.Subject, memberID int64, page repository.Page) ([]models.Borrow, int64, error) {
	args := m.Called(ctx, actor, memberID, page)
	return args.Get(0).([]models.Borrow), args.Get(1).(int64), args.Error(2)
}

func (m *MockBorrowService) Overdue(ctx context.Context, actor policy.Subject, page repository.Page) ([]models.Borrow, int64, error) {
	args := m.Called(ctx, actor, page)
	return args.Get(0).([]models.Borrow), args.Get(1).(int64), args.Error(2)
}

func (m *MockBorrowService) Assess(b models.Borrow) service.Assessment {
	args := m.Called(b)
	return args.Get(0).(service.Assessment)
}

type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) Reserve(ctx context.Context, actor policy.Subject, bookID int64) (*models.Reservation, error) {
	args := m.Called(ctx, actor, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) CancelByBook(ctx context.Context, actor policy.Subject, bookID int64) (*models.Reservation, error) {
	args := m.Called(ctx, actor, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) CancelByID(ctx context.Context, actor policy.Subject, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) Get(ctx context.Context, actor policy.Subject, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) List(ctx context.Context, actor policy.Subject, activeOnly bool, page repository.Page) ([]models.Reservation, int64, error) {
	args := m.Called(ctx, actor, activeOnly, page)
	return args.Get(0).([]models.Reservation), args.Get(1).(int64), args.Error(2)
}

var (
	alice = policy.Subject{MemberID: 7, Email: "alice@example.com"}
	admin = policy.Subject{MemberID: 1, Email: "admin@example.com", IsAdmin: true}
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func newLendingRouter(sub policy.Subject, borrows *MockBorrowService, reservations *MockReservationService) *gin.Engine {
	r := setupRouter()
	r.Use(middleware.SetSubject(sub))
	NewBorrowHandler(borrows).RegisterRoutes(r, noop)
	NewReservationHandler(reservations).RegisterRoutes(r, noop)
	return r
}

func TestBorrow_Created(t *testing.T) {
	borrows := new(MockBorrowService)
	r := newLendingRouter(alice, borrows, new(MockReservationService))

	created := &models.Borrow{ID: 11, MemberID: 7, BookID: 3, BorrowDate: day(1), DueDate: day(15)}
	borrows.On("Borrow", mock.Anything, alice, service.BorrowInput{BookID: 3}).Return(created, nil)
	borrows.On("Assess", *created).Return(service.Assessment{})

	w := doJSON(r, http.MethodPost, "/borrow", dto.BorrowRequest{BookID: 3})

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 11, body["id"])
	assert.EqualValues(t, 7, body["member_id"])
	assert.EqualValues(t, 3, body["book_id"])
	assert.Equal(t, "2026-03-01", body["borrow_date"])
	assert.Equal(t, "2026-03-15", body["due_date"])
	assert.Nil(t, body["return_date"])
	borrows.AssertExpectations(t)
}

func TestBorrow_Anonymous(t *testing.T) {
	borrows := new(MockBorrowService)
	r := newLendingRouter(policy.Anonymous, borrows, new(MockReservationService))

	w := doJSON(r, http.MethodPost, "/borrows", dto.BorrowRequest{BookID: 3})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	borrows.AssertNotCalled(t, "Borrow", mock.Anything, mock.Anything, mock.Anything)
}

func TestBorrow_NoCopies(t *testing.T) {
	borrows := new(MockBorrowService)
	r := newLendingRouter(alice, borrows, new(MockReservationService))

	borrows.On("Borrow", mock.Anything, alice, service.BorrowInput{BookID: 3}).Return(nil, service.ErrNoCopiesAvailable)

	w := doJSON(r, http.MethodPost, "/borrow", dto.BorrowRequest{BookID: 3})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "no_copies_available", resp.Code)
	assert.Equal(t, "no copies available for this book", resp.Error)
}

func TestBorrow_MissingBookID(t *testing.T) {
	r := newLendingRouter(alice, new(MockBorrowService), new(MockReservationService))

	w := doJSON(r, http.MethodPost, "/borrow", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "book_id is required", decodeError(t, w).Error)
}

func TestReturn_Late(t *testing.T) {
	borrows := new(MockBorrowService)
	r := newLendingRouter(alice, borrows, new(MockReservationService))

	returnedOn := day(20)
	result := &service.ReturnResult{
		Borrow: models.Borrow{
			ID: 11, MemberID: 7, BookID: 3,
			BorrowDate: day(1), DueDate: day(15), ReturnDate: &returnedOn,
			Book: &models.Book{ID: 3, Title: "Dune"},
		},
		Assessment: service.Assessment{LateDays: 5, Fine: 50},
		CurrentlyBorrowed: []models.Borrow{
			{ID: 12, BookID: 4, BorrowDate: day(2), DueDate: day(16), Book: &models.Book{ID: 4, Title: "Emma"}},
		},
	}
	borrows.On("ReturnByBook", mock.Anything, alice, int64(3)).Return(result, nil)

	w := doJSON(r, http.MethodPost, "/return", dto.BookRefRequest{BookID: 3})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.ReturnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Book returned successfully.", resp.Message)
	assert.Equal(t, "Dune", resp.BookReturned.Title)
	assert.True(t, resp.Late)
	assert.Equal(t, 5, resp.LateDays)
	assert.Equal(t, int64(50), resp.Fine)
	require.Len(t, resp.CurrentlyBorrowedBooks, 1)
	assert.Equal(t, "Emma", resp.CurrentlyBorrowedBooks[0].Title)
	assert.Contains(t, w.Body.String(), `"return_date":"2026-03-20"`)
}

func TestReturn_OnTimeOmitsFine(t *testing.T) {
	borrows := new(MockBorrowService)
	r := newLendingRouter(alice, borrows, new(MockReservationService))

	returnedOn := day(15)
	result := &service.ReturnResult{
		Borrow: models.Borrow{ID: 11, MemberID: 7, BookID: 3, BorrowDate: day(1), DueDate: day(15), ReturnDate: &returnedOn},
	}
	borrows.On("ReturnByID", mock.Anything, alice, int64(11)).Return(result, nil)

	w := doJSON(r, http.MethodPost, "/borrows/11/return_book", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["late"])
	assert.NotContains(t, body, "late_days")
	assert.NotContains(t, body, "fine")
	assert.Equal(t, []any{}, body["currently_borrowed_books"])
}

func TestReturn_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"already returned", service.ErrAlreadyReturned, http.StatusBadRequest},
		{"not owner", service.ErrForbidden, http.StatusForbidden},
		{"missing", service.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			borrows := new(MockBorrowService)
			r := newLendingRouter(alice, borrows, new(MockReservationService))
			borrows.On("ReturnByID", mock.Anything, alice, int64(11)).Return(nil, tt.err)

			w := doJSON(r, http.MethodPost, "/borrows/11/return_book", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestBorrowRoutes_InvalidID(t *testing.T) {
	r := newLendingRouter(alice, new(MockBorrowService), new(MockReservationService))

	w := doJSON(r, http.MethodGet, "/borrows/abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid id", decodeError(t, w).Error)
}

func TestListBorrows_Paginated(t *testing.T) {
	borrows := new(MockBorrowService)
	r := newLendingRouter(alice, borrows, new(MockReservationService))

	list := []models.Borrow{{ID: 11, MemberID: 7, BookID: 3, BorrowDate: day(1), DueDate: day(15)}}
	borrows.On("List", mock.Anything, alice, repository.Page{Page: 2, PageSize: 5}).Return(list, int64(6), nil)
	borrows.On("Assess", list[0]).Return(service.Assessment{})

	w := doJSON(r, http.MethodGet, "/borrows?page=2&page_size=5", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Paginated[dto.BorrowResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(6), resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(11), resp.Data[0].ID)
}

func TestOverdue_AdminOnly(t *testing.T) {
	borrows := new(MockBorrowService)
	r := newLendingRouter(alice, borrows, new(MockReservationService))

	w := doJSON(r, http.MethodGet, "/overdue", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	borrows = new(MockBorrowService)
	r = newLendingRouter(admin, borrows, new(MockReservationService))
	late := models.Borrow{ID: 9, MemberID: 7, BookID: 3, BorrowDate: day(1), DueDate: day(15)}
	borrows.On("Overdue", mock.Anything, admin, mock.Anything).Return([]models.Borrow{late}, int64(1), nil)
	borrows.On("Assess", late).Return(service.Assessment{LateDays: 2, Fine: 20})

	w = doJSON(r, http.MethodGet, "/borrows/overdue", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Paginated[dto.BorrowResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(20), resp.Data[0].Fine)
}

func TestReserve(t *testing.T) {
	reservations := new(MockReservationService)
	r := newLendingRouter(alice, new(MockBorrowService), reservations)

	res := &models.Reservation{ID: 5, MemberID: 7, BookID: 3, ReservationDate: day(1), IsActive: true}
	reservations.On("Reserve", mock.Anything, alice, int64(3)).Return(res, nil).Once()
	reservations.On("Reserve", mock.Anything, alice, int64(3)).Return(nil, service.ErrDuplicateReservation).Once()

	w := doJSON(r, http.MethodPost, "/reserve", dto.BookRefRequest{BookID: 3})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp dto.ReservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.ID)
	assert.True(t, resp.IsActive)

	w = doJSON(r, http.MethodPost, "/reservations", dto.BookRefRequest{BookID: 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "duplicate_reservation", decodeError(t, w).Code)
}

func TestReserve_BookAvailable(t *testing.T) {
	reservations := new(MockReservationService)
	r := newLendingRouter(alice, new(MockBorrowService), reservations)
	reservations.On("Reserve", mock.Anything, alice, int64(3)).Return(nil, service.ErrBookAvailable)

	w := doJSON(r, http.MethodPost, "/reserve", dto.BookRefRequest{BookID: 3})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "book_available", decodeError(t, w).Code)
}

func TestCancelReservation(t *testing.T) {
	reservations := new(MockReservationService)
	r := newLendingRouter(alice, new(MockBorrowService), reservations)

	cancelled := &models.Reservation{ID: 5, MemberID: 7, BookID: 3, ReservationDate: day(1)}
	reservations.On("CancelByBook", mock.Anything, alice, int64(3)).Return(cancelled, nil)
	reservations.On("CancelByID", mock.Anything, alice, int64(5)).Return(nil, service.ErrNoActiveReservation)

	w := doJSON(r, http.MethodPost, "/cancel-reservation", dto.BookRefRequest{BookID: 3})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Reservation cancelled successfully.")

	w = doJSON(r, http.MethodPost, "/reservations/5/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no_active_reservation", decodeError(t, w).Code)
}

func TestListReservations_ActiveFilter(t *testing.T) {
	reservations := new(MockReservationService)
	r := newLendingRouter(alice, new(MockBorrowService), reservations)

	reservations.On("List", mock.Anything, alice, true, mock.Anything).Return([]models.Reservation{}, int64(0), nil)

	w := doJSON(r, http.MethodGet, "/reservations?active=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	reservations.AssertExpectations(t)

	w = doJSON(r, http.MethodGet, "/reservations?active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
