package handler

import (
	"net/http"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type BorrowHandler struct {
	svc service.BorrowService
}

func NewBorrowHandler(svc service.BorrowService) *BorrowHandler {
	return &BorrowHandler{svc: svc}
}

// RegisterRoutes mounts the lending endpoints. idempotent guards record
// creation and may be a no-op handler when no idempotency store is configured.
func (h *BorrowHandler) RegisterRoutes(r gin.IRouter, idempotent gin.HandlerFunc) {
	auth := middleware.RequireAuth()
	admin := middleware.RequireAdmin()

	r.POST("/borrow", auth, idempotent, h.Borrow)
	r.POST("/return", auth, h.ReturnByBook)
	r.GET("/overdue", admin, h.Overdue)
	r.GET("/members/:id/borrows", auth, h.ListByMember)

	// the listing stays open: anonymous callers get an empty page
	rg := r.Group("/borrows")
	rg.GET("", h.List)
	rg.POST("", auth, idempotent, h.Borrow)
	rg.GET("/overdue", admin, h.Overdue)
	rg.GET("/:id", auth, h.Get)
	rg.GET("/:id/history", auth, h.ListByMember)
	rg.POST("/:id/return_book", auth, h.ReturnByID)
}

func (h *BorrowHandler) Borrow(c *gin.Context) {
	var req dto.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	borrow, err := h.svc.Borrow(c.Request.Context(), middleware.SubjectFrom(c), service.BorrowInput{
		BookID:   req.BookID,
		MemberID: req.MemberID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.render(*borrow))
}

func (h *BorrowHandler) ReturnByBook(c *gin.Context) {
	var req dto.BookRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.svc.ReturnByBook(c.Request.Context(), middleware.SubjectFrom(c), req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, returned(result))
}

func (h *BorrowHandler) ReturnByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	result, err := h.svc.ReturnByID(c.Request.Context(), middleware.SubjectFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, returned(result))
}

func (h *BorrowHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	borrow, err := h.svc.Get(c.Request.Context(), middleware.SubjectFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.render(*borrow))
}

// List shows every borrow to admins and the caller's own borrows otherwise.
func (h *BorrowHandler) List(c *gin.Context) {
	page := pageFrom(c)
	borrows, total, err := h.svc.List(c.Request.Context(), middleware.SubjectFrom(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(mapSlice(borrows, h.render), page.Page, page.PageSize, total))
}

func (h *BorrowHandler) ListByMember(c *gin.Context) {
	memberID, ok := idParam(c, "id")
	if !ok {
		return
	}
	page := pageFrom(c)
	borrows, total, err := h.svc.ListByMember(c.Request.Context(), middleware.SubjectFrom(c), memberID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(mapSlice(borrows, h.render), page.Page, page.PageSize, total))
}

func (h *BorrowHandler) Overdue(c *gin.Context) {
	page := pageFrom(c)
	borrows, total, err := h.svc.Overdue(c.Request.Context(), middleware.SubjectFrom(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(mapSlice(borrows, h.render), page.Page, page.PageSize, total))
}

func (h *BorrowHandler) render(b models.Borrow) dto.BorrowResponse {
	return dto.FromBorrow(b, h.svc.Assess(b).Fine)
}

func returned(r *service.ReturnResult) dto.ReturnResponse {
	return dto.NewReturnResponse(r.Borrow, r.Assessment.LateDays, r.Assessment.Fine, r.CurrentlyBorrowed)
}
