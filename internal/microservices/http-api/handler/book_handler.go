package handler

import (
	"net/http"
	"strings"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type BookHandler struct {
	svc service.BookService
}

func NewBookHandler(svc service.BookService) *BookHandler {
	return &BookHandler{svc: svc}
}

// RegisterRoutes mounts /books and the standalone /search endpoint.
func (h *BookHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/search", h.Search)

	rg := r.Group("/books")
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)

	admin := middleware.RequireAdmin()
	rg.POST("", admin, h.Create)
	rg.PUT("/:id", admin, h.Update)
	rg.PATCH("/:id", admin, h.Update)
	rg.DELETE("/:id", admin, h.Delete)

	// legacy paths
	rg.POST("/add", admin, h.Create)
	rg.PUT("/:id/update", admin, h.Update)
	rg.PATCH("/:id/update", admin, h.Update)
	rg.DELETE("/:id/delete", admin, h.Delete)
}

// List supports category, author_first_name, author_last_name, search,
// ordering (title, available_copies, "-" for descending) and pagination.
func (h *BookHandler) List(c *gin.Context) {
	page := pageFrom(c)
	h.list(c, repository.BookFilter{
		Category:        strings.TrimSpace(c.Query("category")),
		AuthorFirstName: strings.TrimSpace(c.Query("author_first_name")),
		AuthorLastName:  strings.TrimSpace(c.Query("author_last_name")),
		Search:          strings.TrimSpace(c.Query("search")),
		Ordering:        strings.TrimSpace(c.Query("ordering")),
		Page:            page,
	})
}

// Search is GET /search?q=, matching title, author names and category name.
func (h *BookHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "query parameter 'q' is required"})
		return
	}
	h.list(c, repository.BookFilter{
		Search:   q,
		Ordering: strings.TrimSpace(c.Query("ordering")),
		Page:     pageFrom(c),
	})
}

func (h *BookHandler) list(c *gin.Context, filter repository.BookFilter) {
	books, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(mapSlice(books, dto.FromBook), filter.Page.Page, filter.Page.PageSize, total))
}

func (h *BookHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	book, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromBook(*book))
}

func (h *BookHandler) Create(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	book, err := h.svc.Create(c.Request.Context(), middleware.SubjectFrom(c), service.BookInput{
		Title:           req.Title,
		ISBN:            req.ISBN,
		CategoryID:      req.CategoryID,
		AuthorIDs:       req.AuthorIDs,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.AvailableCopies,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromBook(*book))
}

func (h *BookHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	patch := service.BookPatch{
		Title:           req.Title,
		ISBN:            req.ISBN,
		AuthorIDs:       req.AuthorIDs,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.AvailableCopies,
	}
	if req.CategoryID != nil {
		if *req.CategoryID == 0 {
			patch.ClearCategory = true
		} else {
			patch.CategoryID = req.CategoryID
		}
	}

	book, err := h.svc.Update(c.Request.Context(), middleware.SubjectFrom(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromBook(*book))
}

func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.SubjectFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
