package handler

import (
	"net/http"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthorHandler struct {
	svc service.AuthorService
}

func NewAuthorHandler(svc service.AuthorService) *AuthorHandler {
	return &AuthorHandler{svc: svc}
}

func (h *AuthorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)

	// Admin-only routes
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

func (h *AuthorHandler) List(c *gin.Context) {
	page := pageFrom(c)
	authors, total, err := h.svc.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(mapSlice(authors, dto.FromAuthor), page.Page, page.PageSize, total))
}

func (h *AuthorHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	author, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAuthor(*author))
}

func (h *AuthorHandler) Create(c *gin.Context) {
	var req dto.AuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	author, err := h.svc.Create(c.Request.Context(), middleware.SubjectFrom(c), service.AuthorInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Biography: req.Biography,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromAuthor(*author))
}

func (h *AuthorHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.AuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	author, err := h.svc.Update(c.Request.Context(), middleware.SubjectFrom(c), id, service.AuthorInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Biography: req.Biography,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAuthor(*author))
}

func (h *AuthorHandler) Delete(c *gin.Context) {
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
