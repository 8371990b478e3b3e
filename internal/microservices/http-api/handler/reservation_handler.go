package handler

import (
	"net/http"
	"strconv"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	svc service.ReservationService
}

func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

func (h *ReservationHandler) RegisterRoutes(r gin.IRouter, idempotent gin.HandlerFunc) {
	auth := middleware.RequireAuth()

	r.POST("/reserve", auth, idempotent, h.Reserve)
	r.POST("/cancel-reservation", auth, h.CancelByBook)

	rg := r.Group("/reservations")
	rg.GET("", h.List)
	rg.POST("", auth, idempotent, h.Reserve)
	rg.GET("/:id", auth, h.Get)
	rg.POST("/:id/cancel", auth, h.CancelByID)
}

func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req dto.BookRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	reservation, err := h.svc.Reserve(c.Request.Context(), middleware.SubjectFrom(c), req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromReservation(*reservation))
}

func (h *ReservationHandler) CancelByBook(c *gin.Context) {
	var req dto.BookRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if _, err := h.svc.CancelByBook(c.Request.Context(), middleware.SubjectFrom(c), req.BookID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Reservation cancelled successfully."})
}

func (h *ReservationHandler) CancelByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.CancelByID(c.Request.Context(), middleware.SubjectFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Reservation cancelled successfully."})
}

func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	reservation, err := h.svc.Get(c.Request.Context(), middleware.SubjectFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromReservation(*reservation))
}

// List accepts ?active=true to hide cancelled reservations.
func (h *ReservationHandler) List(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "active must be a boolean"})
			return
		}
		activeOnly = v
	}

	page := pageFrom(c)
	reservations, total, err := h.svc.List(c.Request.Context(), middleware.SubjectFrom(c), activeOnly, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(mapSlice(reservations, dto.FromReservation), page.Page, page.PageSize, total))
}
