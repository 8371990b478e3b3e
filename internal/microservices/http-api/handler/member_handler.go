package handler

import (
	"net/http"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	svc service.MemberService
}

func NewMemberHandler(svc service.MemberService) *MemberHandler {
	return &MemberHandler{svc: svc}
}

func (h *MemberHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", middleware.RequireAdmin(), h.List)
	rg.POST("", middleware.RequireAdmin(), h.Create)

	rg.GET("/me", middleware.RequireAuth(), h.Me)
	rg.PUT("/me", middleware.RequireAuth(), h.UpdateMe)
	rg.PATCH("/me", middleware.RequireAuth(), h.UpdateMe)

	rg.GET("/:id", middleware.RequireAuth(), h.Get)
	rg.PUT("/:id", middleware.RequireAuth(), h.Update)
	rg.PATCH("/:id", middleware.RequireAuth(), h.Update)
	rg.DELETE("/:id", middleware.RequireAdmin(), h.Delete)
}

func (h *MemberHandler) List(c *gin.Context) {
	page := pageFrom(c)
	members, total, err := h.svc.List(c.Request.Context(), middleware.SubjectFrom(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(mapSlice(members, dto.FromMember), page.Page, page.PageSize, total))
}

func (h *MemberHandler) Create(c *gin.Context) {
	var req dto.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	member, err := h.svc.Create(c.Request.Context(), middleware.SubjectFrom(c), service.CreateMemberInput{
		RegisterInput: service.RegisterInput{
			Email:       req.Email,
			Password:    req.Password,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Address:     req.Address,
			PhoneNumber: req.PhoneNumber,
		},
		IsAdmin:  req.IsAdmin,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromMember(*member))
}

func (h *MemberHandler) Me(c *gin.Context) {
	sub := middleware.SubjectFrom(c)
	h.respondMember(c, sub.MemberID)
}

func (h *MemberHandler) UpdateMe(c *gin.Context) {
	h.update(c, middleware.SubjectFrom(c).MemberID)
}

func (h *MemberHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.respondMember(c, id)
}

func (h *MemberHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.update(c, id)
}

func (h *MemberHandler) Delete(c *gin.Context) {
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

func (h *MemberHandler) respondMember(c *gin.Context, id int64) {
	member, err := h.svc.Get(c.Request.Context(), middleware.SubjectFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromMember(*member))
}

func (h *MemberHandler) update(c *gin.Context, id int64) {
	var req dto.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	member, err := h.svc.Update(c.Request.Context(), middleware.SubjectFrom(c), id, service.UpdateMemberInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		IsActive:    req.IsActive,
		IsAdmin:     req.IsAdmin,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromMember(*member))
}

func mapSlice[M any, R any](items []M, fn func(M) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
