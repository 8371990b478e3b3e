package handler

import (
	"net/http"
	"strconv"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/repository"

	"github.com/gin-gonic/gin"
)

// idParam parses a positive integer path parameter, answering 400 otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func pageFrom(c *gin.Context) repository.Page {
	page, pageSize := dto.PageQuery(c)
	return repository.Page{Page: page, PageSize: pageSize}
}
