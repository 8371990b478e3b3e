package handler

import (
	"errors"
	"net/http"
	"strings"

	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/service"
	"libraryhub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// errorResponse is the error envelope for every API error. Code is set for
// lending rule violations.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError maps a service error to its status code and writes it.
func respondError(c *gin.Context, err error) {
	status, body := resolveError(err)
	if status == http.StatusInternalServerError {
		log := logger.Get()
		log.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Msg("unhandled error")
	}
	c.AbortWithStatusJSON(status, body)
}

func resolveError(err error) (int, errorResponse) {
	if code, ok := service.BusinessRuleCode(err); ok {
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: code}
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, errorResponse{Error: detail(err, service.ErrValidation)}
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "authentication required"}
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, service.ErrExpiredToken):
		return http.StatusUnauthorized, errorResponse{Error: "token has expired"}
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Error: "invalid token"}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "you do not have permission to perform this action"}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: detail(err, service.ErrNotFound)}
	case errors.Is(err, service.ErrEmailInUse):
		return http.StatusConflict, errorResponse{Error: "email already in use"}
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, errorResponse{Error: detail(err, service.ErrConflict)}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

// detail strips the sentinel prefix added by the service's wrapping helpers.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
