package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/policy"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const subjectKey = "subject"

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// MemberLookup loads the member a token was issued to.
type MemberLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Member, error)
}

// Authenticate resolves the caller from the Authorization header. Requests
// without the header continue as anonymous; a malformed or invalid token is
// rejected with 401. When members is set the admin flag comes from the
// stored member, and tokens of deleted or deactivated members are rejected.
func Authenticate(tokens TokenValidator, members MemberLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(subjectKey, policy.Anonymous)
			c.Next()
			return
		}

		// format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, service.ErrExpiredToken) {
				msg = "token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		sub := policy.Subject{
			MemberID: claims.MemberID,
			Email:    claims.Email,
			IsAdmin:  claims.IsAdmin,
		}
		if members != nil {
			m, err := members.FindByID(c.Request.Context(), claims.MemberID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !m.IsActive):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account is no longer active"})
				return
			case err != nil:
				c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			sub.IsAdmin = m.IsAdmin
		}

		c.Set(subjectKey, sub)
		c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SubjectFrom(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": policy.ErrUnauthenticated.Error()})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects anyone who is not an administrator.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := SubjectFrom(c)
		if !sub.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": policy.ErrUnauthenticated.Error()})
			return
		}
		if !sub.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": policy.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

// SubjectFrom returns the caller set by Authenticate, or Anonymous.
func SubjectFrom(c *gin.Context) policy.Subject {
	if v, ok := c.Get(subjectKey); ok {
		if sub, ok := v.(policy.Subject); ok {
			return sub
		}
	}
	return policy.Anonymous
}

// SetSubject is used by tests that bypass token validation.
func SetSubject(sub policy.Subject) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(subjectKey, sub)
		c.Next()
	}
}
