package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	isbnPattern  = regexp.MustCompile(`^(\d{9}[\dX]|\d{13})$`)
	registerOnce sync.Once
)

// RegisterValidators installs the custom binding rules and reports field
// errors by their JSON names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// ISBN-10 or ISBN-13, digits only
		_ = v.RegisterValidation("isbn", func(fl validator.FieldLevel) bool {
			return isbnPattern.MatchString(fl.Field().String())
		})
	})
}

// bindError answers 400 for a request body that failed to bind or validate.
func bindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fieldError(fe))
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: strings.Join(msgs, "; ")})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "isbn":
		return field + " must be a 10 or 13 character ISBN"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
