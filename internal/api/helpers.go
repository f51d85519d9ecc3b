package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"construktor/internal/apperr"
	"construktor/internal/auth"
)

// FieldError — элемент массива errors в теле ответа.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func statusFor(err error) int {
	switch {
	case apperr.IsCode(err, apperr.CodeUnauthenticated):
		return http.StatusUnauthorized
	case apperr.IsCode(err, apperr.CodeValidation):
		return http.StatusBadRequest
	case apperr.IsCode(err, apperr.CodeNotFound):
		return http.StatusNotFound
	case apperr.IsCode(err, apperr.CodeReadOnly):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail переводит ошибку сервиса в ответ {"errors":[...]}.
func fail(c *gin.Context, err error) {
	var fe FieldError
	var ae *apperr.Error
	if errors.As(err, &ae) {
		fe = FieldError{Code: ae.Code, Field: ae.Field, Message: ae.Message}
	} else {
		fe = FieldError{Code: apperr.CodeRemote, Message: "internal error"}
	}
	c.JSON(statusFor(err), gin.H{"errors": []FieldError{fe}})
}

func badJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
}

func currentUser(c *gin.Context) auth.Identity {
	u, _ := c.Get(ctxUserKey)
	id, _ := u.(auth.Identity)
	return id
}
