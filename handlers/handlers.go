package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"campusquiz/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, services.ErrQuizNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrAttemptNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNotAuthorized),
		errors.Is(err, services.ErrQuizNotActive):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrAlreadyAttempted),
		errors.Is(err, services.ErrQuestionInUse),
		errors.Is(err, services.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrUnknownQuestionIDs):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidIDToken):
		status = http.StatusUnauthorized
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
