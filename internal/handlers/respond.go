package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"points-arcade-backend/internal/services"
)

// respondServiceError maps the service error taxonomy onto HTTP.
// Declined actions are ordinary responses with a machine-readable
// code; only NotFound and generation failures are system errors.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Insufficient balance",
			"code":  "insufficient_balance",
		})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Action no longer valid",
			"code":  "invalid_transition",
		})
	case errors.Is(err, services.ErrTooLate):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Round already busted",
			"code":  "too_late",
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
			"code":  "not_found",
		})
	case errors.Is(err, services.ErrGenerationFailure):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal error",
			"code":  "generation_failure",
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Request failed",
			"details": err.Error(),
		})
	}
}
