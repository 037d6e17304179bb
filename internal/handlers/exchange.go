package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"points-arcade-backend/internal/models"
	"points-arcade-backend/internal/services"
)

type ExchangeHandler struct {
	exchangeService *services.ExchangeService
}

func NewExchangeHandler(exchangeService *services.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchangeService: exchangeService}
}

func (h *ExchangeHandler) Request(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	exchange, err := h.exchangeService.Request(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"exchange": exchangeResponse(exchange),
	})
}

func (h *ExchangeHandler) Cancel(c *gin.Context) {
	userID := c.GetInt64("user_id")
	exchangeID := c.Param("id")

	exchange, err := h.exchangeService.Cancel(c.Request.Context(), exchangeID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"exchange": exchangeResponse(exchange),
	})
}

func (h *ExchangeHandler) Complete(c *gin.Context) {
	userID := c.GetInt64("user_id")
	exchangeID := c.Param("id")

	exchange, err := h.exchangeService.Complete(c.Request.Context(), exchangeID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"exchange": exchangeResponse(exchange),
	})
}

func (h *ExchangeHandler) ListExchanges(c *gin.Context) {
	userID := c.GetInt64("user_id")

	limit := parseLimit(c.DefaultQuery("limit", "50"))

	exchanges, err := h.exchangeService.ListUserExchanges(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list exchanges",
			"details": err.Error(),
		})
		return
	}

	var response []gin.H
	for _, exchange := range exchanges {
		response = append(response, exchangeResponse(exchange))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"exchanges": response,
		"count":     len(response),
	})
}

func exchangeResponse(exchange *models.Exchange) gin.H {
	return gin.H{
		"id":           exchange.ID,
		"user_id":      exchange.UserID,
		"amount":       exchange.Amount,
		"status":       exchange.Status,
		"phone_number": exchange.PhoneNumber,
		"created_at":   exchange.CreatedAt,
		"completed_at": exchange.CompletedAt,
		"cancelled_at": exchange.CancelledAt,
	}
}
