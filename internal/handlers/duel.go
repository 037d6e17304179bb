package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"points-arcade-backend/internal/models"
	"points-arcade-backend/internal/services"
)

type DuelHandler struct {
	duelService *services.DuelService
}

func NewDuelHandler(duelService *services.DuelService) *DuelHandler {
	return &DuelHandler{duelService: duelService}
}

func (h *DuelHandler) Challenge(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.DuelChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	duel, err := h.duelService.Challenge(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duel":    duelResponse(duel),
	})
}

func (h *DuelHandler) Accept(c *gin.Context) {
	userID := c.GetInt64("user_id")
	duelID := c.Param("id")

	duel, err := h.duelService.Accept(c.Request.Context(), duelID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duel":    duelResponse(duel),
	})
}

func (h *DuelHandler) Decline(c *gin.Context) {
	userID := c.GetInt64("user_id")
	duelID := c.Param("id")

	duel, err := h.duelService.Decline(c.Request.Context(), duelID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duel":    duelResponse(duel),
	})
}

func (h *DuelHandler) Resolve(c *gin.Context) {
	userID := c.GetInt64("user_id")
	duelID := c.Param("id")

	var req models.DuelResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	duel, err := h.duelService.Resolve(c.Request.Context(), duelID, userID, req.WinnerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duel":    duelResponse(duel),
	})
}

func (h *DuelHandler) GetDuel(c *gin.Context) {
	duel, err := h.duelService.GetDuel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duel":    duelResponse(duel),
	})
}

func (h *DuelHandler) ListDuels(c *gin.Context) {
	userID := c.GetInt64("user_id")

	limit := parseLimit(c.DefaultQuery("limit", "50"))

	duels, err := h.duelService.ListUserDuels(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list duels",
			"details": err.Error(),
		})
		return
	}

	role := c.Query("role")

	var response []gin.H
	for _, duel := range duels {
		switch role {
		case "challenger":
			if duel.ChallengerID != userID {
				continue
			}
		case "opponent":
			if duel.OpponentID != userID {
				continue
			}
		}
		response = append(response, duelResponse(duel))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duels":   response,
		"count":   len(response),
	})
}

func duelResponse(duel *models.Duel) gin.H {
	return gin.H{
		"id":            duel.ID,
		"challenger_id": duel.ChallengerID,
		"opponent_id":   duel.OpponentID,
		"wager":         duel.Wager,
		"status":        duel.Status,
		"winner_id":     duel.WinnerID,
		"created_at":    duel.CreatedAt,
		"accepted_at":   duel.AcceptedAt,
		"cancelled_at":  duel.CancelledAt,
		"completed_at":  duel.CompletedAt,
	}
}
