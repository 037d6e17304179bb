package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"points-arcade-backend/internal/models"
	"points-arcade-backend/internal/services"
)

type GameHandler struct {
	roundService *services.RoundService
	redisService *services.RedisService
}

func NewGameHandler(roundService *services.RoundService, redisService *services.RedisService) *GameHandler {
	return &GameHandler{
		roundService: roundService,
		redisService: redisService,
	}
}

func (h *GameHandler) PlayRound(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.PlayRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(c.Request.Context(), userID, "round", services.DefaultRateLimitRounds, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many rounds. Please wait."})
		return
	}

	round, bet, err := h.roundService.PlayInstantRound(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round": gin.H{
			"id":            round.ID,
			"game_type":     round.GameType,
			"tile":          round.Tile,
			"color":         round.Color,
			"numbers":       round.Numbers,
			"winning_index": round.WinningIndex,
			"created_at":    round.CreatedAt,
		},
		"bet": gin.H{
			"id":        bet.ID,
			"stake":     bet.Stake,
			"selection": bet.Selection,
			"won":       bet.Won,
			"payout":    bet.Payout,
		},
	})
}

func (h *GameHandler) CrashCashout(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.CrashCashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(c.Request.Context(), userID, "cashout", services.DefaultRateLimitCashouts, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many cashouts. Please wait."})
		return
	}

	bet, balance, err := h.roundService.CashOut(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"bet_id":            bet.ID,
			"round_id":          bet.RoundID,
			"stake":             bet.Stake,
			"target_multiplier": bet.Selection.TargetMultiplier,
			"won":               bet.Won,
			"payout":            bet.Payout,
			"new_balance":       balance,
		},
	})
}

// CurrentCrashRound exposes the live round without its crash point;
// the crash point stays hidden until the round busts.
func (h *GameHandler) CurrentCrashRound(c *gin.Context) {
	round, err := h.roundService.CurrentCrashRound(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := gin.H{
		"id":         round.ID,
		"status":     round.Status,
		"multiplier": round.Multiplier,
		"created_at": round.CreatedAt,
	}
	if round.Status == models.RoundStatusBusted {
		response["crash_point"] = round.CrashPoint
		response["ended_at"] = round.EndedAt
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   response,
	})
}

func (h *GameHandler) GetBalance(c *gin.Context) {
	userID := c.GetInt64("user_id")

	wallet, err := h.redisService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get wallet",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": gin.H{
			"balance":       wallet.Balance,
			"total_wagered": wallet.TotalWagered,
			"total_won":     wallet.TotalWon,
		},
	})
}

func (h *GameHandler) GetBetHistory(c *gin.Context) {
	userID := c.GetInt64("user_id")

	limit := parseLimit(c.DefaultQuery("limit", "50"))

	bets, err := h.redisService.GetUserBets(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get bet history",
			"details": err.Error(),
		})
		return
	}

	var response []gin.H
	for _, bet := range bets {
		response = append(response, gin.H{
			"id":         bet.ID,
			"round_id":   bet.RoundID,
			"game_type":  bet.GameType,
			"stake":      bet.Stake,
			"selection":  bet.Selection,
			"won":        bet.Won,
			"payout":     bet.Payout,
			"created_at": bet.CreatedAt,
			"settled_at": bet.SettledAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bets":    response,
		"count":   len(response),
	})
}

func (h *GameHandler) GetTransactions(c *gin.Context) {
	userID := c.GetInt64("user_id")

	limit := parseLimit(c.DefaultQuery("limit", "50"))

	transactions, err := h.redisService.GetUserTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get transactions",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": transactions,
		"count":        len(transactions),
	})
}

func parseLimit(limitStr string) int64 {
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
