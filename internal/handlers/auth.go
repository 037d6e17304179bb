package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"points-arcade-backend/internal/models"
	"points-arcade-backend/internal/services"
)

type AuthHandler struct {
	redisService *services.RedisService
	jwtService   *services.JWTService
	tokenExpiry  time.Duration
}

func NewAuthHandler(redisService *services.RedisService, jwtService *services.JWTService, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		redisService: redisService,
		jwtService:   jwtService,
		tokenExpiry:  tokenExpiry,
	}
}

type sessionRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username"`
}

// CreateSession issues a token for the given user and provisions the
// wallet if this is their first visit.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	now := time.Now().Unix()
	session := &models.UserSession{
		ID:           req.UserID,
		SessionID:    uuid.New().String(),
		Username:     req.Username,
		CreatedAt:    now,
		LastAccessed: now,
	}

	if err := h.redisService.StoreUserSession(c.Request.Context(), session, h.tokenExpiry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	token, err := h.jwtService.GenerateToken(req.UserID, session.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	wallet, err := h.redisService.GetWallet(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"session_id": session.SessionID,
		"user": gin.H{
			"id":       req.UserID,
			"username": req.Username,
			"balance":  wallet.Balance,
		},
	})
}
