package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"points-arcade-backend/internal/config"
	"points-arcade-backend/internal/handlers"
	"points-arcade-backend/internal/logger"
	"points-arcade-backend/internal/middleware"
	"points-arcade-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)
	ledger := services.NewLedger(redisService)
	generator := services.NewGenerator()
	broadcaster := services.NewRedisBroadcaster(redisService, zlog)

	roundService := services.NewRoundService(redisService, ledger, generator, broadcaster, zlog,
		cfg.CrashTickInterval, cfg.CrashIntermission)
	duelService := services.NewDuelService(redisService, ledger, broadcaster, zlog)
	exchangeService := services.NewExchangeService(redisService, ledger, broadcaster, zlog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go roundService.Run(ctx)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			roundService.CleanupStaleRounds(10 * time.Minute)
		}
	}()

	authHandler := handlers.NewAuthHandler(redisService, jwtService, cfg.TokenExpiry)
	userHandler := handlers.NewUserHandler(redisService)
	gameHandler := handlers.NewGameHandler(roundService, redisService)
	duelHandler := handlers.NewDuelHandler(duelService)
	exchangeHandler := handlers.NewExchangeHandler(exchangeService)
	wsHandler := handlers.NewWebSocketHandler(redisService, zlog)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/session", authHandler.CreateSession)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.POST("/logout", userHandler.Logout)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		games := protected.Group("/games")
		{
			games.POST("/play", gameHandler.PlayRound)
			games.GET("/balance", gameHandler.GetBalance)
			games.GET("/history", gameHandler.GetBetHistory)
			games.GET("/transactions", gameHandler.GetTransactions)

			crash := games.Group("/crash")
			{
				crash.GET("/current", gameHandler.CurrentCrashRound)
				crash.POST("/cashout", gameHandler.CrashCashout)
			}
		}

		duels := protected.Group("/duels")
		{
			duels.POST("", duelHandler.Challenge)
			duels.GET("", duelHandler.ListDuels)
			duels.GET("/:id", duelHandler.GetDuel)
			duels.POST("/:id/accept", duelHandler.Accept)
			duels.POST("/:id/decline", duelHandler.Decline)
			duels.POST("/:id/resolve", duelHandler.Resolve)
		}

		exchanges := protected.Group("/exchanges")
		{
			exchanges.POST("", exchangeHandler.Request)
			exchanges.GET("", exchangeHandler.ListExchanges)
			exchanges.POST("/:id/cancel", exchangeHandler.Cancel)
			exchanges.POST("/:id/complete", exchangeHandler.Complete)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	zlog.Info("server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
