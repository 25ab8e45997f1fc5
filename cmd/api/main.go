package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tradewire/trade-broadcast/internal/auth"
	"github.com/tradewire/trade-broadcast/internal/config"
	"github.com/tradewire/trade-broadcast/internal/handler"
	"github.com/tradewire/trade-broadcast/internal/ledger"
	"github.com/tradewire/trade-broadcast/internal/routes"
)

func main() {
	godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	r := gin.Default()
	r.SetTrustedProxies(nil)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	tokens := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	store := ledger.New()

	handle := handler.NewHandler(tokens, store, logger)

	routes.HealthRoutes(r)
	routes.AuthRoutes(r, handle)
	routes.TradeRoutes(r, handle)
	routes.WebSocketRoutes(r, handle)

	logger.Info("listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
