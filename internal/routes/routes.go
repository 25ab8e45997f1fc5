package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradewire/trade-broadcast/internal/handler"
	"github.com/tradewire/trade-broadcast/internal/middleware"
)

func HealthRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func AuthRoutes(r *gin.Engine, h *handler.Handler) {
	auth := r.Group("/auth")

	auth.POST("/login", h.Login)
}

func TradeRoutes(r *gin.Engine, h *handler.Handler) {
	trades := r.Group("/trades")
	trades.Use(middleware.RequireAuth(h.Tokens))

	trades.GET("", h.ListTrades)
	trades.POST("", h.SubmitTrade)
}

func WebSocketRoutes(r *gin.Engine, h *handler.Handler) {
	r.GET("/ws", h.Hub.HandleWebSocket)
}
