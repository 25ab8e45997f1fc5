package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradewire/trade-broadcast/internal/ledger"
	"github.com/tradewire/trade-broadcast/internal/middleware"
)

// Pointer fields so absent keys are distinguishable from zero values; a
// missing qty must be rejected, qty 0 is a valid number.
type tradeRequest struct {
	Symbol *string  `json:"symbol"`
	Qty    *float64 `json:"qty"`
	Price  *float64 `json:"price"`
}

// ListTrades returns the full ledger in acceptance order.
func (h *Handler) ListTrades(c *gin.Context) {
	c.JSON(http.StatusOK, h.Ledger.List())
}

// SubmitTrade validates and appends a trade, then fans it out to every
// admitted subscriber before responding. The identity always comes from the
// authenticated token, never from the body.
func (h *Handler) SubmitTrade(c *gin.Context) {
	username, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trade fields"})
		return
	}
	if req.Symbol == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid symbol"})
		return
	}
	if req.Qty == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid qty"})
		return
	}
	if req.Price == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}

	trade, err := h.Ledger.Append(username, *req.Symbol, *req.Qty, *req.Price)
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trade fields"})
		return
	}

	h.Hub.Broadcast(trade)

	c.JSON(http.StatusCreated, trade)
}
