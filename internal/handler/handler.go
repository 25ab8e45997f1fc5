package handler

import (
	"go.uber.org/zap"

	"github.com/tradewire/trade-broadcast/internal/auth"
	"github.com/tradewire/trade-broadcast/internal/ledger"
)

type Handler struct {
	Tokens *auth.Service
	Ledger *ledger.Ledger
	Hub    *Hub
}

func NewHandler(tokens *auth.Service, store *ledger.Ledger, logger *zap.Logger) *Handler {
	hub := NewHub(tokens, store, logger)
	go hub.Run()

	return &Handler{
		Tokens: tokens,
		Ledger: store,
		Hub:    hub,
	}
}
