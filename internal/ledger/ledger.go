package ledger

import (
	"math"
	"regexp"
	"sync"
	"time"
)

// Trade is one accepted order record. The identity is always taken from the
// authenticated token, never from the request body.
type Trade struct {
	Symbol string  `json:"symbol"`
	Qty    float64 `json:"qty"`
	Price  float64 `json:"price"`
	User   string  `json:"user"`
	Time   int64   `json:"time"` // epoch millis, assigned at acceptance
}

// ValidationError reports which trade field failed validation.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field
}

var symbolPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Ledger is the append-only in-memory trade log. It is the single source of
// truth for both the HTTP read path and the snapshot sent to newly admitted
// subscribers.
type Ledger struct {
	mu     sync.RWMutex
	trades []Trade
}

func New() *Ledger {
	return &Ledger{}
}

// Append validates the submission and appends a fully constructed Trade.
// On any validation failure nothing is appended.
func (l *Ledger) Append(user, symbol string, qty, price float64) (Trade, error) {
	if !symbolPattern.MatchString(symbol) {
		return Trade{}, &ValidationError{Field: "symbol"}
	}
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return Trade{}, &ValidationError{Field: "qty"}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return Trade{}, &ValidationError{Field: "price"}
	}

	trade := Trade{
		Symbol: symbol,
		Qty:    qty,
		Price:  price,
		User:   user,
		Time:   time.Now().UnixMilli(),
	}

	l.mu.Lock()
	l.trades = append(l.trades, trade)
	l.mu.Unlock()

	return trade, nil
}

// List returns a snapshot of all trades in acceptance order. The returned
// slice is a copy and is never nil, so it serializes as a JSON array.
func (l *Ledger) List() []Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Len reports the number of accepted trades.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}
