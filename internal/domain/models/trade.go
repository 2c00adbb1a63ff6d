package models

import (
	"fmt"
	"strings"
)

// TradeSide is the direction of a paper trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// TradeSideFromString parses a side case-insensitively.
func TradeSideFromString(value string) (TradeSide, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY":
		return TradeSideBuy, nil
	case "SELL":
		return TradeSideSell, nil
	default:
		return "", fmt.Errorf("invalid trade side: %q", value)
	}
}

// TradeRequest is a paper-trade submission. Price is the currently
// displayed mark, passed along verbatim rather than re-derived.
// RequestID is the client-generated idempotency key, carried as the
// X-Request-ID header rather than in the body so the wire contract
// stays unchanged for backends that ignore it.
type TradeRequest struct {
	Symbol   string    `json:"symbol" validate:"required"`
	Side     TradeSide `json:"side" validate:"required,oneof=BUY SELL"`
	Quantity float64   `json:"quantity" validate:"required,gt=0"`
	Price    float64   `json:"price" validate:"required,gt=0"`

	RequestID string `json:"-"`
}

// TradeResult is the backend's confirmation of an accepted trade.
// Message is opaque display text.
type TradeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
