package models

import "time"

// Decision is the backend's recommendation for a symbol.
type Decision string

const (
	DecisionStrongBuy  Decision = "STRONG_BUY"
	DecisionBuy        Decision = "BUY"
	DecisionHold       Decision = "HOLD"
	DecisionSell       Decision = "SELL"
	DecisionStrongSell Decision = "STRONG_SELL"
)

// IsBuy reports whether the decision is on the buy side.
func (d Decision) IsBuy() bool { return d == DecisionBuy || d == DecisionStrongBuy }

// IsSell reports whether the decision is on the sell side.
func (d Decision) IsSell() bool { return d == DecisionSell || d == DecisionStrongSell }

// Sentiment carries the server-computed sentiment for a signal or news item.
// Label is authoritative; the client never re-derives it from Score.
type Sentiment struct {
	Score     float64 `json:"score"` // [-1, 1]
	Label     string  `json:"label"` // positive | negative | neutral
	NewsCount int     `json:"news_count,omitempty"`
}

// Technical holds the optional technical-analysis block of a signal.
type Technical struct {
	RSI      *float64 `json:"rsi,omitempty"`
	Trend    string   `json:"trend,omitempty"`
	Decision string   `json:"decision,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

// PriceInfo holds the current price and optional change percentages.
type PriceInfo struct {
	Current  float64  `json:"current"`
	Change1D *float64 `json:"change_1d,omitempty"`
	Change5D *float64 `json:"change_5d,omitempty"`
}

// Signal is one backend-computed trading recommendation. A signal is
// immutable once received except AIExplanation, which the backend may
// populate later for the same Symbol+Timestamp identity.
type Signal struct {
	Symbol        string     `json:"symbol"`
	Decision      Decision   `json:"decision"`
	CombinedScore float64    `json:"combined_score"`
	Confidence    float64    `json:"confidence"` // [0, 100]
	Sentiment     Sentiment  `json:"sentiment"`
	Technical     *Technical `json:"technical,omitempty"`
	Price         PriceInfo  `json:"price"`
	Reasons       []string   `json:"reasons"`
	AIExplanation string     `json:"ai_explanation,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Key returns the identity of the signal. A later payload with the same
// key is an in-place update (typically a late AI explanation), not a new
// signal.
func (s *Signal) Key() string {
	return s.Symbol + "@" + s.Timestamp.UTC().Format(time.RFC3339Nano)
}
