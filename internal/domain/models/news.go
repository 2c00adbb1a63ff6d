package models

import "time"

// NewsItem is one ingested news item. Immutable once received.
type NewsItem struct {
	ID            int64     `json:"id"` // unique within a session
	Source        string    `json:"source"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Link          string    `json:"link"`
	Published     time.Time `json:"published"`
	Category      string    `json:"category"`
	Sentiment     Sentiment `json:"sentiment"`
	MatchedSymbol string    `json:"matched_symbol,omitempty"`
}
