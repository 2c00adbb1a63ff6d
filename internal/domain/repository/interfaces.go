package repository

import (
	"context"

	"SignalDesk/internal/domain/models"
)

// StreamTransport is the persistent push connection to the backend.
// Implementations own reconnection; Read's error channel reports
// transient failures that were or will be retried, never a give-up.
type StreamTransport interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.StreamEvent, <-chan error)
	Send(ctx context.Context, event models.StreamEvent) error
	Close() error
	IsConnected() bool
}

// Backend is the request/response side of the backend contract.
type Backend interface {
	SubmitTrade(ctx context.Context, req models.TradeRequest) (models.TradeResult, error)
	PublishSettings(ctx context.Context, s models.AppSettings) error
	PortfolioHistory(ctx context.Context) ([]models.EquityPoint, error)
	Watchlist(ctx context.Context) ([]models.WatchlistEntry, error)
	WatchlistAdd(ctx context.Context, symbol, category string) error
	WatchlistRemove(ctx context.Context, symbol string) error
	Chat(ctx context.Context, message string) (string, error)
}

// Metrics records client-side observability signals.
type Metrics interface {
	RecordEvent(kind string)
	RecordError(kind string)
	RecordConnected(connected bool)
	RecordSignalCount(n int)
	RecordEquity(v float64)
	RecordTrade(side string, ok bool)
	RecordLatency(op string, seconds float64)
}
