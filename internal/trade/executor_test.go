package trade

import (
	"context"
	"errors"
	"sync"
	"testing"

	"SignalDesk/internal/domain/models"
	applogger "SignalDesk/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	requests []models.TradeRequest
	result   models.TradeResult
	err      error
}

func (f *fakeBackend) SubmitTrade(_ context.Context, req models.TradeRequest) (models.TradeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return models.TradeResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeBackend) PublishSettings(context.Context, models.AppSettings) error { return nil }
func (f *fakeBackend) PortfolioHistory(context.Context) ([]models.EquityPoint, error) {
	return nil, nil
}
func (f *fakeBackend) Watchlist(context.Context) ([]models.WatchlistEntry, error) { return nil, nil }
func (f *fakeBackend) WatchlistAdd(context.Context, string, string) error         { return nil }
func (f *fakeBackend) WatchlistRemove(context.Context, string) error              { return nil }
func (f *fakeBackend) Chat(context.Context, string) (string, error)               { return "", nil }

type nopMetrics struct{}

func (nopMetrics) RecordEvent(string)            {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordConnected(bool)          {}
func (nopMetrics) RecordSignalCount(int)         {}
func (nopMetrics) RecordEquity(float64)          {}
func (nopMetrics) RecordTrade(string, bool)      {}
func (nopMetrics) RecordLatency(string, float64) {}

func newTestExecutor(t *testing.T, backend *fakeBackend) *Executor {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return NewExecutor(backend, nopMetrics{}, l)
}

func validRequest() models.TradeRequest {
	return models.TradeRequest{Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 2, Price: 150}
}

func TestSubmit_Accepted(t *testing.T) {
	backend := &fakeBackend{result: models.TradeResult{Success: true, Message: "Bought 2 AAPL"}}
	e := newTestExecutor(t, backend)

	msg, err := e.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Bought 2 AAPL", msg)
	require.Len(t, backend.requests, 1)
}

func TestSubmit_InvalidQuantityRejectedLocally(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*models.TradeRequest)
	}{
		{"zero quantity", func(r *models.TradeRequest) { r.Quantity = 0 }},
		{"negative quantity", func(r *models.TradeRequest) { r.Quantity = -1 }},
		{"zero price", func(r *models.TradeRequest) { r.Price = 0 }},
		{"missing symbol", func(r *models.TradeRequest) { r.Symbol = "" }},
		{"bad side", func(r *models.TradeRequest) { r.Side = "SHORT" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			e := newTestExecutor(t, backend)

			req := validRequest()
			tt.mut(&req)

			_, err := e.Submit(context.Background(), req)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Empty(t, backend.requests, "invalid input must never reach the backend")
		})
	}
}

func TestSubmit_NormalizesLowercaseSide(t *testing.T) {
	backend := &fakeBackend{result: models.TradeResult{Success: true}}
	e := newTestExecutor(t, backend)

	req := validRequest()
	req.Side = "buy"
	_, err := e.Submit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, backend.requests, 1)
	assert.Equal(t, models.TradeSideBuy, backend.requests[0].Side)
}

func TestSubmit_NormalizesSymbolAndSetsIdempotencyKey(t *testing.T) {
	backend := &fakeBackend{result: models.TradeResult{Success: true}}
	e := newTestExecutor(t, backend)

	req := validRequest()
	req.Symbol = "  aapl "
	_, err := e.Submit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, backend.requests, 1)
	sent := backend.requests[0]
	assert.Equal(t, "AAPL", sent.Symbol)
	assert.NotEmpty(t, sent.RequestID)
}

func TestSubmit_DistinctIdempotencyKeysPerCall(t *testing.T) {
	backend := &fakeBackend{result: models.TradeResult{Success: true}}
	e := newTestExecutor(t, backend)

	_, err := e.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = e.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, backend.requests, 2)
	assert.NotEqual(t, backend.requests[0].RequestID, backend.requests[1].RequestID)
}

func TestSubmit_BackendRefusalSurfacedVerbatim(t *testing.T) {
	backend := &fakeBackend{err: models.NewExecutionError("Insufficient funds", errors.New("status 400"))}
	e := newTestExecutor(t, backend)

	_, err := e.Submit(context.Background(), validRequest())
	var execErr *models.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "Insufficient funds", execErr.Reason)
}

func TestSubmit_PlainErrorWrappedAsExecutionError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("dial tcp: connection refused")}
	e := newTestExecutor(t, backend)

	_, err := e.Submit(context.Background(), validRequest())
	var execErr *models.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "operation failed", execErr.Reason)
}

func TestClosePosition_FullSizeAtMark(t *testing.T) {
	backend := &fakeBackend{result: models.TradeResult{Success: true}}
	e := newTestExecutor(t, backend)

	h := models.Holding{Symbol: "TSLA", Quantity: 3, Price: 200}
	_, err := e.ClosePosition(context.Background(), h, models.TradeSideSell)
	require.NoError(t, err)

	require.Len(t, backend.requests, 1)
	sent := backend.requests[0]
	assert.Equal(t, models.TradeSideSell, sent.Side)
	assert.Equal(t, 3.0, sent.Quantity)
	assert.Equal(t, 200.0, sent.Price)
}
