package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/settings"
	"SignalDesk/internal/trade"
	"SignalDesk/internal/usecase"
	applogger "SignalDesk/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	events chan models.StreamEvent
	errs   chan error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan models.StreamEvent, 16), errs: make(chan error, 16)}
}

func (f *fakeTransport) Connect(context.Context) error { return nil }
func (f *fakeTransport) Read(context.Context) (<-chan models.StreamEvent, <-chan error) {
	return f.events, f.errs
}
func (f *fakeTransport) Send(context.Context, models.StreamEvent) error { return nil }
func (f *fakeTransport) Close() error                                   { return nil }
func (f *fakeTransport) IsConnected() bool                              { return true }

type fakeBackend struct {
	mu        sync.Mutex
	trades    []models.TradeRequest
	tradeErr  error
	published []models.AppSettings
	watchlist []models.WatchlistEntry
	history   []models.EquityPoint
}

func (f *fakeBackend) SubmitTrade(_ context.Context, req models.TradeRequest) (models.TradeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tradeErr != nil {
		return models.TradeResult{}, f.tradeErr
	}
	f.trades = append(f.trades, req)
	return models.TradeResult{Success: true, Message: "executed"}, nil
}

func (f *fakeBackend) PublishSettings(_ context.Context, s models.AppSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, s)
	return nil
}

func (f *fakeBackend) PortfolioHistory(context.Context) ([]models.EquityPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.history != nil {
		return f.history, nil
	}
	return []models.EquityPoint{{Time: "2026-01-02", Equity: 10100}}, nil
}

func (f *fakeBackend) Watchlist(context.Context) ([]models.WatchlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watchlist, nil
}

func (f *fakeBackend) WatchlistAdd(context.Context, string, string) error { return nil }
func (f *fakeBackend) WatchlistRemove(context.Context, string) error      { return nil }
func (f *fakeBackend) Chat(_ context.Context, msg string) (string, error) {
	return "echo: " + msg, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordEvent(string)            {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordConnected(bool)          {}
func (nopMetrics) RecordSignalCount(int)         {}
func (nopMetrics) RecordEquity(float64)          {}
func (nopMetrics) RecordTrade(string, bool)      {}
func (nopMetrics) RecordLatency(string, float64) {}

type fixture struct {
	echo      *echo.Echo
	backend   *fakeBackend
	transport *fakeTransport
	session   *usecase.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	tr := newFakeTransport()
	backend := &fakeBackend{}
	session := usecase.NewSession(tr, nopMetrics{}, l)
	executor := trade.NewExecutor(backend, nopMetrics{}, l)
	settingsSync := settings.NewSync(backend, l)

	h := NewDashboardHandler(l, session, executor, settingsSync, backend)
	e := echo.New()
	h.RegisterRoutes(e)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, session.Start(ctx))

	return &fixture{echo: e, backend: backend, transport: tr, session: session}
}

func (f *fixture) pushSnapshot(t *testing.T, payload string) {
	t.Helper()
	f.transport.events <- models.StreamEvent{Type: models.EventInitialData, Payload: json.RawMessage(payload)}
	require.Eventually(t, f.session.SnapshotSeen, time.Second, 5*time.Millisecond)
}

func (f *fixture) request(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.request(http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data struct {
			Status       string `json:"status"`
			SnapshotSeen bool   `json:"snapshot_seen"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "connecting", out.Data.Status)
	assert.False(t, out.Data.SnapshotSeen)
}

func TestSignalsEndpointFilters(t *testing.T) {
	f := newFixture(t)
	f.pushSnapshot(t, `{"signals":[
		{"symbol":"AAPL","decision":"BUY"},
		{"symbol":"TSLA","decision":"SELL"}
	]}`)

	rec := f.request(http.MethodGet, "/api/signals?q=tsla", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data struct {
			Rows  []models.Signal `json:"rows"`
			Total int64           `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data.Rows, 1)
	assert.Equal(t, "TSLA", out.Data.Rows[0].Symbol)
}

func TestPortfolioBeforeSnapshotIs404(t *testing.T) {
	f := newFixture(t)
	rec := f.request(http.MethodGet, "/api/portfolio", "")
	require.Equal(t, http.StatusOK, rec.Code) // envelope carries the real status

	var out struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, http.StatusNotFound, out.Status)
}

func TestPortfolioHistoryFromFilter(t *testing.T) {
	f := newFixture(t)
	f.backend.history = []models.EquityPoint{
		{Time: "2026-01-01", Equity: 10000},
		{Time: "2026-01-02", Equity: 10100},
		{Time: "2026-01-03T09:30:00Z", Equity: 10200},
	}

	rec := f.request(http.MethodGet, "/api/portfolio/history?from=2026-01-02", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data struct {
			Rows  []models.EquityPoint `json:"rows"`
			Total int64                `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data.Rows, 2)
	assert.Equal(t, "2026-01-02", out.Data.Rows[0].Time)
	assert.Equal(t, 10200.0, out.Data.Rows[1].Equity)
	assert.Equal(t, int64(3), out.Data.Total) // pre-filter total
}

func TestTradeEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.request(http.MethodPost, "/api/trade", `{"symbol":"aapl","side":"BUY","quantity":2,"price":150}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.backend.trades, 1)
	assert.Equal(t, "AAPL", f.backend.trades[0].Symbol)
	assert.NotEmpty(t, f.backend.trades[0].RequestID)
}

func TestTradeEndpointValidationFailure(t *testing.T) {
	f := newFixture(t)

	rec := f.request(http.MethodPost, "/api/trade", `{"symbol":"AAPL","side":"BUY","quantity":0,"price":150}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.backend.trades)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestTradeEndpointBackendRefusal(t *testing.T) {
	f := newFixture(t)
	f.backend.tradeErr = models.NewExecutionError("Insufficient funds", errors.New("status 400"))

	rec := f.request(http.MethodPost, "/api/trade", `{"symbol":"AAPL","side":"BUY","quantity":2,"price":150}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Insufficient funds", out["error"])
}

func TestSaveSettingsPublishesWholeObject(t *testing.T) {
	f := newFixture(t)

	rec := f.request(http.MethodPost, "/api/settings", `{
		"analysis":{"rsi_overbought":75,"rsi_oversold":25,"min_confidence":60},
		"ui":{"theme":"light","compact_mode":true},
		"notifications":{"telegram_enabled":false,"browser_push_enabled":true}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.backend.published, 1)
	sent := f.backend.published[0]
	assert.Equal(t, 75.0, sent.Analysis.RSIOverbought)
	assert.Equal(t, "light", sent.UI.Theme)
	assert.True(t, sent.UI.CompactMode)
	assert.False(t, sent.Notifications.TelegramEnabled)
}

func TestChatEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.request(http.MethodPost, "/api/chat", `{"message":"why did AAPL move"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echo: why did AAPL move")
}

func TestChatEndpointRequiresMessage(t *testing.T) {
	f := newFixture(t)

	rec := f.request(http.MethodPost, "/api/chat", `{}`)
	var out struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, http.StatusBadRequest, out.Status)
}
