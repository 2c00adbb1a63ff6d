// Package backend implements the request/response side of the backend
// contract over its REST API.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	"SignalDesk/pkg/cache"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

// Client talks to the backend REST service. Read-mostly endpoints
// (history, chat) are cached briefly in memory; mutations never are.
type Client struct {
	baseURL    string
	http       *xhttp.Client
	cache      cache.Service
	historyTTL time.Duration
	chatTTL    time.Duration
	log        *applogger.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithCache enables response caching for history and chat.
func WithCache(c cache.Service, historyTTL, chatTTL time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.historyTTL = historyTTL
		cl.chatTTL = chatTTL
	}
}

// New creates a backend REST client.
func New(baseURL string, httpClient *xhttp.Client, log *applogger.Logger, opts ...Option) drepo.Backend {
	c := &Client{
		baseURL:    baseURL,
		http:       httpClient,
		historyTTL: 30 * time.Second,
		chatTTL:    time.Minute,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitTrade posts a paper trade. The idempotency key travels as the
// X-Request-ID header; backends that predate it simply ignore it.
func (c *Client) SubmitTrade(ctx context.Context, req models.TradeRequest) (models.TradeResult, error) {
	headers := map[string]string{}
	if req.RequestID != "" {
		headers["X-Request-ID"] = req.RequestID
	}
	var res models.TradeResult
	if err := c.do(ctx, xhttp.MethodPost, "/api/trade", headers, req, &res); err != nil {
		return models.TradeResult{}, err
	}
	return res, nil
}

// PublishSettings sends the full settings object, all three groups.
func (c *Client) PublishSettings(ctx context.Context, s models.AppSettings) error {
	var res struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, xhttp.MethodPost, "/api/settings", nil, s, &res)
}

// PortfolioHistory fetches the equity series, oldest to newest.
func (c *Client) PortfolioHistory(ctx context.Context) ([]models.EquityPoint, error) {
	key := cache.GenerateKey("portfolio", "history")
	var history []models.EquityPoint
	if c.cachedGet(ctx, key, &history) {
		return history, nil
	}

	var res struct {
		Success bool                 `json:"success"`
		History []models.EquityPoint `json:"history"`
	}
	if err := c.do(ctx, xhttp.MethodGet, "/api/portfolio/history", nil, nil, &res); err != nil {
		return nil, err
	}
	c.cachedSet(ctx, key, res.History, c.historyTTL)
	return res.History, nil
}

// Watchlist fetches the tracked symbol set.
func (c *Client) Watchlist(ctx context.Context) ([]models.WatchlistEntry, error) {
	var res struct {
		Watchlist []models.WatchlistEntry `json:"watchlist"`
	}
	if err := c.do(ctx, xhttp.MethodGet, "/api/watchlist", nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Watchlist, nil
}

// WatchlistAdd adds a symbol. The backend rejects duplicates with an
// error, which is surfaced verbatim rather than merged silently.
func (c *Client) WatchlistAdd(ctx context.Context, symbol, category string) error {
	body := map[string]string{"symbol": symbol, "category": category}
	var res struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, xhttp.MethodPost, "/api/watchlist/add", nil, body, &res)
}

// WatchlistRemove removes a symbol.
func (c *Client) WatchlistRemove(ctx context.Context, symbol string) error {
	body := map[string]string{"symbol": symbol}
	var res struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, xhttp.MethodPost, "/api/watchlist/remove", nil, body, &res)
}

// Chat sends one message to the stateless assistant endpoint.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	key := cache.GenerateKey("chat", cache.HashKey(message))
	var cached string
	if c.cachedGet(ctx, key, &cached) {
		return cached, nil
	}

	var res struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, xhttp.MethodPost, "/api/chat", nil, map[string]string{"message": message}, &res); err != nil {
		return "", err
	}
	c.cachedSet(ctx, key, res.Response, c.chatTTL)
	return res.Response, nil
}

// do sends a request and decodes the JSON response. Non-2xx answers
// become ExecutionErrors carrying the backend's {"error": ...} reason
// when present.
func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, dest interface{}) error {
	opts := &xhttp.RequestOptions{
		Method:  method,
		URL:     c.baseURL + path,
		Headers: headers,
		Body:    body,
	}
	resp, err := c.http.SendRequest(ctx, opts)
	if err != nil {
		return &models.ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var fail struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &fail)
		return models.NewExecutionError(fail.Error, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	}

	if dest == nil || len(raw) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) cachedGet(ctx context.Context, key string, dest interface{}) bool {
	if c.cache == nil {
		return false
	}
	var raw string
	if err := c.cache.Get(ctx, key, &raw); err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false
	}
	return true
}

func (c *Client) cachedSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.cache == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(raw), ttl); err != nil {
		c.log.Debug("cache set failed", applogger.Error(err))
	}
}
