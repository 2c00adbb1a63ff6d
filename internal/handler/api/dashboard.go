package api

import (
	"errors"
	"net/http"
	"time"

	models "SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/query"
	"SignalDesk/internal/settings"
	"SignalDesk/internal/trade"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	xlogger "SignalDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardHandler is the local gateway for the presentation layer: a
// read-only mirror of the session plus thin delegates to the trade,
// settings, watchlist and chat components. It never talks to the
// backend's streaming side itself.
type DashboardHandler struct {
	logger   *xlogger.Logger
	session  *usecase.Session
	executor *trade.Executor
	settings *settings.Sync
	backend  drepo.Backend
}

func NewDashboardHandler(
	logger *xlogger.Logger,
	session *usecase.Session,
	executor *trade.Executor,
	settingsSync *settings.Sync,
	backend drepo.Backend,
) *DashboardHandler {
	return &DashboardHandler{
		logger:   logger,
		session:  session,
		executor: executor,
		settings: settingsSync,
		backend:  backend,
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/signals", h.Signals)
	g.GET("/signals/:symbol", h.Signal)
	g.GET("/summary", h.Summary)
	g.GET("/news", h.News)
	g.GET("/portfolio", h.Portfolio)
	g.GET("/portfolio/history", h.PortfolioHistory)
	g.GET("/settings", h.Settings)
	g.POST("/settings", h.SaveSettings)
	g.GET("/watchlist", h.Watchlist)
	g.POST("/watchlist/add", h.WatchlistAdd)
	g.POST("/watchlist/remove", h.WatchlistRemove)
	g.POST("/trade", h.Trade)
	g.POST("/chat", h.Chat)
	g.POST("/refresh", h.Refresh)
	g.GET("/logs", h.Logs)
}

func (h *DashboardHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Status reports the session state machine plus the advisory staleness
// flag so the renderer can show a persistent, non-blocking banner.
func (h *DashboardHandler) Status(c echo.Context) error {
	out := map[string]interface{}{
		"status":        string(h.session.Status()),
		"snapshot_seen": h.session.SnapshotSeen(),
		"dirty":         h.settings.Dirty(),
	}
	if warn, ok := h.session.Stale(); ok {
		out["stale_since"] = warn.Since.UTC().Format(time.RFC3339)
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *DashboardHandler) Signals(c echo.Context) error {
	signals := query.Filter(h.session.Signals(), c.QueryParam("q"))
	total := len(signals)
	if limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0); limit > 0 && limit < len(signals) {
		signals = signals[:limit]
	}
	return xhttp.ListResponse(c, signals, int64(total))
}

func (h *DashboardHandler) Signal(c echo.Context) error {
	symbol := c.Param("symbol")
	for _, s := range h.session.Signals() {
		if s.Symbol == symbol {
			return xhttp.SuccessResponse(c, s)
		}
	}
	return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no signal for %s", symbol))
}

func (h *DashboardHandler) Summary(c echo.Context) error {
	return xhttp.SuccessResponse(c, query.Summarize(h.session.Signals()))
}

func (h *DashboardHandler) News(c echo.Context) error {
	news := h.session.News()
	total := len(news)
	if limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0); limit > 0 && limit < len(news) {
		news = news[:limit]
	}
	return xhttp.ListResponse(c, news, int64(total))
}

func (h *DashboardHandler) Portfolio(c echo.Context) error {
	p, ok := h.session.Portfolio()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("portfolio not received yet"))
	}
	return xhttp.SuccessResponse(c, p)
}

// PortfolioHistory returns the equity series, optionally filtered to
// points at or after ?from= (RFC3339 or bare date). Points whose
// timestamp cannot be parsed are kept rather than silently dropped.
func (h *DashboardHandler) PortfolioHistory(c echo.Context) error {
	history, err := h.backend.PortfolioHistory(c.Request().Context())
	if err != nil {
		h.logger.Error("history fetch error", xlogger.Error(err))
		return h.upstreamError(c, err)
	}
	total := len(history)
	if from, ok := xhttp.ParseTime(c.QueryParam("from")); ok {
		filtered := make([]models.EquityPoint, 0, len(history))
		for _, p := range history {
			if t, ok := xhttp.ParseTime(p.Time); ok && t.Before(from) {
				continue
			}
			filtered = append(filtered, p)
		}
		history = filtered
	}
	return xhttp.ListResponse(c, history, int64(total))
}

func (h *DashboardHandler) Settings(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.settings.Working())
}

// SaveSettings stages the posted object and publishes it wholesale.
// The body is decoded over the current working copy, not a zero value:
// a leaf the caller omits keeps its working value, and an explicit
// false survives instead of being re-defaulted.
func (h *DashboardHandler) SaveSettings(c echo.Context) error {
	req := h.settings.Working()
	if err := c.Bind(&req); err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{Code: "ERR_BIND", Message: err.Error()}})
	}
	if err := h.settings.StageObject(req); err != nil {
		return h.upstreamError(c, err)
	}
	if err := h.settings.Publish(c.Request().Context()); err != nil {
		return h.upstreamError(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]bool{"success": true})
}

func (h *DashboardHandler) Watchlist(c echo.Context) error {
	entries, err := h.backend.Watchlist(c.Request().Context())
	if err != nil {
		return h.upstreamError(c, err)
	}
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

type watchlistAddRequest struct {
	Symbol   string `json:"symbol" validate:"required"`
	Category string `json:"category"`
}

func (h *DashboardHandler) WatchlistAdd(c echo.Context) error {
	req := &watchlistAddRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.backend.WatchlistAdd(c.Request().Context(), req.Symbol, req.Category); err != nil {
		return h.upstreamError(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]bool{"success": true})
}

type watchlistRemoveRequest struct {
	Symbol string `json:"symbol" validate:"required"`
}

func (h *DashboardHandler) WatchlistRemove(c echo.Context) error {
	req := &watchlistRemoveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.backend.WatchlistRemove(c.Request().Context(), req.Symbol); err != nil {
		return h.upstreamError(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]bool{"success": true})
}

func (h *DashboardHandler) Trade(c echo.Context) error {
	req := &models.TradeRequest{}
	if err := c.Bind(req); err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{Code: "ERR_BIND", Message: err.Error()}})
	}
	msg, err := h.executor.Submit(c.Request().Context(), *req)
	if err != nil {
		return h.upstreamError(c, err)
	}
	return xhttp.SuccessResponse(c, models.TradeResult{Success: true, Message: msg})
}

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

func (h *DashboardHandler) Chat(c echo.Context) error {
	req := &chatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	answer, err := h.backend.Chat(c.Request().Context(), req.Message)
	if err != nil {
		return h.upstreamError(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"response": answer})
}

func (h *DashboardHandler) Refresh(c echo.Context) error {
	h.session.RequestRefresh(c.Request().Context())
	return xhttp.SuccessResponse(c, map[string]bool{"requested": true})
}

// Logs exposes the recent aggregated warning/error log for display.
func (h *DashboardHandler) Logs(c echo.Context) error {
	entries := h.logger.RecentLogs()
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

// upstreamError maps domain errors onto the wire convention: the
// backend's reason text travels verbatim in an {"error": ...} body.
func (h *DashboardHandler) upstreamError(c echo.Context, err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": verr.Error()})
	}
	var execErr *models.ExecutionError
	if errors.As(err, &execErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": execErr.Reason})
	}
	var connErr *models.ConnectionError
	if errors.As(err, &connErr) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "backend unavailable"})
	}
	return xhttp.InternalServerErrorResponse(c)
}
