package di

import (
	"fmt"
	"time"

	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/handler/api"
	"SignalDesk/internal/service/backend"
	"SignalDesk/internal/service/stream"
	"SignalDesk/internal/settings"
	"SignalDesk/internal/trade"
	"SignalDesk/internal/usecase"
	"SignalDesk/pkg/cache"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	"SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/server"
)

// ProvideLogger creates the application logger with the recent-log
// collector the dashboard reads from.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AddCollector(&logger.CollectionConfig{
		Capacity:  200,
		Retention: time.Hour,
	})
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStream creates the websocket transport to the signal backend.
func ProvideStream(cfg *config.Config, l *logger.Logger) repository.StreamTransport {
	return stream.New(cfg.Backend.WebSocketURL, l,
		stream.WithReconnect(cfg.Backend.ReconnectDelay, cfg.Backend.MaxReconnectDelay),
		stream.WithPingInterval(cfg.Backend.PingInterval),
	)
}

// ProvideSession creates the sync session over the stream transport.
func ProvideSession(t repository.StreamTransport, m repository.Metrics, l *logger.Logger) *usecase.Session {
	return usecase.NewSession(t, m, l)
}

// ProvideBackend creates the REST backend client with a local TTL cache
// for the slow-changing endpoints.
func ProvideBackend(cfg *config.Config, l *logger.Logger) repository.Backend {
	httpClient := xhttp.NewClient(xhttp.WithTimeout(cfg.Backend.RequestTimeout))
	memCache := cache.NewMemoryCache(
		cache.WithMemoryMaxSize(256),
		cache.WithMemoryCleanup(time.Minute),
	)
	return backend.New(cfg.Backend.RESTURL, httpClient, l,
		backend.WithCache(memCache, cfg.Cache.HistoryTTL, cfg.Cache.ChatTTL),
	)
}

// ProvideExecutor creates the paper-trade executor.
func ProvideExecutor(b repository.Backend, m repository.Metrics, l *logger.Logger) *trade.Executor {
	return trade.NewExecutor(b, m, l)
}

// ProvideSettingsSync creates the settings layer.
func ProvideSettingsSync(b repository.Backend, l *logger.Logger) *settings.Sync {
	return settings.NewSync(b, l)
}

// ProvideDashboardHandler creates the local gateway handler.
func ProvideDashboardHandler(
	l *logger.Logger,
	s *usecase.Session,
	e *trade.Executor,
	sync *settings.Sync,
	b repository.Backend,
) *api.DashboardHandler {
	return api.NewDashboardHandler(l, s, e, sync, b)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	s *usecase.Session,
	sync *settings.Sync,
	h *api.DashboardHandler,
) *server.App {
	return server.New(cfg, l, s, sync, h)
}
