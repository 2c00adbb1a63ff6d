package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SignalDesk/internal/handler/api"
	"SignalDesk/internal/settings"
	"SignalDesk/internal/usecase"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	session    *usecase.Session
	settings   *settings.Sync
	handler    *api.DashboardHandler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	session *usecase.Session,
	settingsSync *settings.Sync,
	handler *api.DashboardHandler,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		session:  session,
		settings: settingsSync,
		handler:  handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Push server-side settings changes into the settings layer as they
	// arrive on the stream. Staged local edits keep shadowing them.
	a.session.Subscribe(func(kind usecase.ChangeKind) {
		if kind != usecase.ChangeSettings {
			return
		}
		if err := a.settings.ApplyServer(a.session.SettingsRaw()); err != nil {
			a.logger.Warn("apply server settings", applogger.Error(err))
		}
	})

	if err := a.session.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("sync session started", applogger.String("ws_url", a.cfg.Backend.WebSocketURL))

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsEndpoint(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path),
		xhttp.WithRequestMetrics(a.logger, time.Second),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("dashboard gateway listening", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.session.Close(); err != nil {
		a.logger.Warn("session close error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}
