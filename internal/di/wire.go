//go:build wireinject
// +build wireinject

package di

import (
	"SignalDesk/pkg/config"
	"SignalDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Backend clients
		ProvideStream,
		ProvideBackend,

		// Use cases
		ProvideSession,
		ProvideExecutor,
		ProvideSettingsSync,

		// Gateway and application server
		ProvideDashboardHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
