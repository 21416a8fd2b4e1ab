//go:build wireinject
// +build wireinject

package di

import (
	"StockPulse/pkg/config"
	"StockPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideAPIMetrics,

		// Cache tiers
		ProvideCacheStore,
		ProvideRedisMirror,
		ProvideSweeper,

		// Upstream
		ProvideMarketGateway,

		// Use cases
		ProvideResolver,
		ProvideMarketService,

		// HTTP
		ProvideLimiter,
		ProvideMarketHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
