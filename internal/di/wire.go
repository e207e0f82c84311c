//go:build wireinject
// +build wireinject

package di

import (
	"PulseFeed/pkg/config"
	"PulseFeed/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideBytesCache,
		ProvideArchive,
		ProvideStore,

		// Freshness layer
		ProvideTTLs,
		ProvideFreshCache,
		ProvideCooldown,

		// Upstream clients
		ProvideMarketFetcher,
		ProvideCandleFetcher,
		ProvideBoundsFetcher,
		ProvidePriceStream,

		// Use cases and analytics
		ProvideMarketData,
		ProvideEngine,

		// HTTP surface
		ProvideHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
