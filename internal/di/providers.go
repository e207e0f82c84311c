package di

import (
	"context"
	"fmt"
	"time"

	"PulseFeed/internal/domain/repository"
	"PulseFeed/internal/handler/api"
	internalrepo "PulseFeed/internal/repository"
	svccache "PulseFeed/internal/service/cache"
	"PulseFeed/internal/service/candles"
	"PulseFeed/internal/service/exchange"
	"PulseFeed/internal/service/forecast"
	"PulseFeed/internal/service/ratelimit"
	"PulseFeed/internal/service/stream"
	"PulseFeed/internal/services/analytics"
	"PulseFeed/internal/store"
	"PulseFeed/internal/usecase"
	pkgcache "PulseFeed/pkg/cache"
	pkgch "PulseFeed/pkg/clickhouse"
	"PulseFeed/pkg/config"
	xhttp "PulseFeed/pkg/http"
	pkgkafka "PulseFeed/pkg/kafka"
	applogger "PulseFeed/pkg/logger"
	"PulseFeed/pkg/metrics"
	"PulseFeed/pkg/server"
)

// ProvideLogger creates the process logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBytesCache creates the bytes cache backing the candle client:
// layered memory/Redis when Redis is configured, memory-only otherwise.
func ProvideBytesCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	redis, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redis), nil
}

// ProvideArchive selects the snapshot archive backend. Type "none" yields a
// nil archive; the store treats that as archiving disabled.
func ProvideArchive(cfg *config.Config) (repository.SnapshotArchive, error) {
	switch cfg.Archive.Type {
	case "", "none":
		return nil, nil
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Archive.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Archive.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Archive.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Archive.Kafka.MaxAttempts),
			pkgkafka.WithWriteTimeout(cfg.Archive.Kafka.WriteTimeout),
			pkgkafka.WithAsync(cfg.Archive.Kafka.Async),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaArchive(producer, cfg.Archive.Kafka.Topic), nil
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.Archive.ClickHouse.Host),
			pkgch.WithPort(cfg.Archive.ClickHouse.Port),
			pkgch.WithDatabase(cfg.Archive.ClickHouse.Database),
			pkgch.WithCredentials(cfg.Archive.ClickHouse.User, cfg.Archive.ClickHouse.Password),
			pkgch.WithHTTP(cfg.Archive.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.Archive.ClickHouse.DialTimeout, cfg.Archive.ClickHouse.ReadTimeout, cfg.Archive.ClickHouse.WriteTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		archive := internalrepo.NewClickHouseArchive(client, cfg.Archive.ClickHouse.Table)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, archive.Schema()); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return archive, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Type)
	}
}

// ProvideStore creates the snapshot store. Load happens in App.Run.
func ProvideStore(cfg *config.Config, log *applogger.Logger, m repository.Metrics, archive repository.SnapshotArchive) *store.Store {
	opts := []store.Option{store.WithMetrics(m)}
	if archive != nil {
		opts = append(opts, store.WithArchive(archive))
	}
	return store.New(store.Config{
		Path:      cfg.Snapshots.Path,
		Retention: cfg.Snapshots.Retention,
	}, log, opts...)
}

// ProvideTTLs builds the per-resource TTL table from config, falling back
// to the defaults for unset entries.
func ProvideTTLs(cfg *config.Config) svccache.TTLTable {
	t := svccache.DefaultTTLs()
	if cfg.Cache.TokensTTL > 0 {
		t.Tokens = cfg.Cache.TokensTTL
	}
	if cfg.Cache.MarketsTTL > 0 {
		t.Markets = cfg.Cache.MarketsTTL
	}
	if cfg.Cache.PositionsTTL > 0 {
		t.Positions = cfg.Cache.PositionsTTL
	}
	if cfg.Cache.PositionInfoTTL > 0 {
		t.PositionInfo = cfg.Cache.PositionInfoTTL
	}
	if cfg.Cache.VolatilityTTL > 0 {
		t.Volatility = cfg.Cache.VolatilityTTL
	}
	if cfg.Cache.BoundsTTL > 0 {
		t.Bounds = cfg.Cache.BoundsTTL
	}
	return t
}

// ProvideFreshCache creates the freshness cache.
func ProvideFreshCache(ttls svccache.TTLTable, log *applogger.Logger, m repository.Metrics) *svccache.FreshCache {
	return svccache.New(ttls, log, svccache.WithMetrics(m))
}

// ProvideCooldown creates the gate spacing forecast-bounds requests.
func ProvideCooldown(cfg *config.Config, m repository.Metrics) *ratelimit.Cooldown {
	return ratelimit.New("forecast-bounds", cfg.Forecast.Cooldown, ratelimit.WithMetrics(m))
}

// ProvideMarketFetcher creates the exchange REST client.
func ProvideMarketFetcher(cfg *config.Config, log *applogger.Logger) repository.MarketFetcher {
	return exchange.NewClient(cfg, log)
}

// ProvideCandleFetcher creates the candle client with its bytes cache.
func ProvideCandleFetcher(cfg *config.Config, bytes pkgcache.Service, log *applogger.Logger) repository.CandleFetcher {
	return candles.NewClient(cfg, bytes, log)
}

// ProvideBoundsFetcher creates the cooldown-gated forecast client.
func ProvideBoundsFetcher(cfg *config.Config, gate *ratelimit.Cooldown, log *applogger.Logger) repository.BoundsFetcher {
	return forecast.NewClient(cfg, gate, log)
}

// ProvidePriceStream creates the live price stream.
func ProvidePriceStream(cfg *config.Config, log *applogger.Logger) repository.PriceStream {
	return stream.New(cfg, log)
}

// ProvideMarketData creates the market data facade.
func ProvideMarketData(
	fc *svccache.FreshCache,
	markets repository.MarketFetcher,
	candleFetcher repository.CandleFetcher,
	bounds repository.BoundsFetcher,
	snapshots *store.Store,
	log *applogger.Logger,
) *usecase.MarketData {
	return usecase.NewMarketData(fc, markets, candleFetcher, bounds, snapshots, log)
}

// ProvideEngine creates the percentile/trend engine.
func ProvideEngine(snapshots *store.Store, log *applogger.Logger) *analytics.Engine {
	return analytics.NewEngine(snapshots, log)
}

// ProvideHandler bundles the HTTP handlers.
func ProvideHandler(
	log *applogger.Logger,
	data *usecase.MarketData,
	engine *analytics.Engine,
	snapshots *store.Store,
	priceStream repository.PriceStream,
) xhttp.Handler {
	return api.NewRouter(
		api.NewMarketDataHandler(log, data),
		api.NewAnalysisHandler(log, engine, snapshots, priceStream),
	)
}

// ProvideHTTPServer creates the Echo server with the API routes.
func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, handler xhttp.Handler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if !cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(""))
	} else if cfg.Metrics.Path != "" {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	}
	return xhttp.NewServer(log, handler, opts...)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	priceStream repository.PriceStream,
	snapshots *store.Store,
	archive repository.SnapshotArchive,
) *server.App {
	return server.New(cfg, log, httpServer, priceStream, snapshots, archive)
}
