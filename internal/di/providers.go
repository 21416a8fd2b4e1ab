package di

import (
	"io"
	"time"

	"StockPulse/internal/domain/repository"
	"StockPulse/internal/handler/api"
	"StockPulse/internal/service/cache"
	imetrics "StockPulse/internal/service/metrics"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/service/retry"
	"StockPulse/internal/service/yahoo"
	"StockPulse/internal/usecase"
	pkgcache "StockPulse/pkg/cache"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/server"
	"StockPulse/pkg/util"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// idle throttle buckets older than this are dropped on every cache sweep
const limiterIdle = 10 * time.Minute

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
}

// ProvideRegistry creates the Prometheus registry shared by every collector.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegistry(reg)
}

// ProvideAPIMetrics creates per-endpoint handler metrics.
func ProvideAPIMetrics(reg *prometheus.Registry) *imetrics.API {
	return imetrics.NewAPI(reg)
}

// ProvideCacheStore creates the in-process TTL store.
func ProvideCacheStore(cfg *config.Config) *cache.Store {
	return cache.NewStore(
		cache.WithTTL(cache.Realtime, cfg.Cache.RealtimeTTL),
		cache.WithTTL(cache.Market, cfg.Cache.MarketTTL),
		cache.WithTTL(cache.Search, cfg.Cache.SearchTTL),
		cache.WithTTL(cache.Historical, cfg.Cache.HistoricalTTL),
	)
}

// ProvideRedisMirror connects the optional shared stale tier. It returns nil when redis is
// disabled or unreachable; the service then runs memory-only.
func ProvideRedisMirror(cfg *config.Config, l *applogger.Logger) *pkgcache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdle, cfg.Redis.Dial),
		pkgcache.WithRedisDialTimeout(cfg.Redis.Dial),
	)
	if err != nil {
		l.Warn("redis mirror unavailable, continuing memory-only", applogger.Error(err))
		return nil
	}
	l.Info("redis mirror connected", applogger.String("host", cfg.Redis.Host), applogger.Int("port", cfg.Redis.Port))
	return rc
}

// ProvideMarketGateway creates the Yahoo Finance gateway.
func ProvideMarketGateway(cfg *config.Config, l *applogger.Logger) repository.MarketGateway {
	yahoo.ConfigureBackend(cfg.Upstream.Timeout)
	return yahoo.NewClient(
		yahoo.WithLogger(l.With(applogger.String("component", "yahoo"))),
		yahoo.WithTimeout(cfg.Upstream.Timeout),
		yahoo.WithRateLimit(cfg.Upstream.RateLimit, cfg.Upstream.RateBurst),
		yahoo.WithCourtesyDelay(cfg.Upstream.CourtesyMin, cfg.Upstream.CourtesyMax),
		yahoo.WithEndpoints(cfg.Upstream.SearchURL, cfg.Upstream.SummaryURL),
		yahoo.WithHTTPClient(xhttp.NewClient(
			xhttp.WithTimeout(cfg.Upstream.Timeout),
			xhttp.WithUserAgent(cfg.Upstream.UserAgent),
		)),
	)
}

// ProvideResolver creates the fallback resolver.
func ProvideResolver(
	cfg *config.Config,
	store *cache.Store,
	mirror *pkgcache.RedisCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Resolver {
	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Jitter:      cfg.Retry.Jitter,
	}
	opts := []usecase.ResolverOption{usecase.WithBudget(cfg.Retry.Budget)}
	if mirror != nil {
		opts = append(opts, usecase.WithMirror(mirror, cfg.Redis.TTL))
	}
	return usecase.NewResolver(store, policy, m, l, opts...)
}

// ProvideMarketService creates the market assemblers.
func ProvideMarketService(cfg *config.Config, gw repository.MarketGateway, r *usecase.Resolver, l *applogger.Logger) *usecase.MarketService {
	loc, ok := util.LoadLocation(cfg.Upstream.Timezone, time.UTC)
	if !ok {
		l.Warn("unknown timezone, using UTC", applogger.String("timezone", cfg.Upstream.Timezone))
	}
	return usecase.NewMarketService(gw, r, l,
		usecase.WithLocation(loc),
		usecase.WithConcurrency(cfg.Upstream.Concurrency),
	)
}

// ProvideLimiter creates the per-client throttle, or nil when disabled.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideSweeper creates the cache sweeper. Each sweep also prunes idle throttle buckets.
func ProvideSweeper(cfg *config.Config, store *cache.Store, m repository.Metrics, limiter *ratelimit.Limiter, l *applogger.Logger) *cache.Sweeper {
	sw := cache.NewSweeper(store, cfg.Cache.SweepInterval, m, l)
	if limiter != nil {
		sw.OnSweep(func() {
			if n := limiter.Prune(limiterIdle); n > 0 {
				l.Debug("pruned idle throttle buckets", applogger.Int("count", n))
			}
		})
	}
	return sw
}

// ProvideMarketHandler creates the HTTP handler for market endpoints.
func ProvideMarketHandler(
	l *applogger.Logger,
	svc *usecase.MarketService,
	store *cache.Store,
	limiter *ratelimit.Limiter,
	m *imetrics.API,
) *api.MarketEchoHandler {
	return api.NewMarketEchoHandler(l, svc, store, limiter, m)
}

// ProvideHTTPServer creates the Echo server with all routes registered.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.MarketEchoHandler, reg *prometheus.Registry) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, reg))
	}
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	sweeper *cache.Sweeper,
	mirror *pkgcache.RedisCache,
) *server.App {
	var closers []io.Closer
	if mirror != nil {
		closers = append(closers, mirror)
	}
	return server.New(cfg, l, srv, sweeper, closers...)
}
