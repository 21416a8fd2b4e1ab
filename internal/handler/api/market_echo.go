package api

import (
	"context"
	"time"

	models "StockPulse/internal/domain/models"
	"StockPulse/internal/service/cache"
	"StockPulse/internal/service/metrics"
	"StockPulse/internal/service/ratelimit"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketQueries is the read surface served over HTTP. Every call returns data, never an error.
type MarketQueries interface {
	SearchStocks(ctx context.Context, query string, limit int) []models.SymbolMatch
	GetStockDetails(ctx context.Context, symbol string) models.Quote
	GetHistoricalData(ctx context.Context, symbol, timeframe string) models.HistoricalSeries
	GetMarketSummary(ctx context.Context) models.MarketSummary
	GetMarketMovers(ctx context.Context, limit int) models.MoversResult
	GetMostWatched(ctx context.Context, limit int) models.WatchlistResult
}

// MarketEchoHandler serves the stock and market endpoints.
type MarketEchoHandler struct {
	logger  *xlogger.Logger
	svc     MarketQueries
	store   *cache.Store
	limiter *ratelimit.Limiter
	metrics *metrics.API
}

// NewMarketEchoHandler builds the handler. limiter and m may be nil to disable throttling and metrics.
func NewMarketEchoHandler(logger *xlogger.Logger, svc MarketQueries, store *cache.Store, limiter *ratelimit.Limiter, m *metrics.API) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, svc: svc, store: store, limiter: limiter, metrics: m}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/stocks/search", h.guard("search", h.Search))
	g.GET("/stocks/:symbol", h.guard("details", h.Details))
	g.GET("/stocks/:symbol/history", h.guard("history", h.History))
	g.GET("/market/summary", h.guard("market_summary", h.Summary))
	g.GET("/market/movers", h.guard("movers", h.Movers))
	g.GET("/market/most-watched", h.guard("most_watched", h.MostWatched))
}

// guard applies per-client throttling and records endpoint latency.
func (h *MarketEchoHandler) guard(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			if h.metrics != nil {
				h.metrics.Throttled.WithLabelValues(endpoint).Inc()
			}
			h.logger.Warn("client throttled", xlogger.String("endpoint", endpoint), xlogger.String("ip", c.RealIP()))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("Too many requests, slow down").
				WithParam("endpoint", endpoint))
		}

		start := time.Now()
		err := next(c)
		if h.metrics != nil {
			h.metrics.Latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		}
		return err
	}
}

func (h *MarketEchoHandler) badRequest(c echo.Context, endpoint string, verr interface{}) error {
	if h.metrics != nil {
		h.metrics.Errors.WithLabelValues(endpoint).Inc()
	}
	return xhttp.BadRequestResponse(c, verr)
}

func (h *MarketEchoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "search", verr)
	}
	return xhttp.SuccessResponse(c, h.svc.SearchStocks(c.Request().Context(), req.Query, req.Limit))
}

func (h *MarketEchoHandler) Details(c echo.Context) error {
	req := &models.DetailsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "details", verr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, h.svc.GetStockDetails(c.Request().Context(), req.Symbol))
}

func (h *MarketEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "history", verr)
	}
	return xhttp.SuccessResponse(c, h.svc.GetHistoricalData(c.Request().Context(), req.Symbol, req.Timeframe))
}

func (h *MarketEchoHandler) Summary(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.GetMarketSummary(c.Request().Context()))
}

func (h *MarketEchoHandler) Movers(c echo.Context) error {
	req := &models.LimitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "movers", verr)
	}
	return xhttp.SuccessResponse(c, h.svc.GetMarketMovers(c.Request().Context(), req.Limit))
}

func (h *MarketEchoHandler) MostWatched(c echo.Context) error {
	req := &models.LimitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "most_watched", verr)
	}
	return xhttp.SuccessResponse(c, h.svc.GetMostWatched(c.Request().Context(), req.Limit))
}

// Health reports liveness and the number of entries held per cache namespace.
func (h *MarketEchoHandler) Health(c echo.Context) error {
	resp := models.HealthResponse{Status: "ok", Cache: map[string]int{}}
	if h.store != nil {
		for _, ns := range cache.Namespaces {
			resp.Cache[string(ns)] = h.store.Len(ns)
		}
	}
	return xhttp.SuccessResponse(c, resp)
}
