package repository

import (
	"context"

	"StockPulse/internal/domain/models"
)

// MarketGateway is the upstream market-data provider. Any call may fail transiently.
type MarketGateway interface {
	LookupQuote(ctx context.Context, symbol string) (*models.RawQuoteInfo, error)
	LookupHistory(ctx context.Context, symbol, period, interval string) ([]models.OHLCBar, error)
	LookupRecommendations(ctx context.Context, symbol string) ([]models.Recommendation, error)
	SearchSymbols(ctx context.Context, query string, limit int) ([]models.SymbolMatch, error)
}

type Metrics interface {
	RecordResolution(op, provenance string)
	RecordUpstreamError(kind string)
	RecordLatency(op string, seconds float64)
	RecordCacheSweep(removed int)
}
