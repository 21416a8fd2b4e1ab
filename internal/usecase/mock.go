package usecase

import (
	"hash/fnv"
	"math/rand/v2"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// MockQuote is the placeholder detail view served when no live or cached quote exists.
func MockQuote(symbol, ts string) models.Quote {
	return models.Quote{
		Symbol:        symbol,
		Name:          symbol + " Corporation",
		Price:         100,
		High52w:       100,
		Low52w:        100,
		Open:          100,
		PreviousClose: 100,
		Timestamp:     ts,
		Source:        models.SourceMock,
	}
}

// seedFor derives a stable rng seed from symbol so a given symbol always gets the same walk.
func seedFor(symbol string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return h.Sum64()
}

// MockHistory builds a deterministic random walk for symbol over tf, ending at now.
func MockHistory(symbol string, tf repository.Timeframe, now time.Time, loc *time.Location) models.HistoricalSeries {
	spec := tf.Spec()
	seed := seedFor(symbol)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	n := spec.MockPoints
	price := 50 + rng.Float64()*450
	vol := 0.01 + rng.Float64()*0.04

	now = now.In(loc)
	start := now.AddDate(0, 0, -spec.MockDays)
	span := now.Sub(start)

	s := models.HistoricalSeries{
		Symbol:     symbol,
		Timeframe:  string(tf),
		Labels:     make([]string, n),
		Data:       make([]*float64, n),
		Timestamps: make([]string, n),
		UpdatedAt:  now.Format(models.TimestampLayout),
		Source:     models.SourceMock,
	}
	for i := 0; i < n; i++ {
		if i > 0 {
			price *= 1 + rng.NormFloat64()*vol
		}
		var at time.Time
		if n > 1 {
			at = start.Add(span * time.Duration(i) / time.Duration(n-1))
		} else {
			at = now
		}
		v := round(price, 2)
		s.Data[i] = &v
		s.Labels[i] = at.Format(spec.LabelLayout)
		s.Timestamps[i] = at.Format(dateLayout)
	}
	return s
}

// MockMarketSummary is the fixed summary served when nothing else is available.
func MockMarketSummary(ts string) models.MarketSummary {
	return models.MarketSummary{
		Indices: []models.IndexQuote{
			{Name: "S&P 500", Value: 5280.14, Change: 42.32, PercentChange: 0.81},
			{Name: "Dow Jones", Value: 38905.66, Change: 156.87, PercentChange: 0.40},
			{Name: "Nasdaq", Value: 16742.39, Change: -23.87, PercentChange: -0.14},
			{Name: "Russell 2000", Value: 2082.75, Change: 10.43, PercentChange: 0.50},
		},
		SectorPerformance: []models.SectorPerformance{
			{Name: "Technology", PercentChange: 1.53},
			{Name: "Healthcare", PercentChange: 0.87},
			{Name: "Financials", PercentChange: -0.42},
			{Name: "Consumer Discretionary", PercentChange: 1.12},
			{Name: "Communication Services", PercentChange: -0.23},
			{Name: "Industrials", PercentChange: 0.67},
			{Name: "Energy", PercentChange: -1.32},
			{Name: "Utilities", PercentChange: 0.35},
			{Name: "Materials", PercentChange: 0.12},
			{Name: "Real Estate", PercentChange: -0.65},
		},
		MarketStatus: models.MarketClosed,
		Timestamp:    ts,
		Source:       models.SourceMock,
	}
}

// MockMovers is the fixed movers list, truncated to limit.
func MockMovers(limit int, ts string) models.MoversResult {
	gainers := []models.StockMove{
		{Symbol: "NVDA", Name: "NVIDIA Corporation", Price: 950.37, Change: 48.78, PercentChange: 5.42},
		{Symbol: "TSLA", Name: "Tesla Inc", Price: 178.22, Change: 6.50, PercentChange: 3.78},
		{Symbol: "AAPL", Name: "Apple Inc", Price: 243.56, Change: 3.21, PercentChange: 1.34},
		{Symbol: "AMZN", Name: "Amazon.com Inc", Price: 181.75, Change: 1.92, PercentChange: 1.07},
		{Symbol: "GOOGL", Name: "Alphabet Inc", Price: 187.63, Change: 1.75, PercentChange: 0.94},
	}
	losers := []models.StockMove{
		{Symbol: "META", Name: "Meta Platforms Inc", Price: 475.12, Change: -12.10, PercentChange: -2.48},
		{Symbol: "JPM", Name: "JPMorgan Chase & Co", Price: 178.92, Change: -3.38, PercentChange: -1.85},
		{Symbol: "MSFT", Name: "Microsoft Corporation", Price: 420.87, Change: -2.53, PercentChange: -0.60},
		{Symbol: "JNJ", Name: "Johnson & Johnson", Price: 147.62, Change: -0.75, PercentChange: -0.51},
		{Symbol: "V", Name: "Visa Inc", Price: 298.45, Change: -1.02, PercentChange: -0.34},
	}
	return models.MoversResult{
		Gainers:   truncate(gainers, max(limit, 0)),
		Losers:    truncate(losers, max(limit, 0)),
		Timestamp: ts,
		Source:    models.SourceMock,
	}
}

// MockMostWatched is the fixed watchlist, truncated to limit.
func MockMostWatched(limit int, ts string) models.WatchlistResult {
	stocks := []models.StockMove{
		{Symbol: "AAPL", Name: "Apple Inc.", Price: 243.56, Change: 3.21, PercentChange: 1.34},
		{Symbol: "MSFT", Name: "Microsoft Corporation", Price: 420.87, Change: -2.53, PercentChange: -0.60},
		{Symbol: "GOOGL", Name: "Alphabet Inc.", Price: 187.63, Change: 1.75, PercentChange: 0.94},
		{Symbol: "AMZN", Name: "Amazon.com Inc.", Price: 181.75, Change: 1.92, PercentChange: 1.07},
		{Symbol: "TSLA", Name: "Tesla Inc.", Price: 178.22, Change: 6.50, PercentChange: 3.78},
	}
	return models.WatchlistResult{
		Stocks:    truncate(stocks, max(limit, 0)),
		Timestamp: ts,
		Source:    models.SourceMock,
	}
}
