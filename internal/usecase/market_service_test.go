package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/service/cache"
	"StockPulse/internal/service/retry"
	applogger "StockPulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = &repository.UpstreamError{Op: "quote", Err: errors.New("503 service unavailable")}

type fakeGateway struct {
	mu      sync.Mutex
	quotes  map[string]*models.RawQuoteInfo
	closes  map[string][]float64
	recs    map[string][]models.Recommendation
	matches []models.SymbolMatch
	down    bool
	hang    bool
	calls   map[string]int
	periods []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		quotes: map[string]*models.RawQuoteInfo{},
		closes: map[string][]float64{},
		recs:   map[string][]models.Recommendation{},
		calls:  map[string]int{},
	}
}

func (g *fakeGateway) hit(ctx context.Context, op string) error {
	g.mu.Lock()
	g.calls[op]++
	down, hang := g.down, g.hang
	g.mu.Unlock()

	if hang {
		<-ctx.Done()
		return &repository.UpstreamError{Op: op, Err: ctx.Err()}
	}
	if down {
		return errDown
	}
	return nil
}

func (g *fakeGateway) LookupQuote(ctx context.Context, symbol string) (*models.RawQuoteInfo, error) {
	if err := g.hit(ctx, "quote"); err != nil {
		return nil, err
	}
	q, ok := g.quotes[symbol]
	if !ok {
		return nil, &repository.UpstreamError{Op: "quote", Symbol: symbol, Err: repository.ErrNoData}
	}
	return q, nil
}

func (g *fakeGateway) LookupHistory(ctx context.Context, symbol, period, interval string) ([]models.OHLCBar, error) {
	if err := g.hit(ctx, "history"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.periods = append(g.periods, period+"/"+interval)
	g.mu.Unlock()

	closes, ok := g.closes[symbol]
	if !ok {
		return nil, &repository.UpstreamError{Op: "history", Symbol: symbol, Err: repository.ErrNoData}
	}
	start := time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC)
	bars := make([]models.OHLCBar, len(closes))
	for i, c := range closes {
		bars[i] = models.OHLCBar{Time: start.AddDate(0, 0, i)}
		if c != 0 {
			v := c
			bars[i].Close = &v
		}
	}
	return bars, nil
}

func (g *fakeGateway) LookupRecommendations(ctx context.Context, symbol string) ([]models.Recommendation, error) {
	if err := g.hit(ctx, "recommendations"); err != nil {
		return nil, err
	}
	return g.recs[symbol], nil
}

func (g *fakeGateway) SearchSymbols(ctx context.Context, _ string, limit int) ([]models.SymbolMatch, error) {
	if err := g.hit(ctx, "search"); err != nil {
		return nil, err
	}
	return truncate(g.matches, limit), nil
}

func (g *fakeGateway) callCount(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

// tuesday 10:00 eastern
var serviceNow = time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC)

func newTestService(gw *fakeGateway) (*MarketService, *cache.Store, *testClock) {
	clk := newTestClock(serviceNow)
	store := cache.NewStore(cache.WithClock(clk.Now))
	r := NewResolver(store, quickPolicy(), &resolutionRecorder{}, applogger.NewNop())
	svc := NewMarketService(gw, r, applogger.NewNop(), WithClock(clk.Now), WithConcurrency(3))
	return svc, store, clk
}

func TestSearchEmptyQueryReturnsPopular(t *testing.T) {
	gw := newFakeGateway()
	svc, store, _ := newTestService(gw)

	got := svc.SearchStocks(context.Background(), "   ", 3)
	assert.Equal(t, []models.SymbolMatch{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "MSFT", Name: "Microsoft Corporation"},
		{Symbol: "GOOGL", Name: "Alphabet Inc."},
	}, got)
	assert.Zero(t, gw.callCount("search"))
	assert.Zero(t, store.Len(cache.Search))

	got[0].Name = "changed"
	assert.Equal(t, "Apple Inc.", PopularStocks()[0].Name)
}

func TestSearchLiveIsCachedByNormalizedQuery(t *testing.T) {
	gw := newFakeGateway()
	gw.matches = []models.SymbolMatch{{Symbol: "AAPL", Name: "Apple Inc."}}
	svc, store, _ := newTestService(gw)

	svc.SearchStocks(context.Background(), "Apple", 10)
	got := svc.SearchStocks(context.Background(), " apple ", 10)

	assert.Equal(t, gw.matches, got)
	assert.Equal(t, 1, gw.callCount("search"))
	_, found, _ := store.Get(cache.Search, "search:apple:10")
	assert.True(t, found)
}

func TestSearchFallsBackToPopularFilter(t *testing.T) {
	gw := newFakeGateway()
	svc, _, _ := newTestService(gw)

	// empty upstream result counts as a failure
	got := svc.SearchStocks(context.Background(), "micro", 5)
	assert.Equal(t, []models.SymbolMatch{{Symbol: "MSFT", Name: "Microsoft Corporation"}}, got)

	gw.down = true
	got = svc.SearchStocks(context.Background(), "NV", 5)
	assert.Equal(t, []models.SymbolMatch{{Symbol: "NVDA", Name: "NVIDIA Corporation"}}, got)
}

func TestGetStockDetailsLive(t *testing.T) {
	gw := newFakeGateway()
	gw.quotes["AAPL"] = &models.RawQuoteInfo{ShortName: "Apple Inc.", RegularMarketPrice: 111, PreviousClose: 99, MarketCap: 3e12}
	gw.closes["AAPL"] = []float64{98, 100, 110}
	gw.recs["AAPL"] = []models.Recommendation{{Grade: "Buy", Date: serviceNow}}
	svc, store, _ := newTestService(gw)

	q := svc.GetStockDetails(context.Background(), " aapl ")
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "Apple Inc.", q.Name)
	assert.Equal(t, 110.0, q.Price)
	assert.Equal(t, 10.0, q.Change)
	assert.Equal(t, 10.0, q.PercentChange)
	assert.Equal(t, 3.0, q.MarketCap)
	assert.Equal(t, models.AnalystTally{Buy: 1}, q.Analyst)
	assert.Equal(t, "2024-05-14 14:00:00", q.Timestamp)
	assert.Equal(t, models.SourceLive, q.Source)

	_, found, _ := store.Get(cache.Realtime, "details:AAPL")
	assert.True(t, found)
}

func TestGetStockDetailsToleratesMissingExtras(t *testing.T) {
	gw := newFakeGateway()
	gw.quotes["IBM"] = &models.RawQuoteInfo{CurrentPrice: 105, PreviousClose: 100}
	svc, _, _ := newTestService(gw)

	q := svc.GetStockDetails(context.Background(), "IBM")
	assert.Equal(t, models.SourceLive, q.Source)
	assert.Equal(t, "IBM Corp", q.Name)
	assert.Equal(t, 5.0, q.Change)
}

func TestGetStockDetailsMock(t *testing.T) {
	gw := newFakeGateway()
	gw.down = true
	svc, _, _ := newTestService(gw)

	q := svc.GetStockDetails(context.Background(), "ZZZZ")
	assert.Equal(t, MockQuote("ZZZZ", "2024-05-14 14:00:00"), q)
	assert.Equal(t, "ZZZZ Corporation", q.Name)
	assert.Equal(t, 100.0, q.Price)
}

func TestGetStockDetailsServesStale(t *testing.T) {
	gw := newFakeGateway()
	gw.quotes["AAPL"] = &models.RawQuoteInfo{ShortName: "Apple Inc.", RegularMarketPrice: 110, PreviousClose: 100}
	svc, _, clk := newTestService(gw)

	first := svc.GetStockDetails(context.Background(), "AAPL")
	gw.down = true
	clk.Advance(time.Hour)

	second := svc.GetStockDetails(context.Background(), "AAPL")
	assert.Equal(t, first, second)
	assert.Equal(t, models.SourceLive, second.Source)
}

func TestGetHistoricalDataLive(t *testing.T) {
	gw := newFakeGateway()
	gw.closes["MSFT"] = []float64{410.123, 0, 415.678}
	svc, _, _ := newTestService(gw)

	s := svc.GetHistoricalData(context.Background(), "msft", "")
	assert.Equal(t, "1m", s.Timeframe)
	assert.Equal(t, models.SourceLive, s.Source)
	require.Len(t, s.Data, 3)
	assert.Equal(t, 410.12, *s.Data[0])
	assert.Nil(t, s.Data[1])
	assert.Equal(t, 415.68, *s.Data[2])
	assert.Equal(t, []string{"10", "11", "12"}, s.Labels)
	assert.Equal(t, []string{"2024-05-10", "2024-05-11", "2024-05-12"}, s.Timestamps)
	assert.Contains(t, gw.periods, "1mo/1d")
}

func TestGetHistoricalDataUnknownTimeframeMeansAll(t *testing.T) {
	gw := newFakeGateway()
	gw.closes["MSFT"] = []float64{300}
	svc, store, _ := newTestService(gw)

	s := svc.GetHistoricalData(context.Background(), "MSFT", "10y")
	assert.Equal(t, "all", s.Timeframe)
	assert.Equal(t, []string{"2024"}, s.Labels)
	assert.Contains(t, gw.periods, "max/1mo")
	_, found, _ := store.Get(cache.Historical, "historical:MSFT:all")
	assert.True(t, found)
}

func TestGetHistoricalDataMockIsDeterministic(t *testing.T) {
	gw := newFakeGateway()
	gw.down = true
	svc, _, _ := newTestService(gw)

	a := svc.GetHistoricalData(context.Background(), "TSLA", "1y")
	b := svc.GetHistoricalData(context.Background(), "TSLA", "1y")
	assert.Equal(t, a, b)
	assert.Equal(t, models.SourceMock, a.Source)
	assert.Len(t, a.Data, 52)
	assert.Len(t, a.Labels, 52)
	assert.Equal(t, "2023-05-15", a.Timestamps[0])
	assert.Equal(t, "2024-05-14", a.Timestamps[51])
	for _, v := range a.Data {
		require.NotNil(t, v)
		assert.Greater(t, *v, 0.0)
	}

	other := svc.GetHistoricalData(context.Background(), "AAPL", "1y")
	assert.NotEqual(t, a.Data, other.Data)
}

func TestGetMarketSummaryLive(t *testing.T) {
	gw := newFakeGateway()
	gw.closes["^GSPC"] = []float64{5000, 5050}
	gw.closes["^DJI"] = []float64{39000}
	gw.closes["XLK"] = []float64{200, 198}
	svc, _, _ := newTestService(gw)

	s := svc.GetMarketSummary(context.Background())
	assert.Equal(t, models.SourceLive, s.Source)
	assert.Equal(t, []models.IndexQuote{{Name: "S&P 500", Value: 5050, Change: 50, PercentChange: 1}}, s.Indices)
	assert.Equal(t, []models.SectorPerformance{{Name: "Technology", PercentChange: -1}}, s.SectorPerformance)
	assert.Equal(t, models.MarketOpen, s.MarketStatus)
}

func TestGetMarketSummaryMock(t *testing.T) {
	gw := newFakeGateway()
	svc, store, _ := newTestService(gw)

	s := svc.GetMarketSummary(context.Background())
	assert.Equal(t, models.SourceMock, s.Source)
	assert.Len(t, s.Indices, 4)
	assert.Len(t, s.SectorPerformance, 10)
	assert.Equal(t, models.MarketClosed, s.MarketStatus)
	assert.Zero(t, store.Len(cache.Market))
}

func TestGetMarketMoversLive(t *testing.T) {
	gw := newFakeGateway()
	gw.quotes["AAPL"] = &models.RawQuoteInfo{ShortName: "Apple Inc."}
	gw.closes["AAPL"] = []float64{100, 105}
	gw.closes["MSFT"] = []float64{100, 97}
	gw.quotes["NVDA"] = &models.RawQuoteInfo{ShortName: "NVIDIA", CurrentPrice: 101, PreviousClose: 100}
	svc, _, _ := newTestService(gw)

	m := svc.GetMarketMovers(context.Background(), 2)
	assert.Equal(t, models.SourceLive, m.Source)
	assert.Equal(t, []models.StockMove{
		{Symbol: "AAPL", Name: "Apple Inc.", Price: 105, Change: 5, PercentChange: 5},
		{Symbol: "NVDA", Name: "NVIDIA", Price: 101, Change: 1, PercentChange: 1},
	}, m.Gainers)
	assert.Equal(t, []string{"MSFT", "NVDA"}, symbols(m.Losers))
	assert.Equal(t, "MSFT Inc.", m.Losers[0].Name)
}

func TestGetMarketMoversMock(t *testing.T) {
	gw := newFakeGateway()
	gw.down = true
	svc, _, _ := newTestService(gw)

	m := svc.GetMarketMovers(context.Background(), 3)
	assert.Equal(t, models.SourceMock, m.Source)
	assert.Equal(t, []string{"NVDA", "TSLA", "AAPL"}, symbols(m.Gainers))
	assert.Equal(t, []string{"META", "JPM", "MSFT"}, symbols(m.Losers))
}

func TestGetMostWatched(t *testing.T) {
	gw := newFakeGateway()
	gw.closes["AAPL"] = []float64{100, 102}
	gw.closes["MSFT"] = []float64{100, 99}
	gw.closes["AMZN"] = []float64{100, 101}
	svc, store, _ := newTestService(gw)

	w := svc.GetMostWatched(context.Background(), 3)
	assert.Equal(t, models.SourceLive, w.Source)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols(w.Stocks))
	_, found, _ := store.Get(cache.Market, "most_watched:3")
	assert.True(t, found)
}

func TestGetMostWatchedMock(t *testing.T) {
	gw := newFakeGateway()
	gw.down = true
	svc, _, _ := newTestService(gw)

	w := svc.GetMostWatched(context.Background(), 2)
	assert.Equal(t, models.SourceMock, w.Source)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols(w.Stocks))
}

func TestHungUpstreamFallsBackWithinBudget(t *testing.T) {
	gw := newFakeGateway()
	gw.hang = true
	clk := newTestClock(serviceNow)
	store := cache.NewStore(cache.WithClock(clk.Now))
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	r := NewResolver(store, policy, nil, applogger.NewNop(), WithBudget(60*time.Millisecond))
	svc := NewMarketService(gw, r, applogger.NewNop(), WithClock(clk.Now), WithConcurrency(4))

	start := time.Now()
	m := svc.GetMarketMovers(context.Background(), 5)
	assert.Equal(t, models.SourceMock, m.Source)
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, gw.callCount("history"), "history is skipped once the quote was cut off")

	start = time.Now()
	q := svc.GetStockDetails(context.Background(), "AAPL")
	assert.Equal(t, models.SourceMock, q.Source)
	assert.Less(t, time.Since(start), time.Second)
}
