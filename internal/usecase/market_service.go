package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/service/cache"
	pkgcache "StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"

	"golang.org/x/sync/errgroup"
)

const (
	defaultSearchLimit = 10
	defaultConcurrency = 4

	// quote change is taken from the last two daily closes of this window
	changePeriod   = "5d"
	changeInterval = "1d"
)

// MarketService assembles the public market views on top of the gateway and resolver.
type MarketService struct {
	gw          repository.MarketGateway
	resolver    *Resolver
	log         *applogger.Logger
	loc         *time.Location
	now         func() time.Time
	concurrency int
}

// MarketServiceOption configures MarketService.
type MarketServiceOption func(*MarketService)

// WithLocation sets the zone used for display timestamps and chart labels.
func WithLocation(loc *time.Location) MarketServiceOption {
	return func(s *MarketService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MarketServiceOption {
	return func(s *MarketService) {
		s.now = now
	}
}

// WithConcurrency bounds the per-symbol fan-out.
func WithConcurrency(n int) MarketServiceOption {
	return func(s *MarketService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func NewMarketService(gw repository.MarketGateway, resolver *Resolver, l *applogger.Logger, opts ...MarketServiceOption) *MarketService {
	if l == nil {
		l = applogger.NewNop()
	}
	s := &MarketService{
		gw:          gw,
		resolver:    resolver,
		log:         l.With(applogger.String("component", "market_service")),
		loc:         time.UTC,
		now:         time.Now,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MarketService) timestamp() string {
	return s.now().In(s.loc).Format(models.TimestampLayout)
}

// SearchStocks looks symbols up by ticker or company name. An empty query returns the
// head of the popular list.
func (s *MarketService) SearchStocks(ctx context.Context, query string, limit int) []models.SymbolMatch {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return truncate(PopularStocks(), limit)
	}

	key := pkgcache.GenerateKeyWithParams("search", util.NormalizeQuery(q), limit)
	res := Resolve(ctx, s.resolver, "search", cache.Search, key,
		func(ctx context.Context) ([]models.SymbolMatch, error) {
			matches, err := s.gw.SearchSymbols(ctx, q, limit)
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("search %q: %w", q, repository.ErrNoData)
			}
			return matches, nil
		},
		func() []models.SymbolMatch { return filterPopular(q, limit) },
	)
	return res.Value
}

// GetStockDetails returns the detail view for symbol.
func (s *MarketService) GetStockDetails(ctx context.Context, symbol string) models.Quote {
	sym := util.NormalizeSymbol(symbol)
	key := pkgcache.GenerateKey("details", sym)
	res := Resolve(ctx, s.resolver, "details", cache.Realtime, key,
		func(ctx context.Context) (models.Quote, error) {
			info, err := s.gw.LookupQuote(ctx, sym)
			if err != nil {
				return models.Quote{}, err
			}
			bars, err := s.gw.LookupHistory(ctx, sym, changePeriod, changeInterval)
			if err != nil {
				s.log.Debug("daily closes unavailable", applogger.String("symbol", sym), applogger.Error(err))
			}
			recs, err := s.gw.LookupRecommendations(ctx, sym)
			if err != nil {
				s.log.Debug("recommendations unavailable", applogger.String("symbol", sym), applogger.Error(err))
			}
			return BuildQuote(sym, info, closesOf(bars), recs, s.timestamp()), nil
		},
		func() models.Quote { return MockQuote(sym, s.timestamp()) },
	)
	return res.Value
}

// GetHistoricalData returns the chart series of symbol over timeframe.
func (s *MarketService) GetHistoricalData(ctx context.Context, symbol, timeframe string) models.HistoricalSeries {
	sym := util.NormalizeSymbol(symbol)
	tf := repository.NormalizeTimeframe(strings.TrimSpace(timeframe))
	spec := tf.Spec()

	key := pkgcache.GenerateKeyWithParams("historical", sym, tf)
	res := Resolve(ctx, s.resolver, "history", cache.Historical, key,
		func(ctx context.Context) (models.HistoricalSeries, error) {
			bars, err := s.gw.LookupHistory(ctx, sym, spec.Period, spec.Interval)
			if err != nil {
				return models.HistoricalSeries{}, err
			}
			if len(bars) == 0 {
				return models.HistoricalSeries{}, fmt.Errorf("history %s %s: %w", sym, tf, repository.ErrNoData)
			}

			series := models.HistoricalSeries{
				Symbol:     sym,
				Timeframe:  string(tf),
				Labels:     make([]string, len(bars)),
				Data:       make([]*float64, len(bars)),
				Timestamps: make([]string, len(bars)),
				UpdatedAt:  s.timestamp(),
				Source:     models.SourceLive,
			}
			for i, b := range bars {
				at := b.Time.In(s.loc)
				series.Labels[i] = at.Format(spec.LabelLayout)
				series.Timestamps[i] = at.Format(dateLayout)
				if b.Close != nil {
					v := round(*b.Close, 2)
					series.Data[i] = &v
				}
			}
			return series, nil
		},
		func() models.HistoricalSeries { return MockHistory(sym, tf, s.now(), s.loc) },
	)
	return res.Value
}

// GetMarketSummary returns major index levels, sector performance and session status.
func (s *MarketService) GetMarketSummary(ctx context.Context) models.MarketSummary {
	res := Resolve(ctx, s.resolver, "market_summary", cache.Market, "market_summary",
		func(ctx context.Context) (models.MarketSummary, error) {
			indices, err := fanOut(ctx, s.concurrency, marketIndices, func(ctx context.Context, ix namedSymbol) (models.IndexQuote, bool) {
				price, change, pct, ok := s.dailyMove(ctx, ix.Symbol)
				if !ok {
					return models.IndexQuote{}, false
				}
				return models.IndexQuote{Name: ix.Name, Value: price, Change: change, PercentChange: pct}, true
			})
			if err != nil {
				return models.MarketSummary{}, err
			}
			sectors, err := fanOut(ctx, s.concurrency, sectorETFs, func(ctx context.Context, etf namedSymbol) (models.SectorPerformance, bool) {
				_, _, pct, ok := s.dailyMove(ctx, etf.Symbol)
				if !ok {
					return models.SectorPerformance{}, false
				}
				return models.SectorPerformance{Name: etf.Name, PercentChange: pct}, true
			})
			if err != nil {
				return models.MarketSummary{}, err
			}
			if len(indices) == 0 && len(sectors) == 0 {
				return models.MarketSummary{}, fmt.Errorf("market summary: %w", repository.ErrNoData)
			}

			return models.MarketSummary{
				Indices:           indices,
				SectorPerformance: sectors,
				MarketStatus:      MarketStatusAt(s.now()),
				Timestamp:         s.timestamp(),
				Source:            models.SourceLive,
			}, nil
		},
		func() models.MarketSummary { return MockMarketSummary(s.timestamp()) },
	)
	return res.Value
}

// GetMarketMovers returns the top gainers and losers of the movers universe.
func (s *MarketService) GetMarketMovers(ctx context.Context, limit int) models.MoversResult {
	key := pkgcache.GenerateKeyWithParams("movers", limit)
	res := Resolve(ctx, s.resolver, "movers", cache.Market, key,
		func(ctx context.Context) (models.MoversResult, error) {
			rows, err := s.stockMoves(ctx, moverUniverse)
			if err != nil {
				return models.MoversResult{}, err
			}
			gainers, losers := RankMovers(rows, limit)
			return models.MoversResult{
				Gainers:   gainers,
				Losers:    losers,
				Timestamp: s.timestamp(),
				Source:    models.SourceLive,
			}, nil
		},
		func() models.MoversResult { return MockMovers(limit, s.timestamp()) },
	)
	return res.Value
}

// GetMostWatched returns the current moves of the most-watched symbols.
func (s *MarketService) GetMostWatched(ctx context.Context, limit int) models.WatchlistResult {
	key := pkgcache.GenerateKeyWithParams("most_watched", limit)
	res := Resolve(ctx, s.resolver, "most_watched", cache.Market, key,
		func(ctx context.Context) (models.WatchlistResult, error) {
			rows, err := s.stockMoves(ctx, truncate(mostWatchedSymbols, max(limit, 0)))
			if err != nil {
				return models.WatchlistResult{}, err
			}
			return models.WatchlistResult{
				Stocks:    rows,
				Timestamp: s.timestamp(),
				Source:    models.SourceLive,
			}, nil
		},
		func() models.WatchlistResult { return MockMostWatched(limit, s.timestamp()) },
	)
	return res.Value
}

// dailyMove returns the last close and its move against the previous close, rounded.
func (s *MarketService) dailyMove(ctx context.Context, symbol string) (price, change, percent float64, ok bool) {
	bars, err := s.gw.LookupHistory(ctx, symbol, changePeriod, changeInterval)
	if err != nil {
		s.log.Debug("skipping symbol", applogger.String("symbol", symbol), applogger.Error(err))
		return 0, 0, 0, false
	}
	closes := closesOf(bars)
	if len(closes) < 2 {
		return 0, 0, 0, false
	}
	price, change, percent, _ = PriceChange(closes, 0, 0)
	return round(price, 2), round(change, 2), round(percent, 2), true
}

// stockMoves fetches a StockMove per symbol in order, skipping symbols with no usable data.
func (s *MarketService) stockMoves(ctx context.Context, symbols []string) ([]models.StockMove, error) {
	rows, err := fanOut(ctx, s.concurrency, symbols, s.stockMove)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("stock moves: %w", repository.ErrNoData)
	}
	return rows, nil
}

func (s *MarketService) stockMove(ctx context.Context, symbol string) (models.StockMove, bool) {
	info, qerr := s.gw.LookupQuote(ctx, symbol)
	if qerr != nil && ctx.Err() != nil {
		return models.StockMove{}, false
	}
	bars, herr := s.gw.LookupHistory(ctx, symbol, changePeriod, changeInterval)
	if qerr != nil && herr != nil {
		s.log.Debug("skipping symbol", applogger.String("symbol", symbol), applogger.Error(qerr))
		return models.StockMove{}, false
	}

	name := symbol + " Inc."
	var current, prevClose float64
	if qerr == nil && info != nil {
		if info.ShortName != "" {
			name = info.ShortName
		}
		current = info.CurrentPrice
		if current == 0 {
			current = info.RegularMarketPrice
		}
		prevClose = info.PreviousClose
	}

	price, change, pct, _ := PriceChange(closesOf(bars), current, prevClose)
	if price <= 0 {
		return models.StockMove{}, false
	}
	return models.StockMove{
		Symbol:        symbol,
		Name:          name,
		Price:         round(price, 2),
		Change:        round(change, 2),
		PercentChange: round(pct, 2),
	}, true
}

// fanOut runs fn over in with at most limit goroutines and returns the accepted results
// in input order. It fails only when ctx is done.
func fanOut[S, T any](ctx context.Context, limit int, in []S, fn func(context.Context, S) (T, bool)) ([]T, error) {
	results := make([]T, len(in))
	accepted := make([]bool, len(in))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, item := range in {
		g.Go(func() error {
			results[i], accepted[i] = fn(gctx, item)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(in))
	for i, ok := range accepted {
		if ok {
			out = append(out, results[i])
		}
	}
	return out, nil
}
