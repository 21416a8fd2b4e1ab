package yahoo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/equity"
	"golang.org/x/time/rate"
)

const (
	DefaultSearchURL  = "https://query2.finance.yahoo.com/v1/finance/search"
	DefaultSummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	DefaultTimeout    = 10 * time.Second
	DefaultRateLimit  = 5 // requests per second
)

// barIter is the subset of *chart.Iter the client reads.
type barIter interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// Client implements repository.MarketGateway against Yahoo Finance.
type Client struct {
	http        *xhttp.Client
	limiter     *rate.Limiter
	log         *applogger.Logger
	searchURL   string
	summaryURL  string
	timeout     time.Duration
	courtesyMin time.Duration
	courtesyMax time.Duration
	now         func() time.Time

	equityFn func(symbol string) (*finance.Equity, error)
	chartFn  func(p *chart.Params) barIter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(l *applogger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithRateLimit sets the request rate and burst.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTimeout bounds every gateway call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithCourtesyDelay sets the random pause range taken before each call.
func WithCourtesyDelay(lo, hi time.Duration) ClientOption {
	return func(c *Client) {
		c.courtesyMin = lo
		c.courtesyMax = hi
	}
}

// WithEndpoints overrides the search and quote-summary endpoints.
func WithEndpoints(searchURL, summaryURL string) ClientOption {
	return func(c *Client) {
		if searchURL != "" {
			c.searchURL = searchURL
		}
		if summaryURL != "" {
			c.summaryURL = summaryURL
		}
	}
}

// WithHTTPClient replaces the JSON client used for search and recommendations.
func WithHTTPClient(hc *xhttp.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// ConfigureBackend installs the process-wide finance-go backend with an HTTP client bounded
// by timeout. Quotes and charts of every Client go through it; call it once at startup.
func ConfigureBackend(timeout time.Duration) {
	finance.SetBackend(finance.YFinBackend, &finance.BackendConfiguration{
		Type:       finance.YFinBackend,
		URL:        finance.YFinURL,
		HTTPClient: &http.Client{Timeout: timeout},
	})
}

// NewClient creates a Yahoo Finance gateway. It leaves the finance-go backend as it is;
// see ConfigureBackend.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		limiter:     rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:         applogger.NewNop(),
		searchURL:   DefaultSearchURL,
		summaryURL:  DefaultSummaryURL,
		timeout:     DefaultTimeout,
		courtesyMin: 100 * time.Millisecond,
		courtesyMax: 500 * time.Millisecond,
		now:         time.Now,
		equityFn:    equity.Get,
		chartFn:     func(p *chart.Params) barIter { return chart.Get(p) },
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(c.timeout))
	}
	return c
}

var _ repository.MarketGateway = (*Client)(nil)

// LookupQuote fetches the provider quote for symbol.
func (c *Client) LookupQuote(ctx context.Context, symbol string) (*models.RawQuoteInfo, error) {
	q, err := call(ctx, c, "quote", symbol, func(context.Context) (*finance.Equity, error) {
		return c.equityFn(symbol)
	})
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, &repository.UpstreamError{Op: "quote", Symbol: symbol, Err: repository.ErrNoData}
	}

	return &models.RawQuoteInfo{
		Symbol:             q.Symbol,
		ShortName:          q.ShortName,
		CurrentPrice:       q.RegularMarketPrice,
		RegularMarketPrice: q.RegularMarketPrice,
		PreviousClose:      q.RegularMarketPreviousClose,
		Open:               q.RegularMarketOpen,
		Volume:             float64(q.RegularMarketVolume),
		AverageVolume:      float64(q.AverageDailyVolume3Month),
		MarketCap:          float64(q.MarketCap),
		TrailingPE:         q.TrailingPE,
		ForwardPE:          q.ForwardPE,
		TrailingEPS:        q.EpsTrailingTwelveMonths,
		DividendYield:      q.TrailingAnnualDividendYield,
		FiftyTwoWeekHigh:   q.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:    q.FiftyTwoWeekLow,
	}, nil
}

// LookupHistory fetches sampled closes covering period at the given interval.
func (c *Client) LookupHistory(ctx context.Context, symbol, period, interval string) ([]models.OHLCBar, error) {
	end := c.now()
	start := periodStart(period, end)

	bars, err := call(ctx, c, "history", symbol, func(context.Context) ([]models.OHLCBar, error) {
		iter := c.chartFn(&chart.Params{
			Symbol:   symbol,
			Start:    datetimeOf(start),
			End:      datetimeOf(end),
			Interval: intervalOf(interval),
		})
		var out []models.OHLCBar
		for iter.Next() {
			out = append(out, convertBar(iter.Bar()))
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	if period == "1d" {
		bars = lastSession(bars)
	}
	return bars, nil
}

// pause waits a random courtesy delay and then for a limiter token.
func (c *Client) pause(ctx context.Context) error {
	if span := c.courtesyMax - c.courtesyMin; c.courtesyMax > 0 {
		d := c.courtesyMin
		if span > 0 {
			d += rand.N(span)
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// call runs fn under the per-call timeout after the courtesy pause and wraps failures.
// finance-go is not context-aware, so fn runs in its own goroutine and is abandoned on timeout.
func call[T any](ctx context.Context, c *Client, op, symbol string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.pause(ctx); err != nil {
		return zero, &repository.UpstreamError{Op: op, Symbol: symbol, Err: err}
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, &repository.UpstreamError{Op: op, Symbol: symbol, Err: ctx.Err()}
	case r := <-ch:
		if r.err != nil {
			c.log.Debug("yahoo call failed",
				applogger.String("op", op),
				applogger.String("symbol", symbol),
				applogger.Error(r.err),
			)
			return zero, &repository.UpstreamError{Op: op, Symbol: symbol, Err: r.err}
		}
		return r.v, nil
	}
}
