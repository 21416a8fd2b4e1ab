package usecase

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"StockPulse/internal/domain/models"

	"github.com/shopspring/decimal"
)

// round rounds half away from zero to places decimals. NaN and infinities become 0.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// PriceChange derives the latest price move. With two or more closes the last two are
// compared; otherwise current is compared against prevClose, which defaults to current
// when zero. percent is 0 when the reference price is not positive.
func PriceChange(closes []float64, current, prevClose float64) (price, change, percent, prev float64) {
	if n := len(closes); n >= 2 {
		price, prev = closes[n-1], closes[n-2]
	} else {
		price, prev = current, prevClose
		if prev == 0 {
			prev = price
		}
	}
	change = price - prev
	if prev > 0 {
		percent = change / prev * 100
	}
	return price, change, percent, prev
}

// closesOf returns the non-null closes of bars in order.
func closesOf(bars []models.OHLCBar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.Close != nil {
			out = append(out, *b.Close)
		}
	}
	return out
}

var (
	buyGrades  = []string{"buy", "outperform", "overweight"}
	holdGrades = []string{"hold", "neutral", "market perform"}
	sellGrades = []string{"sell", "underperform", "underweight"}
)

const analystWindow = 10

// TallyAnalysts buckets the grades of the ten most recent rating actions.
func TallyAnalysts(recs []models.Recommendation) models.AnalystTally {
	sorted := slices.Clone(recs)
	slices.SortStableFunc(sorted, func(a, b models.Recommendation) int {
		return a.Date.Compare(b.Date)
	})
	if len(sorted) > analystWindow {
		sorted = sorted[len(sorted)-analystWindow:]
	}

	var t models.AnalystTally
	for _, r := range sorted {
		g := strings.ToLower(strings.TrimSpace(r.Grade))
		switch {
		case g == "":
		case containsAny(g, buyGrades):
			t.Buy++
		case containsAny(g, holdGrades):
			t.Hold++
		case containsAny(g, sellGrades):
			t.Sell++
		}
	}
	return t
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// BuildQuote shapes provider data into a Quote.
func BuildQuote(symbol string, info *models.RawQuoteInfo, closes []float64, recs []models.Recommendation, ts string) models.Quote {
	current := info.CurrentPrice
	if current == 0 {
		current = info.RegularMarketPrice
	}
	price, change, percent, prev := PriceChange(closes, current, info.PreviousClose)

	name := info.ShortName
	if name == "" {
		name = symbol + " Corp"
	}
	pe := info.TrailingPE
	if pe == 0 {
		pe = info.ForwardPE
	}

	return models.Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         price,
		Change:        change,
		PercentChange: percent,
		MarketCap:     round(info.MarketCap/1e12, 2),
		Volume:        round(info.Volume/1e6, 1),
		AvgVolume:     round(info.AverageVolume/1e6, 1),
		PE:            round(pe, 1),
		EPS:           round(info.TrailingEPS, 2),
		Dividend:      round(info.DividendYield*100, 2),
		High52w:       info.FiftyTwoWeekHigh,
		Low52w:        info.FiftyTwoWeekLow,
		Open:          info.Open,
		PreviousClose: prev,
		Timestamp:     ts,
		Analyst:       TallyAnalysts(recs),
		Source:        models.SourceLive,
	}
}

// RankMovers returns rows sorted by percent change, descending for gainers and ascending
// for losers, each truncated to limit. Ties keep input order.
func RankMovers(rows []models.StockMove, limit int) (gainers, losers []models.StockMove) {
	if limit < 0 {
		limit = 0
	}
	gainers = slices.Clone(rows)
	slices.SortStableFunc(gainers, func(a, b models.StockMove) int {
		return cmp.Compare(b.PercentChange, a.PercentChange)
	})
	losers = slices.Clone(rows)
	slices.SortStableFunc(losers, func(a, b models.StockMove) int {
		return cmp.Compare(a.PercentChange, b.PercentChange)
	})
	return truncate(gainers, limit), truncate(losers, limit)
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

const (
	easternShift = -4 * time.Hour
	sessionOpen  = 9*60 + 30
	sessionClose = 16 * 60
)

// MarketStatusAt approximates the US equity session: Monday to Friday, 09:30 to 16:00 at a
// fixed UTC-4 offset. Daylight saving and exchange holidays are not modelled.
func MarketStatusAt(t time.Time) string {
	u := t.UTC()
	switch u.Weekday() {
	case time.Saturday, time.Sunday:
		return models.MarketClosed
	}
	e := u.Add(easternShift)
	minutes := e.Hour()*60 + e.Minute()
	if minutes >= sessionOpen && minutes < sessionClose {
		return models.MarketOpen
	}
	return models.MarketClosed
}

// filterPopular matches query case-insensitively against symbol and name of the popular list.
func filterPopular(query string, limit int) []models.SymbolMatch {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.SymbolMatch, 0, limit)
	for _, s := range popularStocks {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(s.Symbol), q) || strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
		}
	}
	return out
}
