package models

// Payload source tags. Stale payloads keep the tag they were stored with.
const (
	SourceLive = "live"
	SourceMock = "mock"
)

// TimestampLayout is the display format for payload timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// AnalystTally counts buy/hold/sell ratings among the most recent analyst actions.
type AnalystTally struct {
	Buy  int `json:"buy"`
	Hold int `json:"hold"`
	Sell int `json:"sell"`
}

// Quote is the detail view of a single stock.
// MarketCap is in trillions, Volume and AvgVolume in millions, Dividend in percent.
type Quote struct {
	Symbol        string       `json:"symbol"`
	Name          string       `json:"name"`
	Price         float64      `json:"price"`
	Change        float64      `json:"change"`
	PercentChange float64      `json:"percentChange"`
	MarketCap     float64      `json:"marketCap"`
	Volume        float64      `json:"volume"`
	AvgVolume     float64      `json:"avgVolume"`
	PE            float64      `json:"pe"`
	EPS           float64      `json:"eps"`
	Dividend      float64      `json:"dividend"`
	High52w       float64      `json:"high52w"`
	Low52w        float64      `json:"low52w"`
	Open          float64      `json:"open"`
	PreviousClose float64      `json:"previousClose"`
	Timestamp     string       `json:"timestamp"`
	Analyst       AnalystTally `json:"analyst"`
	Source        string       `json:"source"`
}

// HistoricalSeries is a price series for charting. Data holds nil where the upstream had no close.
type HistoricalSeries struct {
	Symbol     string     `json:"symbol"`
	Timeframe  string     `json:"timeframe"`
	Labels     []string   `json:"labels"`
	Data       []*float64 `json:"data"`
	Timestamps []string   `json:"timestamps"`
	UpdatedAt  string     `json:"updatedAt"`
	Source     string     `json:"source"`
}

type IndexQuote struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percentChange"`
}

type SectorPerformance struct {
	Name          string  `json:"name"`
	PercentChange float64 `json:"percentChange"`
}

// Market status values.
const (
	MarketOpen   = "open"
	MarketClosed = "closed"
)

type MarketSummary struct {
	Indices           []IndexQuote        `json:"indices"`
	SectorPerformance []SectorPerformance `json:"sectorPerformance"`
	MarketStatus      string              `json:"marketStatus"`
	Timestamp         string              `json:"timestamp"`
	Source            string              `json:"source"`
}

// StockMove is one row of the movers and most-watched lists.
type StockMove struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percentChange"`
}

type MoversResult struct {
	Gainers   []StockMove `json:"gainers"`
	Losers    []StockMove `json:"losers"`
	Timestamp string      `json:"timestamp"`
	Source    string      `json:"source"`
}

type WatchlistResult struct {
	Stocks    []StockMove `json:"stocks"`
	Timestamp string      `json:"timestamp"`
	Source    string      `json:"source"`
}

// SymbolMatch is a single search row.
type SymbolMatch struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
