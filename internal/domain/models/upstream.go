package models

import "time"

// RawQuoteInfo carries provider quote fields. A zero value means the provider omitted the field.
type RawQuoteInfo struct {
	Symbol             string
	ShortName          string
	CurrentPrice       float64
	RegularMarketPrice float64
	PreviousClose      float64
	Open               float64
	Volume             float64
	AverageVolume      float64
	MarketCap          float64
	TrailingPE         float64
	ForwardPE          float64
	TrailingEPS        float64
	DividendYield      float64 // fraction, 0.0052 == 0.52%
	FiftyTwoWeekHigh   float64
	FiftyTwoWeekLow    float64
}

// OHLCBar is one sampled bar. Close is nil when the provider returned no price for it.
type OHLCBar struct {
	Time  time.Time
	Close *float64
}

// Recommendation is one analyst rating action.
type Recommendation struct {
	Grade string
	Date  time.Time
}
