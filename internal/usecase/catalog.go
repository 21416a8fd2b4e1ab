package usecase

import "StockPulse/internal/domain/models"

// namedSymbol pairs a display name with a provider symbol.
type namedSymbol struct {
	Name   string
	Symbol string
}

var popularStocks = []models.SymbolMatch{
	{Symbol: "AAPL", Name: "Apple Inc."},
	{Symbol: "MSFT", Name: "Microsoft Corporation"},
	{Symbol: "GOOGL", Name: "Alphabet Inc."},
	{Symbol: "AMZN", Name: "Amazon.com Inc."},
	{Symbol: "META", Name: "Meta Platforms Inc."},
	{Symbol: "TSLA", Name: "Tesla Inc."},
	{Symbol: "NVDA", Name: "NVIDIA Corporation"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co."},
	{Symbol: "V", Name: "Visa Inc."},
	{Symbol: "JNJ", Name: "Johnson & Johnson"},
}

var marketIndices = []namedSymbol{
	{Name: "S&P 500", Symbol: "^GSPC"},
	{Name: "Dow Jones", Symbol: "^DJI"},
	{Name: "Nasdaq", Symbol: "^IXIC"},
	{Name: "Russell 2000", Symbol: "^RUT"},
}

// sectorETFs tracks sector performance through the SPDR sector funds.
var sectorETFs = []namedSymbol{
	{Name: "Technology", Symbol: "XLK"},
	{Name: "Healthcare", Symbol: "XLV"},
	{Name: "Financials", Symbol: "XLF"},
	{Name: "Consumer Discretionary", Symbol: "XLY"},
	{Name: "Communication Services", Symbol: "XLC"},
	{Name: "Industrials", Symbol: "XLI"},
	{Name: "Energy", Symbol: "XLE"},
	{Name: "Utilities", Symbol: "XLU"},
	{Name: "Materials", Symbol: "XLB"},
	{Name: "Real Estate", Symbol: "XLRE"},
}

var moverUniverse = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "META",
	"TSLA", "NVDA", "JPM", "V", "JNJ",
	"PG", "UNH", "HD", "BAC", "MA",
	"DIS", "ADBE", "CRM", "NFLX", "INTC",
}

var mostWatchedSymbols = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META"}

// PopularStocks returns a copy of the static popular list in display order.
func PopularStocks() []models.SymbolMatch {
	return append([]models.SymbolMatch(nil), popularStocks...)
}
