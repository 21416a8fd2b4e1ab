package models

// Requests for market HTTP endpoints. Defined in domain for consistency and reuse.

type SearchRequest struct {
	Query string `query:"q" json:"q"`
	Limit int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=50"`
}

type DetailsRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=15"`
}

type HistoryRequest struct {
	Symbol    string `param:"symbol" json:"symbol" validate:"required,max=15"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1m" validate:"max=8"`
}

type LimitRequest struct {
	Limit int `query:"limit" json:"limit" default:"5" validate:"gte=1,lte=50"`
}

// HealthResponse reports liveness and local cache occupancy per namespace.
type HealthResponse struct {
	Status string         `json:"status"`
	Cache  map[string]int `json:"cache"`
}
