package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"StockPulse/internal/domain/models"
	xhttp "StockPulse/pkg/http"
)

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			UpgradeDowngradeHistory struct {
				History []struct {
					EpochGradeDate int64  `json:"epochGradeDate"`
					Firm           string `json:"firm"`
					ToGrade        string `json:"toGrade"`
					FromGrade      string `json:"fromGrade"`
					Action         string `json:"action"`
				} `json:"history"`
			} `json:"upgradeDowngradeHistory"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// LookupRecommendations returns analyst rating actions in provider order.
func (c *Client) LookupRecommendations(ctx context.Context, symbol string) ([]models.Recommendation, error) {
	return call(ctx, c, "recommendations", symbol, func(ctx context.Context) ([]models.Recommendation, error) {
		var resp quoteSummaryResponse
		err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         c.summaryURL + "/" + url.PathEscape(symbol),
			QueryParams: map[string][]string{"modules": {"upgradeDowngradeHistory"}},
		}, &resp)
		if err != nil {
			return nil, err
		}
		if e := resp.QuoteSummary.Error; e != nil {
			return nil, fmt.Errorf("quote summary: %s: %s", e.Code, e.Description)
		}

		var recs []models.Recommendation
		for _, r := range resp.QuoteSummary.Result {
			for _, h := range r.UpgradeDowngradeHistory.History {
				recs = append(recs, models.Recommendation{
					Grade: h.ToGrade,
					Date:  time.Unix(h.EpochGradeDate, 0).UTC(),
				})
			}
		}
		return recs, nil
	})
}

// SearchSymbols matches query against provider symbols and names.
func (c *Client) SearchSymbols(ctx context.Context, query string, limit int) ([]models.SymbolMatch, error) {
	return call(ctx, c, "search", "", func(ctx context.Context) ([]models.SymbolMatch, error) {
		var resp searchResponse
		err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    c.searchURL,
			QueryParams: map[string][]string{
				"q":           {query},
				"quotesCount": {strconv.Itoa(limit)},
				"newsCount":   {"0"},
			},
		}, &resp)
		if err != nil {
			return nil, err
		}

		matches := make([]models.SymbolMatch, 0, len(resp.Quotes))
		for _, q := range resp.Quotes {
			if q.Symbol == "" {
				continue
			}
			name := q.ShortName
			if name == "" {
				name = q.LongName
			}
			matches = append(matches, models.SymbolMatch{Symbol: q.Symbol, Name: name})
			if limit > 0 && len(matches) == limit {
				break
			}
		}
		return matches, nil
	})
}
