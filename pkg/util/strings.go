package util

import "strings"

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeQuery trims and lower-cases a free-text query for use in cache keys.
func NormalizeQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
