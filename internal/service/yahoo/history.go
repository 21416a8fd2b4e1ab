package yahoo

import (
	"time"

	"StockPulse/internal/domain/models"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/datetime"
)

// periodStart converts a provider period ("1d", "5d", "1wk", "1mo", "3mo", "1y", "max")
// into the start of the requested window ending at end.
func periodStart(period string, end time.Time) time.Time {
	switch period {
	case "1d":
		// reach back over a weekend; trimmed to the last session afterwards
		return end.AddDate(0, 0, -4)
	case "5d":
		return end.AddDate(0, 0, -7)
	case "1wk":
		return end.AddDate(0, 0, -7)
	case "1mo":
		return end.AddDate(0, -1, 0)
	case "3mo":
		return end.AddDate(0, -3, 0)
	case "1y":
		return end.AddDate(-1, 0, 0)
	default:
		return time.Unix(0, 0).UTC()
	}
}

func datetimeOf(t time.Time) *datetime.Datetime {
	return datetime.New(&t)
}

func intervalOf(interval string) datetime.Interval {
	return datetime.Interval(interval)
}

// convertBar maps a chart bar; a zero close means the provider returned null.
func convertBar(b *finance.ChartBar) models.OHLCBar {
	bar := models.OHLCBar{Time: time.Unix(int64(b.Timestamp), 0).UTC()}
	if !b.Close.IsZero() {
		v, _ := b.Close.Float64()
		bar.Close = &v
	}
	return bar
}

// lastSession keeps the bars that fall on the same UTC date as the final bar.
func lastSession(bars []models.OHLCBar) []models.OHLCBar {
	if len(bars) == 0 {
		return bars
	}
	y, m, d := bars[len(bars)-1].Time.Date()
	i := len(bars) - 1
	for i > 0 {
		py, pm, pd := bars[i-1].Time.Date()
		if py != y || pm != m || pd != d {
			break
		}
		i--
	}
	return bars[i:]
}
