package repository

// Timeframe is a chart range selectable by callers.
type Timeframe string

const (
	TF1d  Timeframe = "1d"
	TF1w  Timeframe = "1w"
	TF1m  Timeframe = "1m"
	TF3m  Timeframe = "3m"
	TF1y  Timeframe = "1y"
	TFAll Timeframe = "all"
)

// TimeframeSpec is the upstream sampling and label layout for a timeframe.
// MockPoints and MockDays shape the synthetic series served when nothing else is available.
type TimeframeSpec struct {
	Period      string
	Interval    string
	LabelLayout string
	MockPoints  int
	MockDays    int
}

var timeframes = map[Timeframe]TimeframeSpec{
	TF1d:  {Period: "1d", Interval: "5m", LabelLayout: "15:04", MockPoints: 24, MockDays: 1},
	TF1w:  {Period: "1wk", Interval: "1h", LabelLayout: "Mon", MockPoints: 7, MockDays: 7},
	TF1m:  {Period: "1mo", Interval: "1d", LabelLayout: "02", MockPoints: 30, MockDays: 30},
	TF3m:  {Period: "3mo", Interval: "1d", LabelLayout: "Jan 02", MockPoints: 12, MockDays: 90},
	TF1y:  {Period: "1y", Interval: "1wk", LabelLayout: "Jan", MockPoints: 52, MockDays: 365},
	TFAll: {Period: "max", Interval: "1mo", LabelLayout: "2006", MockPoints: 60, MockDays: 1825},
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	_, ok := timeframes[tf]
	return ok
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1m }

// NormalizeTimeframe converts a raw string to a timeframe. Empty means the default,
// anything unrecognised means all.
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return TFAll
}

// Spec returns the sampling spec for tf, falling back to all for unknown values.
func (tf Timeframe) Spec() TimeframeSpec {
	if s, ok := timeframes[tf]; ok {
		return s
	}
	return timeframes[TFAll]
}
