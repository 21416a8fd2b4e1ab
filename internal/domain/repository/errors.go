package repository

import (
	"errors"
	"fmt"
)

// ErrNoData reports an empty upstream result. It is treated as a failed live fetch.
var ErrNoData = errors.New("no data")

// UpstreamError wraps a provider failure for one gateway call.
type UpstreamError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("upstream %s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrorKind labels an error for metrics.
func ErrorKind(err error) string {
	var ue *UpstreamError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.As(err, &ue):
		return ue.Op
	default:
		return "other"
	}
}
