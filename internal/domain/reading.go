package domain

import (
	"time"

	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

// Reading is a single CGM sample in mg/dL.
type Reading struct {
	Time  time.Time
	Value int
	Trend string
}

// Chart windows are limited to the sizes the charts are designed for.
var chartHours = map[int]struct{}{
	1: {}, 3: {}, 5: {}, 8: {}, 12: {}, 24: {},
}

// ChartDuration converts a requested window size in hours into a duration,
// rejecting sizes outside the allowed set with a range error.
func ChartDuration(hours int) (time.Duration, error) {
	if _, ok := chartHours[hours]; !ok {
		return 0, apperrors.ErrInvalidRange
	}
	return time.Duration(hours) * time.Hour, nil
}
