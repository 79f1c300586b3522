package utils

import "time"

const (
	// DefaultHistoryDays bounds listings when the caller gives no window.
	DefaultHistoryDays = 30
	DefaultPageSize    = 20
	MaxPageSize        = 100
)

// HistoryWindow fills in missing listing bounds: "to" defaults to now and
// "from" to DefaultHistoryDays before "to".
func HistoryWindow(from, to, now time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -DefaultHistoryDays)
	}
	return from, to
}

// NormalizePage clamps paging inputs to usable values.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
