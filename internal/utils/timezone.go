package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// MaxReportRange bounds how many days a single report may cover.
const MaxReportRange = 366 * 24 * time.Hour

var ErrInvalidDateRange = errors.New("invalid date range")

func LoadLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(tz))
	if err != nil || strings.TrimSpace(tz) == "" {
		return time.UTC
	}
	return loc
}

// ParseDateRange turns inclusive from/to dates (YYYY-MM-DD) into a half-open
// [start, end) interval in loc. A missing from defaults to to, a missing to
// defaults to today.
func ParseDateRange(from, to string, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if to == "" {
		to = now.In(loc).Format(dateLayout)
	}
	if from == "" {
		from = to
	}

	start, err := time.ParseInLocation(dateLayout, from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from %q must be YYYY-MM-DD", ErrInvalidDateRange, from)
	}
	last, err := time.ParseInLocation(dateLayout, to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to %q must be YYYY-MM-DD", ErrInvalidDateRange, to)
	}
	if last.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to is before from", ErrInvalidDateRange)
	}

	end := last.AddDate(0, 0, 1)
	if end.Sub(start) > MaxReportRange {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range exceeds 366 days", ErrInvalidDateRange)
	}
	return start, end, nil
}
