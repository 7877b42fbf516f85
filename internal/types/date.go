package types

import (
	"time"
)

// DateFormat is the canonical civil date layout used across the system:
// YYYY-MM-DD in UTC
const DateFormat = "2006-01-02"

// MonthFormat is the layout for revenue target keys
const MonthFormat = "2006-01"

// FormatDate renders a time as a canonical civil date
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// ParseDate parses a canonical civil date into a UTC midnight instant
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.UTC)
}

// TruncateToDay drops the clock part of an instant, keeping the UTC day
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TodayUTC returns the current UTC day at midnight
func TodayUTC() time.Time {
	return TruncateToDay(time.Now())
}

// IsValidMonthKey reports whether s is a YYYY-MM revenue target key
func IsValidMonthKey(s string) bool {
	_, err := time.ParseInLocation(MonthFormat, s, time.UTC)
	return err == nil
}
