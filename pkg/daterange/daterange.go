package daterange

import "time"

// Layout is the canonical wire and storage format for calendar dates.
const Layout = "2006-01-02"

// Named filter tokens accepted by the zone read endpoints.
const (
	TokenThisWeek  = "thisWeek"
	TokenThisMonth = "thisMonth"
	TokenLast30    = "last30"
)

// Resolve maps a filter token and a reference day to the inclusive lower
// bound of the range, as a YYYY-MM-DD string. There is no upper bound.
// Unknown or empty tokens fall back to last30; no error is signalled.
func Resolve(token string, today time.Time) string {
	switch token {
	case TokenThisWeek:
		// Week starts Sunday (Weekday() == 0).
		return today.AddDate(0, 0, -int(today.Weekday())).Format(Layout)
	case TokenThisMonth:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).Format(Layout)
	default:
		return today.AddDate(0, 0, -30).Format(Layout)
	}
}

// Normalize reduces any date or timestamp string to its YYYY-MM-DD prefix,
// so grouping keys stay stable across storage representations.
func Normalize(s string) string {
	if len(s) > len(Layout) {
		return s[:len(Layout)]
	}
	return s
}

// Day formats a time as a YYYY-MM-DD string.
func Day(t time.Time) string {
	return t.Format(Layout)
}
