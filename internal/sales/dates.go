package sales

import (
	"strings"
	"time"
)

// DateLayout is the textual date format used by sales extracts.
const DateLayout = "01/02/2006"

// parseLayout accepts one or two digit months and days.
const parseLayout = "1/2/2006"

// ParseDate parses an extract date (MM/DD/YYYY) into a UTC calendar date.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(parseLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseInputDate accepts extract dates (MM/DD/YYYY) and ISO dates (YYYY-MM-DD).
func ParseInputDate(raw string) (time.Time, bool) {
	if d, ok := ParseDate(raw); ok {
		return d, true
	}
	if d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), time.UTC); err == nil {
		return d, true
	}
	return time.Time{}, false
}

// CanonicalDate zero-pads a readable extract date ("3/5/2024" becomes
// "03/05/2024"). Anything else is returned unchanged.
func CanonicalDate(raw string) string {
	if d, ok := ParseDate(raw); ok {
		return FormatDate(d)
	}
	return raw
}

// FormatDate renders a calendar date in extract format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to midnight UTC of its calendar day in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Window is an inclusive range of calendar days.
type Window struct {
	From time.Time
	To   time.Time
}

// SingleDay returns a window covering only d.
func SingleDay(d time.Time) Window {
	d = Day(d)
	return Window{From: d, To: d}
}

// Contains reports whether calendar day d lies inside the window.
func (w Window) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(Day(w.From)) && !d.After(Day(w.To))
}

// String renders the window for logs and cache keys.
func (w Window) String() string {
	return FormatDate(w.From) + "-" + FormatDate(w.To)
}
