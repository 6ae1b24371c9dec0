// Package period turns report date parameters into concrete calendar windows.
package period

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
)

// Format selects the period family of a report.
type Format string

const (
	MTD Format = "MTD"
	YTD Format = "YTD"
)

// ParseFormat normalises a format keyword. Empty input means MTD.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", string(MTD):
		return MTD, nil
	case string(YTD):
		return YTD, nil
	default:
		return "", shared.Invalid("format", fmt.Sprintf("%q is not MTD or YTD", raw))
	}
}

// CurrentLabel names the current-period column.
func (f Format) CurrentLabel() string {
	return string(f)
}

// ComparatorLabel names the comparator column: LMTD or LYTD.
func (f Format) ComparatorLabel() string {
	if f == YTD {
		return "LYTD"
	}
	return "LMTD"
}

// Request carries the raw period parameters of a report.
type Request struct {
	Format Format `json:"format"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
}

// Window holds every range a report needs. Dates are UTC calendar days.
type Window struct {
	Format          Format    `json:"format"`
	CurrentStart    time.Time `json:"currentStart"`
	CurrentEnd      time.Time `json:"currentEnd"`
	ComparatorStart time.Time `json:"comparatorStart"`
	ComparatorEnd   time.Time `json:"comparatorEnd"`
	DaysElapsed     int       `json:"daysElapsed"`
	DaysRemaining   int       `json:"daysRemaining"`
}

// Current returns the current-period range.
func (w Window) Current() sales.Window {
	return sales.Window{From: w.CurrentStart, To: w.CurrentEnd}
}

// Comparator returns the prior-period range.
func (w Window) Comparator() sales.Window {
	return sales.Window{From: w.ComparatorStart, To: w.ComparatorEnd}
}

// FirstDay returns the single reference day.
func (w Window) FirstDay() sales.Window {
	return sales.SingleDay(w.CurrentEnd)
}

// Resolver computes windows relative to "today" in the reporting timezone.
type Resolver struct {
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewResolver builds a resolver. A nil location means UTC.
func NewResolver(logger *slog.Logger, loc *time.Location) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{logger: logger, loc: loc, now: time.Now}
}

// WithNow overrides the resolver clock for testing.
func (r *Resolver) WithNow(fn func() time.Time) {
	if fn != nil {
		r.now = fn
	}
}

// Today returns the current calendar day in the reporting timezone.
func (r *Resolver) Today() time.Time {
	return sales.Day(r.now().In(r.loc))
}

// Resolve never fails: unreadable dates fall back to the defaults and are
// logged at warn level.
func (r *Resolver) Resolve(req Request) Window {
	format := req.Format
	if format != YTD {
		format = MTD
	}
	today := r.Today()

	end := today
	if raw := strings.TrimSpace(req.End); raw != "" {
		if parsed, ok := sales.ParseInputDate(raw); ok {
			end = parsed
		} else {
			r.logger.Warn("unreadable end date, using today", slog.String("end", raw), slog.String("default", sales.FormatDate(end)))
		}
	}

	start := anchor(format, end)
	if raw := strings.TrimSpace(req.Start); raw != "" {
		if parsed, ok := sales.ParseInputDate(raw); ok {
			start = parsed
		} else {
			r.logger.Warn("unreadable start date, using period anchor", slog.String("start", raw), slog.String("default", sales.FormatDate(start)))
		}
	}
	if start.After(end) {
		fallback := anchor(format, end)
		r.logger.Warn("start date after end date, using period anchor",
			slog.String("start", sales.FormatDate(start)),
			slog.String("end", sales.FormatDate(end)),
			slog.String("default", sales.FormatDate(fallback)))
		start = fallback
	}

	w := Window{
		Format:        format,
		CurrentStart:  start,
		CurrentEnd:    end,
		DaysElapsed:   daysBetween(anchor(format, end), end) + 1,
		DaysRemaining: daysBetween(end, periodEnd(format, end)),
	}
	switch format {
	case YTD:
		// LYTD always opens on Jan 1 of the prior year, whatever the current start.
		w.ComparatorStart = ShiftYears(anchor(YTD, end), -1)
		w.ComparatorEnd = ShiftYears(end, -1)
	default:
		w.ComparatorStart = ShiftMonths(start, -1)
		w.ComparatorEnd = ShiftMonths(end, -1)
	}
	return w
}

// ShiftMonths moves d by n calendar months, clamping the day to the last
// day of the target month.
func ShiftMonths(d time.Time, n int) time.Time {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := d.Day()
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// ShiftYears moves d by n years; Feb 29 becomes Feb 28 in non-leap years.
func ShiftYears(d time.Time, n int) time.Time {
	return ShiftMonths(d, 12*n)
}

func anchor(format Format, d time.Time) time.Time {
	if format == YTD {
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func periodEnd(format Format, d time.Time) time.Time {
	if format == YTD {
		return time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

func daysIn(firstOfMonth time.Time) int {
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func daysBetween(from, to time.Time) int {
	return int(sales.Day(to).Sub(sales.Day(from)).Hours() / 24)
}
