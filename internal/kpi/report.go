package kpi

import (
	"strconv"

	"github.com/siddha-avenue/salesops/internal/hierarchy"
	"github.com/siddha-avenue/salesops/internal/period"
	"github.com/siddha-avenue/salesops/internal/sales"
)

// GrandTotal labels the first row of every report.
const GrandTotal = "Grand Total"

// Row is one line of a report.
type Row struct {
	Label                string  `json:"label"`
	Target               int64   `json:"target"`
	Current              int64   `json:"current"`
	Comparator           int64   `json:"comparator"`
	FirstDay             int64   `json:"firstDay"`
	Pending              int64   `json:"pending"`
	AverageDailySale     Fixed   `json:"averageDailySale"`
	RequiredDailyAverage Fixed   `json:"requiredDailyAverage"`
	Growth               Percent `json:"growthPercent"`
	Contribution         Fixed   `json:"contributionPercent"`
}

// Cells renders the row in column order.
func (r Row) Cells() []string {
	return []string{
		r.Label,
		strconv.FormatInt(r.Target, 10),
		strconv.FormatInt(r.Current, 10),
		strconv.FormatInt(r.Comparator, 10),
		strconv.FormatInt(r.FirstDay, 10),
		strconv.FormatInt(r.Pending, 10),
		r.AverageDailySale.String(),
		r.RequiredDailyAverage.String(),
		r.Growth.String(),
		r.Contribution.String(),
	}
}

// Columns returns the report headings for a dimension and period family.
func Columns(dim Dimension, groupRole hierarchy.Role, format period.Format) []string {
	return []string{
		dim.Label(groupRole),
		"Target",
		format.CurrentLabel(),
		format.ComparatorLabel(),
		"FTD",
		"Pending",
		"ADS",
		"Req. ADS",
		"Growth %",
		"Contribution %",
	}
}

// PeriodSummary describes the windows a report covers.
type PeriodSummary struct {
	Format          period.Format `json:"format"`
	CurrentStart    string        `json:"currentStart"`
	CurrentEnd      string        `json:"currentEnd"`
	ComparatorStart string        `json:"comparatorStart"`
	ComparatorEnd   string        `json:"comparatorEnd"`
	FirstDay        string        `json:"firstDay"`
	DaysElapsed     int           `json:"daysElapsed"`
	DaysRemaining   int           `json:"daysRemaining"`
}

func summarize(w period.Window) PeriodSummary {
	return PeriodSummary{
		Format:          w.Format,
		CurrentStart:    sales.FormatDate(w.CurrentStart),
		CurrentEnd:      sales.FormatDate(w.CurrentEnd),
		ComparatorStart: sales.FormatDate(w.ComparatorStart),
		ComparatorEnd:   sales.FormatDate(w.ComparatorEnd),
		FirstDay:        sales.FormatDate(w.CurrentEnd),
		DaysElapsed:     w.DaysElapsed,
		DaysRemaining:   w.DaysRemaining,
	}
}

// Report is the output of one build. Rows[0] is the Grand Total.
type Report struct {
	Dimension Dimension     `json:"dimension"`
	ValueKind ValueKind     `json:"valueKind"`
	Entity    string        `json:"entity,omitempty"`
	SalesType string        `json:"salesType"`
	Columns   []string      `json:"columns"`
	Rows      []Row         `json:"rows"`
	Period    PeriodSummary `json:"period"`
}

// Figures are the fetched inputs of a report, keyed by catalog value.
type Figures struct {
	Current    map[string]int64
	Comparator map[string]int64
	FirstDay   map[string]int64
	Targets    map[string]int64
}

// Compose builds one row per catalog value, missing figures counting as
// zero, and prepends the Grand Total.
func Compose(catalog []string, f Figures, daysElapsed, daysRemaining int) []Row {
	rows := make([]Row, 0, len(catalog)+1)
	total := Row{Label: GrandTotal}
	for _, value := range catalog {
		row := Row{
			Label:      value,
			Target:     f.Targets[value],
			Current:    f.Current[value],
			Comparator: f.Comparator[value],
			FirstDay:   f.FirstDay[value],
		}
		total.Target += row.Target
		total.Current += row.Current
		total.Comparator += row.Comparator
		total.FirstDay += row.FirstDay
		rows = append(rows, row)
	}

	for i := range rows {
		derive(&rows[i], total.Current, daysElapsed, daysRemaining)
	}
	derive(&total, total.Current, daysElapsed, daysRemaining)
	return append([]Row{total}, rows...)
}

func derive(row *Row, totalCurrent int64, daysElapsed, daysRemaining int) {
	row.Pending = row.Target - row.Current
	row.AverageDailySale = Ratio(row.Current, int64(max(daysElapsed-1, 1)))
	row.RequiredDailyAverage = Ratio(row.Pending, int64(max(daysRemaining, 1)))
	row.Growth = Growth(row.Current, row.Comparator)
	row.Contribution = PercentRatio(row.Current, totalCurrent)
}
