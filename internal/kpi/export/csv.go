// Package export renders KPI reports as CSV and PDF.
package export

import (
	"encoding/csv"
	"io"

	"github.com/siddha-avenue/salesops/internal/kpi"
)

// WriteReportCSV writes the column headings followed by one record per row,
// Grand Total first.
func WriteReportCSV(w io.Writer, report kpi.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(report.Columns); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := writer.Write(row.Cells()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Filename names an export of report with the given extension.
func Filename(report kpi.Report, ext string) string {
	return "kpi-" + string(report.Dimension) + "-" + string(report.Period.Format) + "-" +
		compactDate(report.Period.CurrentEnd) + "." + ext
}

func compactDate(mmddyyyy string) string {
	if len(mmddyyyy) != 10 {
		return "latest"
	}
	return mmddyyyy[6:10] + mmddyyyy[0:2] + mmddyyyy[3:5]
}
