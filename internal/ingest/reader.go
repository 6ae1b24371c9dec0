package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
	"github.com/siddha-avenue/salesops/internal/targets"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("ingest: unsupported file format")

func errMissingColumn(f sales.Field) error {
	return shared.Invalid("header", fmt.Sprintf("no column maps to %s", f))
}

// Table is the raw grid of a sheet: a header row and data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadCSV reads a comma separated table. Ragged rows are accepted.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("ingest: read csv: %w", err)
	}
	return tableFrom(rows)
}

// ReadXLSX reads one worksheet of a workbook; an empty sheet name selects the
// first sheet. Cells are read raw so date serials survive number formats.
func ReadXLSX(r io.Reader, sheet string) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("ingest: open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, shared.Invalid("sheet", "workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("ingest: read sheet %q: %w", sheet, err)
	}
	return tableFrom(rows)
}

// ReadFile dispatches on the file extension.
func ReadFile(path, sheet string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(file)
	case ".xlsx", ".xlsm":
		return ReadXLSX(file, sheet)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func tableFrom(rows [][]string) (Table, error) {
	for i, row := range rows {
		if blank(row) {
			continue
		}
		return Table{Header: row, Rows: rows[i+1:]}, nil
	}
	return Table{}, shared.Invalid("header", "file has no header row")
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Records maps a table onto sales records. Blank rows are dropped; every
// other row is kept as-is apart from date and dealer normalisation, leaving
// bad quantities for aggregation-time coercion.
func (t Table) Records() ([]sales.Record, error) {
	mapping, err := mapHeader(t.Header)
	if err != nil {
		return nil, err
	}
	records := make([]sales.Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		if blank(row) {
			continue
		}
		var rec sales.Record
		for idx, field := range mapping {
			if idx >= len(row) {
				continue
			}
			rec.Set(field, strings.TrimSpace(row[idx]))
		}
		rec.Date = normalizeDate(rec.Date)
		rec.DealerCode = targets.NormalizeDealer(rec.DealerCode)
		records = append(records, rec)
	}
	return records, nil
}

// normalizeDate rewrites ISO dates and spreadsheet serials as MM/DD/YYYY.
// Anything else passes through untouched.
func normalizeDate(raw string) string {
	if d, ok := sales.ParseInputDate(raw); ok {
		return sales.FormatDate(d)
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		if d, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return sales.FormatDate(d)
		}
	}
	return raw
}
