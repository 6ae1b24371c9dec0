// Package ingest reads sales extracts and target sheets from CSV or XLSX
// files and loads them into the configured stores.
package ingest

import (
	"strings"
	"unicode"

	"github.com/siddha-avenue/salesops/internal/sales"
)

// headerAliases maps normalised header text to a record field. Every field's
// own column name is accepted as well.
var headerAliases = map[string]sales.Field{
	"salesdate":     sales.FieldDate,
	"invoicedate":   sales.FieldDate,
	"type":          sales.FieldSalesType,
	"pricesegment":  sales.FieldSegment,
	"dealer":        sales.FieldDealerCode,
	"dealerid":      sales.FieldDealerCode,
	"value":         sales.FieldCurrentValue,
	"mtdvalue":      sales.FieldCurrentValue,
	"ytdvalue":      sales.FieldCurrentValue,
	"volume":        sales.FieldCurrentVolume,
	"qty":           sales.FieldCurrentVolume,
	"mtdvolume":     sales.FieldCurrentVolume,
	"ytdvolume":     sales.FieldCurrentVolume,
	"lmtdvalue":     sales.FieldComparatorValue,
	"lytdvalue":     sales.FieldComparatorValue,
	"lmtdvolume":    sales.FieldComparatorVolume,
	"lytdvolume":    sales.FieldComparatorVolume,
	"tgtvalue":      sales.FieldTargetValue,
	"tgtvolume":     sales.FieldTargetVolume,
}

func init() {
	for _, f := range sales.Columns {
		headerAliases[normalizeHeader(string(f))] = f
	}
}

// normalizeHeader lower-cases a header and drops everything but letters and
// digits, so "Dealer Code", "dealer_code" and "DEALER-CODE" agree.
func normalizeHeader(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// mapHeader resolves header cells to fields by position. The first column
// naming a field wins; unrecognised columns are ignored.
func mapHeader(headers []string) (map[int]sales.Field, error) {
	mapping := make(map[int]sales.Field, len(headers))
	seen := make(map[sales.Field]bool, len(headers))
	for idx, h := range headers {
		f, ok := headerAliases[normalizeHeader(h)]
		if !ok || seen[f] {
			continue
		}
		mapping[idx] = f
		seen[f] = true
	}
	if !seen[sales.FieldDate] {
		return nil, errMissingColumn(sales.FieldDate)
	}
	if !seen[sales.FieldCurrentValue] && !seen[sales.FieldCurrentVolume] {
		return nil, errMissingColumn(sales.FieldCurrentValue)
	}
	return mapping, nil
}
