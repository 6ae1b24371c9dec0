package ingest

import (
	"fmt"
	"strings"

	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
	"github.com/siddha-avenue/salesops/internal/targets"
)

type targetColumn int

const (
	colName targetColumn = iota
	colRole
	colDealer
	colDimension
	colDimensionValue
	colValue
	colVolume
	colEffectiveDate
)

var targetHeaders = map[string]targetColumn{
	"name":           colName,
	"holder":         colName,
	"role":           colRole,
	"dealer":         colDealer,
	"dealercode":     colDealer,
	"dimension":      colDimension,
	"dimensionvalue": colDimensionValue,
	"channel":        colDimensionValue,
	"segment":        colDimensionValue,
	"value":          colValue,
	"targetvalue":    colValue,
	"volume":         colVolume,
	"targetvolume":   colVolume,
	"effectivedate":  colEffectiveDate,
	"from":           colEffectiveDate,
}

// TargetInputs maps a target sheet onto upload inputs. Columns are name, role,
// dealer, dimension, dimension_value, value, volume and effective_date; a
// "channel" or "segment" column stands in for dimension and dimension_value
// together. Quantities are coerced the way sales figures are.
func (t Table) TargetInputs() ([]targets.EntryInput, error) {
	mapping := make(map[int]targetColumn, len(t.Header))
	impliedDimension := ""
	seen := make(map[targetColumn]bool)
	for idx, h := range t.Header {
		norm := normalizeHeader(h)
		col, ok := targetHeaders[norm]
		if !ok || seen[col] {
			continue
		}
		if norm == "channel" || norm == "segment" {
			impliedDimension = norm
		}
		mapping[idx] = col
		seen[col] = true
	}
	if !seen[colDimensionValue] {
		return nil, shared.Invalid("header", "no dimension_value, channel or segment column")
	}
	if !seen[colEffectiveDate] {
		return nil, shared.Invalid("header", "no effective_date column")
	}
	if !seen[colDimension] && impliedDimension == "" {
		return nil, shared.Invalid("header", "no dimension column")
	}

	inputs := make([]targets.EntryInput, 0, len(t.Rows))
	for i, row := range t.Rows {
		if blank(row) {
			continue
		}
		in := targets.EntryInput{Dimension: impliedDimension}
		for idx, col := range mapping {
			if idx >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[idx])
			switch col {
			case colName:
				in.Name = cell
			case colRole:
				in.Role = cell
			case colDealer:
				in.Dealer = cell
			case colDimension:
				if cell != "" {
					in.Dimension = strings.ToLower(cell)
				}
			case colDimensionValue:
				in.DimensionValue = cell
			case colValue:
				in.Value = sales.CoerceInt(cell)
			case colVolume:
				in.Volume = sales.CoerceInt(cell)
			case colEffectiveDate:
				in.EffectiveDate = normalizeDate(cell)
			}
		}
		if in.DimensionValue == "" {
			return nil, shared.Invalid("row", fmt.Sprintf("row %d has no dimension value", i+2))
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		return nil, shared.Invalid("rows", "sheet has no target rows")
	}
	return inputs, nil
}
