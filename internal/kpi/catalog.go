// Package kpi builds the time-windowed KPI reports: grouped sums for the
// current, comparator and first-day windows merged with targets into a fixed
// set of rows headed by a Grand Total.
package kpi

import (
	"fmt"
	"strings"

	"github.com/siddha-avenue/salesops/internal/hierarchy"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
	"github.com/siddha-avenue/salesops/internal/targets"
)

// Dimension is the breakdown a report is grouped by.
type Dimension string

const (
	DimensionChannel Dimension = "channel"
	DimensionSegment Dimension = "segment"
	DimensionRole    Dimension = "role"
	DimensionDealer  Dimension = "dealer"
)

// Channels is the fixed sales channel catalog in display order.
var Channels = []string{
	"DCM", "PC", "SCP", "SIS Plus", "SIS PRO", "STAR DCM", "SES", "SDP", "RRF EXT", "SES-LITE",
}

// Segments is the fixed price segment catalog in display order.
var Segments = []string{
	"100K", "70-100K", "40-70K", "30-40K", "20-30K", "15-20K", "10-15K", "6-10K", "Tab >40K", "Tab <40K", "Wearable",
}

// ParseDimension normalises a dimension keyword.
func ParseDimension(raw string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(raw))); d {
	case DimensionChannel, DimensionSegment, DimensionRole, DimensionDealer:
		return d, nil
	default:
		return "", shared.Invalid("dimension", fmt.Sprintf("%q is not channel, segment, role or dealer", raw))
	}
}

// Static reports whether the catalog is fixed rather than read from data.
func (d Dimension) Static() bool {
	return d == DimensionChannel || d == DimensionSegment
}

// Catalog returns a copy of a fixed catalog.
func (d Dimension) Catalog() ([]string, error) {
	var src []string
	switch d {
	case DimensionChannel:
		src = Channels
	case DimensionSegment:
		src = Segments
	default:
		return nil, shared.Invalid("dimension", fmt.Sprintf("%q has no fixed catalog", d))
	}
	out := make([]string, len(src))
	copy(out, src)
	return out, nil
}

// Label is the heading of the first report column.
func (d Dimension) Label(groupRole hierarchy.Role) string {
	switch d {
	case DimensionChannel:
		return "Channel"
	case DimensionSegment:
		return "Segment"
	case DimensionRole:
		return string(groupRole)
	case DimensionDealer:
		return "Dealer"
	default:
		return string(d)
	}
}

func (d Dimension) groupField(groupRole hierarchy.Role) sales.Field {
	switch d {
	case DimensionChannel:
		return sales.FieldChannel
	case DimensionSegment:
		return sales.FieldSegment
	case DimensionRole:
		return groupRole.Field()
	default:
		return sales.FieldDealerCode
	}
}

func (d Dimension) targetDimension() targets.Dimension {
	if d == DimensionChannel {
		return targets.Channel
	}
	return targets.Segment
}
