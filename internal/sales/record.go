// Package sales holds the ingested sales rows and the stores that aggregate them.
package sales

import "github.com/google/uuid"

// SalesType classifies a row by where in the distribution chain the sale happened.
type SalesType string

const (
	SellIn    SalesType = "Sell In"
	SellOut   SalesType = "Sell Out"
	SellThru2 SalesType = "Sell Thru2"
)

// SalesTypes lists the known classifications.
var SalesTypes = []SalesType{SellIn, SellOut, SellThru2}

// Field names a column of a sales row. The string value is the column name in
// Postgres and the document key in Mongo.
type Field string

const (
	FieldDate             Field = "date"
	FieldSalesType        Field = "sales_type"
	FieldChannel          Field = "channel"
	FieldSegment          Field = "segment"
	FieldTSE              Field = "tse"
	FieldASM              Field = "asm"
	FieldASE              Field = "ase"
	FieldRSO              Field = "rso"
	FieldABM              Field = "abm"
	FieldZSM              Field = "zsm"
	FieldDealerCode       Field = "dealer_code"
	FieldDealerName       Field = "dealer_name"
	FieldCurrentValue     Field = "current_value"
	FieldCurrentVolume    Field = "current_volume"
	FieldComparatorValue  Field = "comparator_value"
	FieldComparatorVolume Field = "comparator_volume"
	FieldTargetValue      Field = "target_value"
	FieldTargetVolume     Field = "target_volume"
)

var textFields = map[Field]bool{
	FieldDate:       true,
	FieldSalesType:  true,
	FieldChannel:    true,
	FieldSegment:    true,
	FieldTSE:        true,
	FieldASM:        true,
	FieldASE:        true,
	FieldRSO:        true,
	FieldABM:        true,
	FieldZSM:        true,
	FieldDealerCode: true,
	FieldDealerName: true,
}

var numericFields = map[Field]bool{
	FieldCurrentValue:     true,
	FieldCurrentVolume:    true,
	FieldComparatorValue:  true,
	FieldComparatorVolume: true,
	FieldTargetValue:      true,
	FieldTargetVolume:     true,
}

// Columns lists every persisted field in storage order.
var Columns = []Field{
	FieldDate, FieldSalesType, FieldChannel, FieldSegment,
	FieldTSE, FieldASM, FieldASE, FieldRSO, FieldABM, FieldZSM,
	FieldDealerCode, FieldDealerName,
	FieldCurrentValue, FieldCurrentVolume,
	FieldComparatorValue, FieldComparatorVolume,
	FieldTargetValue, FieldTargetVolume,
}

// Valid reports whether f is a known column.
func (f Field) Valid() bool {
	return textFields[f] || numericFields[f]
}

// Numeric reports whether f holds a coercible quantity.
func (f Field) Numeric() bool {
	return numericFields[f]
}

// Record is one row of an ingested extract. Quantities stay as the extract
// supplied them and are coerced at aggregation time.
type Record struct {
	Date             string `json:"date" bson:"date"`
	SalesType        string `json:"salesType" bson:"sales_type"`
	Channel          string `json:"channel" bson:"channel"`
	Segment          string `json:"segment" bson:"segment"`
	TSE              string `json:"tse" bson:"tse"`
	ASM              string `json:"asm" bson:"asm"`
	ASE              string `json:"ase" bson:"ase"`
	RSO              string `json:"rso" bson:"rso"`
	ABM              string `json:"abm" bson:"abm"`
	ZSM              string `json:"zsm" bson:"zsm"`
	DealerCode       string `json:"dealerCode" bson:"dealer_code"`
	DealerName       string `json:"dealerName" bson:"dealer_name"`
	CurrentValue     string `json:"currentValue" bson:"current_value"`
	CurrentVolume    string `json:"currentVolume" bson:"current_volume"`
	ComparatorValue  string `json:"comparatorValue" bson:"comparator_value"`
	ComparatorVolume string `json:"comparatorVolume" bson:"comparator_volume"`
	TargetValue      string `json:"targetValue" bson:"target_value"`
	TargetVolume     string `json:"targetVolume" bson:"target_volume"`
}

// Get returns the raw value stored under f.
func (r Record) Get(f Field) string {
	switch f {
	case FieldDate:
		return r.Date
	case FieldSalesType:
		return r.SalesType
	case FieldChannel:
		return r.Channel
	case FieldSegment:
		return r.Segment
	case FieldTSE:
		return r.TSE
	case FieldASM:
		return r.ASM
	case FieldASE:
		return r.ASE
	case FieldRSO:
		return r.RSO
	case FieldABM:
		return r.ABM
	case FieldZSM:
		return r.ZSM
	case FieldDealerCode:
		return r.DealerCode
	case FieldDealerName:
		return r.DealerName
	case FieldCurrentValue:
		return r.CurrentValue
	case FieldCurrentVolume:
		return r.CurrentVolume
	case FieldComparatorValue:
		return r.ComparatorValue
	case FieldComparatorVolume:
		return r.ComparatorVolume
	case FieldTargetValue:
		return r.TargetValue
	case FieldTargetVolume:
		return r.TargetVolume
	default:
		return ""
	}
}

// Set stores value under f. Unknown fields are ignored.
func (r *Record) Set(f Field, value string) {
	switch f {
	case FieldDate:
		r.Date = value
	case FieldSalesType:
		r.SalesType = value
	case FieldChannel:
		r.Channel = value
	case FieldSegment:
		r.Segment = value
	case FieldTSE:
		r.TSE = value
	case FieldASM:
		r.ASM = value
	case FieldASE:
		r.ASE = value
	case FieldRSO:
		r.RSO = value
	case FieldABM:
		r.ABM = value
	case FieldZSM:
		r.ZSM = value
	case FieldDealerCode:
		r.DealerCode = value
	case FieldDealerName:
		r.DealerName = value
	case FieldCurrentValue:
		r.CurrentValue = value
	case FieldCurrentVolume:
		r.CurrentVolume = value
	case FieldComparatorValue:
		r.ComparatorValue = value
	case FieldComparatorVolume:
		r.ComparatorVolume = value
	case FieldTargetValue:
		r.TargetValue = value
	case FieldTargetVolume:
		r.TargetVolume = value
	}
}

// Batch is one ingest run.
type Batch struct {
	ID      uuid.UUID
	Source  string
	Records []Record
}
