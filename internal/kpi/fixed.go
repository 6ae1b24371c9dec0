package kpi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Fixed is a quantity rounded to two decimals. It encodes as a JSON number.
type Fixed struct {
	d decimal.Decimal
}

// NewFixed rounds d half away from zero to two places.
func NewFixed(d decimal.Decimal) Fixed {
	return Fixed{d: d.Round(2)}
}

// Ratio returns num/den rounded. A zero denominator yields zero.
func Ratio(num, den int64) Fixed {
	if den == 0 {
		return Fixed{}
	}
	return NewFixed(decimal.NewFromInt(num).Div(decimal.NewFromInt(den)))
}

// PercentRatio returns num/den×100 rounded. A zero denominator yields zero.
func PercentRatio(num, den int64) Fixed {
	if den == 0 {
		return Fixed{}
	}
	return NewFixed(decimal.NewFromInt(num).Mul(hundred).Div(decimal.NewFromInt(den)))
}

// Decimal returns the underlying value.
func (f Fixed) Decimal() decimal.Decimal { return f.d }

// Float64 returns the nearest float.
func (f Fixed) Float64() float64 { return f.d.InexactFloat64() }

func (f Fixed) String() string { return f.d.StringFixed(2) }

// MarshalJSON implements json.Marshaler.
func (f Fixed) MarshalJSON() ([]byte, error) {
	return []byte(f.d.StringFixed(2)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Fixed) UnmarshalJSON(data []byte) error {
	d, err := decimal.NewFromString(string(bytes.Trim(data, `"`)))
	if err != nil {
		return fmt.Errorf("kpi: decode fixed: %w", err)
	}
	f.d = d.Round(2)
	return nil
}

// NotApplicable is the rendering of a percentage with a zero base.
const NotApplicable = "N/A"

// Percent is a growth percentage that may be undefined.
type Percent struct {
	value Fixed
	valid bool
}

// PercentOf wraps a defined percentage.
func PercentOf(f Fixed) Percent { return Percent{value: f, valid: true} }

// Growth returns (current-comparator)/comparator×100, undefined when the
// comparator is zero.
func Growth(current, comparator int64) Percent {
	if comparator == 0 {
		return Percent{}
	}
	return PercentOf(PercentRatio(current-comparator, comparator))
}

// Valid reports whether the percentage is defined.
func (p Percent) Valid() bool { return p.valid }

// Value returns the percentage and whether it is defined.
func (p Percent) Value() (Fixed, bool) { return p.value, p.valid }

func (p Percent) String() string {
	if !p.valid {
		return NotApplicable
	}
	return p.value.String()
}

// MarshalJSON writes "N/A" or a number.
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return json.Marshal(NotApplicable)
	}
	return p.value.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Percent) UnmarshalJSON(data []byte) error {
	if string(data) == `"`+NotApplicable+`"` || string(data) == "null" {
		*p = Percent{}
		return nil
	}
	if err := p.value.UnmarshalJSON(data); err != nil {
		return err
	}
	p.valid = true
	return nil
}
