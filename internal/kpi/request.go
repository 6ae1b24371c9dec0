package kpi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/siddha-avenue/salesops/internal/hierarchy"
	"github.com/siddha-avenue/salesops/internal/period"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
	"github.com/siddha-avenue/salesops/internal/targets"
)

// ValueKind selects whether reports total value or volume.
type ValueKind string

const (
	ValueKindValue  ValueKind = "value"
	ValueKindVolume ValueKind = "volume"
)

// SalesTypeAll disables the sales type filter.
const SalesTypeAll = "all"

func (k ValueKind) currentField() sales.Field {
	if k == ValueKindVolume {
		return sales.FieldCurrentVolume
	}
	return sales.FieldCurrentValue
}

func (k ValueKind) comparatorField() sales.Field {
	if k == ValueKindVolume {
		return sales.FieldComparatorVolume
	}
	return sales.FieldComparatorValue
}

func (k ValueKind) pick(t targets.Target) int64 {
	if k == ValueKindVolume {
		return t.Volume
	}
	return t.Value
}

// Request is a validated report request.
type Request struct {
	Dimension Dimension
	Period    period.Request
	Entity    targets.EntityKey
	GroupRole hierarchy.Role
	ValueKind ValueKind
	// SalesType is a canonical sales type, SalesTypeAll, or empty for the
	// configured default.
	SalesType string
}

// Validate checks the request shape before any query is issued.
func (r Request) Validate() error {
	switch r.Dimension {
	case DimensionChannel, DimensionSegment, DimensionRole, DimensionDealer:
	default:
		return shared.Invalid("dimension", fmt.Sprintf("%q is not channel, segment, role or dealer", r.Dimension))
	}
	if r.ValueKind != ValueKindValue && r.ValueKind != ValueKindVolume {
		return shared.Invalid("valueKind", fmt.Sprintf("%q is not value or volume", r.ValueKind))
	}
	if r.Period.Format != period.MTD && r.Period.Format != period.YTD {
		return shared.Invalid("format", fmt.Sprintf("%q is not MTD or YTD", r.Period.Format))
	}
	switch r.Entity.Kind {
	case targets.KindRole:
		if r.Entity.Name == "" || !r.Entity.Role.Valid() {
			return shared.Invalid("entity", "role filter needs a name and a known role")
		}
	case targets.KindDealer:
		if r.Entity.Name == "" {
			return shared.Invalid("dealer", "must not be empty")
		}
	case "":
		if !r.Entity.IsZero() {
			return shared.Invalid("entity", "kind required")
		}
	default:
		return shared.Invalid("entity", fmt.Sprintf("unknown kind %q", r.Entity.Kind))
	}

	switch r.Dimension {
	case DimensionRole:
		if r.Entity.Kind != targets.KindRole {
			return shared.Invalid("name", "role reports need a name and role filter")
		}
		if !r.GroupRole.Valid() {
			return shared.Invalid("groupRole", "required for role reports")
		}
		if !r.Entity.Role.Outranks(r.GroupRole) {
			return shared.Invalid("groupRole", fmt.Sprintf("%s is not below %s", r.GroupRole, r.Entity.Role))
		}
	case DimensionDealer:
		if r.Entity.Kind != targets.KindRole {
			return shared.Invalid("name", "dealer reports need a name and role filter")
		}
	}

	if r.SalesType != "" && r.SalesType != SalesTypeAll {
		if _, ok := canonicalSalesType(r.SalesType); !ok {
			return shared.Invalid("salesType", fmt.Sprintf("%q is not a known sales type", r.SalesType))
		}
	}
	return nil
}

func canonicalSalesType(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, SalesTypeAll) {
		return SalesTypeAll, true
	}
	for _, st := range sales.SalesTypes {
		if strings.EqualFold(raw, string(st)) {
			return string(st), true
		}
	}
	return "", false
}

// Params carries the raw report parameters of the HTTP surface.
type Params struct {
	Dimension string `validate:"required"`
	Format    string `validate:"omitempty,max=8"`
	Start     string `validate:"omitempty,max=32"`
	End       string `validate:"omitempty,max=32"`
	Name      string `validate:"omitempty,max=128"`
	Role      string `validate:"omitempty,max=8"`
	Dealer    string `validate:"omitempty,max=64"`
	GroupRole string `validate:"omitempty,max=8"`
	ValueKind string `validate:"omitempty,max=8"`
	SalesType string `validate:"omitempty,max=32"`
}

var paramsValidator = validator.New()

// ParseParams turns raw parameters into a validated Request.
func ParseParams(p Params) (Request, error) {
	if err := paramsValidator.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return Request{}, shared.Invalid(lowerFirst(fe.Field()), "failed "+fe.Tag())
		}
		return Request{}, shared.Invalid("params", err.Error())
	}

	dim, err := ParseDimension(p.Dimension)
	if err != nil {
		return Request{}, err
	}
	format, err := period.ParseFormat(p.Format)
	if err != nil {
		return Request{}, err
	}
	entity, err := targets.EntityFromQuery(p.Name, p.Role, p.Dealer)
	if err != nil {
		return Request{}, err
	}
	req := Request{
		Dimension: dim,
		Period:    period.Request{Format: format, Start: p.Start, End: p.End},
		Entity:    entity,
		ValueKind: ValueKind(strings.ToLower(strings.TrimSpace(p.ValueKind))),
	}
	if req.ValueKind == "" {
		req.ValueKind = ValueKindValue
	}
	if strings.TrimSpace(p.GroupRole) != "" {
		role, err := hierarchy.ParseRole(p.GroupRole)
		if err != nil {
			return Request{}, err
		}
		req.GroupRole = role
	}
	if strings.TrimSpace(p.SalesType) != "" {
		st, ok := canonicalSalesType(p.SalesType)
		if !ok {
			return Request{}, shared.Invalid("salesType", fmt.Sprintf("%q is not a known sales type", p.SalesType))
		}
		req.SalesType = st
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
