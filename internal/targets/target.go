// Package targets stores uploaded sales targets and resolves the entry in
// force on a reference date.
package targets

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/siddha-avenue/salesops/internal/hierarchy"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
)

// ErrConflict marks an upload that repeats an existing (entity, dimension,
// effective date) entry.
var ErrConflict = fmt.Errorf("targets: duplicate entry: %w", shared.ErrConflict)

// Kind distinguishes role-holder targets from dealer targets.
type Kind string

const (
	KindRole   Kind = "role"
	KindDealer Kind = "dealer"
)

// Dimension is the breakdown a target is set against.
type Dimension string

const (
	Channel Dimension = "channel"
	Segment Dimension = "segment"
)

// ParseDimension accepts "channel" or "segment".
func ParseDimension(raw string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(raw))); d {
	case Channel, Segment:
		return d, nil
	default:
		return "", shared.Invalid("dimension", fmt.Sprintf("%q must be channel or segment", raw))
	}
}

var upper = cases.Upper(language.Und)

// NormalizeDealer upper-cases a dealer code the same way ingest does.
func NormalizeDealer(code string) string {
	return upper.String(strings.TrimSpace(code))
}

// EntityKey identifies whose target an entry is.
type EntityKey struct {
	Kind Kind
	Name string
	Role hierarchy.Role
}

// RoleHolder keys a target to a named holder at role.
func RoleHolder(name string, role hierarchy.Role) EntityKey {
	return EntityKey{Kind: KindRole, Name: strings.TrimSpace(name), Role: role}
}

// Dealer keys a target to a dealer code.
func Dealer(code string) EntityKey {
	return EntityKey{Kind: KindDealer, Name: NormalizeDealer(code)}
}

// IsZero reports whether no entity is set.
func (k EntityKey) IsZero() bool {
	return k.Name == ""
}

func (k EntityKey) String() string {
	if k.Kind == KindRole {
		return fmt.Sprintf("%s/%s", k.Role, k.Name)
	}
	return fmt.Sprintf("%s/%s", k.Kind, k.Name)
}

// Target is a value and volume goal.
type Target struct {
	Value  int64 `json:"value"`
	Volume int64 `json:"volume"`
}

// Add returns the component-wise sum.
func (t Target) Add(o Target) Target {
	return Target{Value: t.Value + o.Value, Volume: t.Volume + o.Volume}
}

// Entry is one stored target row.
type Entry struct {
	Key            EntityKey
	Dimension      Dimension
	DimensionValue string
	Target         Target
	EffectiveDate  time.Time
}

// EntryInput is the upload wire form of an Entry. Either Name and Role or
// Dealer identifies the entity.
type EntryInput struct {
	Name           string `json:"name,omitempty" validate:"required_without=Dealer,excluded_with=Dealer"`
	Role           string `json:"role,omitempty" validate:"required_with=Name"`
	Dealer         string `json:"dealer,omitempty" validate:"required_without=Name"`
	Dimension      string `json:"dimension" validate:"required,oneof=channel segment"`
	DimensionValue string `json:"dimensionValue" validate:"required"`
	Value          int64  `json:"value" validate:"gte=0"`
	Volume         int64  `json:"volume" validate:"gte=0"`
	EffectiveDate  string `json:"effectiveDate" validate:"required"`
}

// Entry converts validated input into a stored entry.
func (in EntryInput) Entry() (Entry, error) {
	var key EntityKey
	if strings.TrimSpace(in.Dealer) != "" {
		key = Dealer(in.Dealer)
	} else {
		role, err := hierarchy.ParseRole(in.Role)
		if err != nil {
			return Entry{}, err
		}
		key = RoleHolder(in.Name, role)
	}
	dim, err := ParseDimension(in.Dimension)
	if err != nil {
		return Entry{}, err
	}
	effective, ok := sales.ParseInputDate(in.EffectiveDate)
	if !ok {
		return Entry{}, shared.Invalid("effectiveDate", fmt.Sprintf("%q is not MM/DD/YYYY or YYYY-MM-DD", in.EffectiveDate))
	}
	return Entry{
		Key:            key,
		Dimension:      dim,
		DimensionValue: strings.TrimSpace(in.DimensionValue),
		Target:         Target{Value: in.Value, Volume: in.Volume},
		EffectiveDate:  effective,
	}, nil
}

type entryIdentity struct {
	key       EntityKey
	dimension Dimension
	value     string
	effective time.Time
}

func (e Entry) identity() entryIdentity {
	return entryIdentity{key: e.Key, dimension: e.Dimension, value: e.DimensionValue, effective: e.EffectiveDate}
}
