// Package hierarchy models the sales-territory seniority chain and resolves
// the role-holders beneath a given holder.
package hierarchy

import (
	"fmt"
	"strings"

	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
)

// Role is a level in the territory chain.
type Role string

const (
	ZSM Role = "ZSM"
	ABM Role = "ABM"
	RSO Role = "RSO"
	ASE Role = "ASE"
	ASM Role = "ASM"
	TSE Role = "TSE"
)

// Chain lists roles from most to least senior.
var Chain = []Role{ZSM, ABM, RSO, ASE, ASM, TSE}

var roleFields = map[Role]sales.Field{
	ZSM: sales.FieldZSM,
	ABM: sales.FieldABM,
	RSO: sales.FieldRSO,
	ASE: sales.FieldASE,
	ASM: sales.FieldASM,
	TSE: sales.FieldTSE,
}

// ParseRole normalises a role keyword. Unknown roles are validation errors.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := roleFields[role]; !ok {
		return "", shared.Invalid("role", fmt.Sprintf("%q is not one of ZSM, ABM, RSO, ASE, ASM, TSE", raw))
	}
	return role, nil
}

// Valid reports whether r is in the chain.
func (r Role) Valid() bool {
	_, ok := roleFields[r]
	return ok
}

// Field returns the sales column holding names for r.
func (r Role) Field() sales.Field {
	return roleFields[r]
}

func (r Role) rank() int {
	for i, role := range Chain {
		if role == r {
			return i
		}
	}
	return -1
}

// Outranks reports whether r is strictly senior to other.
func (r Role) Outranks(other Role) bool {
	a, b := r.rank(), other.rank()
	return a >= 0 && b >= 0 && a < b
}

// Subordinates returns every role strictly below r, most senior first.
func (r Role) Subordinates() []Role {
	idx := r.rank()
	if idx < 0 {
		return nil
	}
	out := make([]Role, len(Chain)-idx-1)
	copy(out, Chain[idx+1:])
	return out
}
