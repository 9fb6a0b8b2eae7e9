// Package constraint models structured filters extracted from free text.
// A constraint is a named predicate over a declared metadata field; a
// candidate passes a set when every constraint in it is satisfied.
package constraint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/roomrank/internal/domain/schema"
)

// MaxConstraints caps the set size; an extraction producing more is malformed.
const MaxConstraints = 16

// Constraint is a single predicate: exactly one of eq, oneOf, or range.
type Constraint struct {
	field string
	eq    string
	oneOf []string
	gte   *float64
	lte   *float64
}

// NewEq creates a case-insensitive equality predicate.
func NewEq(field, value string) (Constraint, error) {
	if field == "" {
		return Constraint{}, fmt.Errorf("constraint field is required")
	}
	if value == "" {
		return Constraint{}, fmt.Errorf("eq value is required for field %q", field)
	}
	return Constraint{field: field, eq: value}, nil
}

// NewOneOf creates a set-membership predicate (case-insensitive).
func NewOneOf(field string, values []string) (Constraint, error) {
	if field == "" {
		return Constraint{}, fmt.Errorf("constraint field is required")
	}
	clean := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			clean = append(clean, strings.TrimSpace(v))
		}
	}
	if len(clean) == 0 {
		return Constraint{}, fmt.Errorf("one_of needs at least one value for field %q", field)
	}
	return Constraint{field: field, oneOf: clean}, nil
}

// NewRange creates a numeric range predicate. At least one bound is required.
func NewRange(field string, gte, lte *float64) (Constraint, error) {
	if field == "" {
		return Constraint{}, fmt.Errorf("constraint field is required")
	}
	if gte == nil && lte == nil {
		return Constraint{}, fmt.Errorf("range needs at least one bound for field %q", field)
	}
	if gte != nil && lte != nil && *gte > *lte {
		return Constraint{}, fmt.Errorf("range bounds inverted for field %q", field)
	}
	return Constraint{field: field, gte: gte, lte: lte}, nil
}

// Field returns the metadata field this predicate applies to.
func (c Constraint) Field() string { return c.field }

// IsRange reports whether this is a numeric range predicate.
func (c Constraint) IsRange() bool { return c.gte != nil || c.lte != nil }

// Matches evaluates the predicate against record metadata. A constraint
// referencing a field absent from the metadata does not match (fail-closed):
// missing data must never produce a false positive.
func (c Constraint) Matches(tags map[string]string, numerics map[string]float64) bool {
	if c.IsRange() {
		v, ok := numerics[c.field]
		if !ok {
			// Flags and tags never satisfy a range; try a parsable tag value
			// before giving up, since ingestion stores some numerics as strings.
			s, found := tags[c.field]
			if !found {
				return false
			}
			parsed, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return false
			}
			v = parsed
		}
		if c.gte != nil && v < *c.gte {
			return false
		}
		if c.lte != nil && v > *c.lte {
			return false
		}
		return true
	}

	v, ok := tags[c.field]
	if !ok {
		return false
	}
	v = strings.ToLower(strings.TrimSpace(v))

	if len(c.oneOf) > 0 {
		for _, want := range c.oneOf {
			if v == strings.ToLower(want) {
				return true
			}
		}
		return false
	}
	return v == strings.ToLower(c.eq)
}

// Set is an ordered collection of constraints, all of which must hold.
type Set struct {
	constraints []Constraint
}

// NewSet validates and creates a constraint set.
func NewSet(constraints []Constraint) (Set, error) {
	if len(constraints) > MaxConstraints {
		return Set{}, fmt.Errorf("too many constraints (max %d)", MaxConstraints)
	}
	return Set{constraints: constraints}, nil
}

// Empty is the permissive fallback set: everything passes.
func Empty() Set { return Set{} }

// Constraints returns the predicates in extraction order.
func (s Set) Constraints() []Constraint { return s.constraints }

// IsEmpty reports whether the set has no predicates.
func (s Set) IsEmpty() bool { return len(s.constraints) == 0 }

// Len returns the number of predicates.
func (s Set) Len() int { return len(s.constraints) }

// Matches reports whether metadata satisfies every predicate in the set.
func (s Set) Matches(tags map[string]string, numerics map[string]float64) bool {
	for _, c := range s.constraints {
		if !c.Matches(tags, numerics) {
			return false
		}
	}
	return true
}

// Normalize drops predicates whose field is not declared in the collection
// schema and returns the surviving set plus the dropped field names. Unknown
// fields are a soft condition by contract: the caller logs them and proceeds.
func (s Set) Normalize(sch schema.Schema) (Set, []string) {
	kept := make([]Constraint, 0, len(s.constraints))
	var dropped []string
	for _, c := range s.constraints {
		f, ok := sch.Field(c.field)
		if !ok {
			dropped = append(dropped, c.field)
			continue
		}
		// A range over a non-numeric field can never be satisfied; treat it
		// as unknown rather than filtering every candidate out.
		if c.IsRange() && f.Kind() != schema.Numeric {
			dropped = append(dropped, c.field)
			continue
		}
		kept = append(kept, c)
	}
	return Set{constraints: kept}, dropped
}
