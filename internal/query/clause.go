// Package query turns the flat query string of GET /api/leads into an
// explicit, driver-independent description of the lead search: a list of
// typed clauses plus the page window.  Store drivers translate a LeadQuery
// into SQL or a document filter; nothing in this package knows about either.
package query

import (
	"fmt"
	"time"
)

// Field names a filterable lead attribute.  The values are the wire names
// used in the query string.
type Field string

const (
	FieldEmail       Field = "email"
	FieldCompany     Field = "company"
	FieldCity        Field = "city"
	FieldStatus      Field = "status"
	FieldSource      Field = "source"
	FieldScore       Field = "score"
	FieldLeadValue   Field = "leadValue"
	FieldCreatedAt   Field = "createdAt"
	FieldIsQualified Field = "isQualified"
)

// Kind is the value type of a field.
type Kind int

const (
	KindText Kind = iota
	KindEnum
	KindNumber
	KindDate
	KindBool
)

// Operator is a comparison applied to a field.
type Operator string

const (
	OpEq       Operator = "eq"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpBetween  Operator = "between"
	OpOn       Operator = "on"
	OpBefore   Operator = "before"
	OpAfter    Operator = "after"
)

type fieldSpec struct {
	kind      Kind
	defaultOp Operator
	allowed   []Operator
}

var fields = map[Field]fieldSpec{
	FieldEmail:       {KindText, OpEq, []Operator{OpEq, OpContains}},
	FieldCompany:     {KindText, OpEq, []Operator{OpEq, OpContains}},
	FieldCity:        {KindText, OpEq, []Operator{OpEq, OpContains}},
	FieldStatus:      {KindEnum, OpEq, []Operator{OpEq, OpIn}},
	FieldSource:      {KindEnum, OpEq, []Operator{OpEq, OpIn}},
	FieldScore:       {KindNumber, OpEq, []Operator{OpEq, OpGt, OpLt, OpBetween}},
	FieldLeadValue:   {KindNumber, OpEq, []Operator{OpEq, OpGt, OpLt, OpBetween}},
	FieldCreatedAt:   {KindDate, OpOn, []Operator{OpOn, OpBefore, OpAfter, OpBetween}},
	FieldIsQualified: {KindBool, OpEq, []Operator{OpEq}},
}

// KindOf returns the value kind of f and whether f is a known field.
func KindOf(f Field) (Kind, bool) {
	s, ok := fields[f]
	return s.kind, ok
}

// Allows reports whether op may be applied to f.
func Allows(f Field, op Operator) bool {
	s, ok := fields[f]
	if !ok {
		return false
	}
	for _, a := range s.allowed {
		if a == op {
			return true
		}
	}
	return false
}

// Clause is one predicate of a lead search.  Values holds string for text
// and enum fields, float64 for numbers, time.Time for dates and bool for
// booleans.  OpBetween always carries exactly two values, both inclusive.
// OpOn never appears in a built clause: NewClause rewrites it to OpBetween
// over the local calendar day.
type Clause struct {
	Field  Field
	Op     Operator
	Values []any
}

// NewClause validates op against the field's operator table and the
// values against the field kind.
func NewClause(f Field, op Operator, values ...any) (Clause, error) {
	fs, ok := fields[f]
	if !ok {
		return Clause{}, fmt.Errorf("query: unknown field %q", f)
	}
	if !Allows(f, op) {
		return Clause{}, fmt.Errorf("query: operator %q not allowed on %q", op, f)
	}
	switch op {
	case OpBetween:
		if len(values) != 2 {
			return Clause{}, fmt.Errorf("query: %s between needs 2 values, got %d", f, len(values))
		}
	case OpIn:
		if len(values) == 0 {
			return Clause{}, fmt.Errorf("query: %s in needs at least one value", f)
		}
	default:
		if len(values) != 1 {
			return Clause{}, fmt.Errorf("query: %s %s needs 1 value, got %d", f, op, len(values))
		}
	}
	for _, v := range values {
		if !kindAccepts(fs.kind, v) {
			return Clause{}, fmt.Errorf("query: %T is not a valid value for %s", v, f)
		}
	}
	if op == OpOn {
		start, end := DayBounds(values[0].(time.Time))
		return Clause{Field: f, Op: OpBetween, Values: []any{start, end}}, nil
	}
	return Clause{Field: f, Op: op, Values: values}, nil
}

func kindAccepts(k Kind, v any) bool {
	switch k {
	case KindText, KindEnum:
		_, ok := v.(string)
		return ok
	case KindNumber:
		_, ok := v.(float64)
		return ok
	case KindDate:
		_, ok := v.(time.Time)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	}
	return false
}

// DayBounds returns [00:00:00.000, 23:59:59.999] of t's calendar day in t's
// location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
	return start, end
}
