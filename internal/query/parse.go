package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// LeadQuery is a fully-resolved lead search.  OwnerID is not a clause: every
// driver applies it unconditionally, so no combination of query parameters
// can widen the result beyond the caller's own leads.
type LeadQuery struct {
	OwnerID string
	Clauses []Clause
	Page    int
	Limit   int
}

// Offset is the number of records skipped before the current page.
func (q LeadQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// TotalPages is ceil(total/limit); zero results give zero pages.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Parse builds the LeadQuery for ownerID from the raw query string of a
// list request.  Bare values mean equality (or "that calendar day" for
// createdAt).  "<field>Op" selects another operator; an operator the field
// does not support falls back to the default.  Ranges read their upper
// bound from scoreMax, leadValueMax and createdAtEnd.  Empty or unparsable
// values never produce a clause.  Calendar days are computed in loc.
func Parse(v url.Values, ownerID string, loc *time.Location) LeadQuery {
	if loc == nil {
		loc = time.Local
	}
	q := LeadQuery{OwnerID: ownerID, Page: 1, Limit: DefaultLimit}
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get("page"))); err == nil && n > 1 {
		q.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get("limit"))); err == nil && n > 0 {
		q.Limit = n
		if q.Limit > MaxLimit {
			q.Limit = MaxLimit
		}
	}

	keep := func(c Clause, ok bool) {
		if ok {
			q.Clauses = append(q.Clauses, c)
		}
	}
	for _, f := range []Field{FieldEmail, FieldCompany, FieldCity} {
		keep(parseText(v, f))
	}
	for _, f := range []Field{FieldStatus, FieldSource} {
		keep(parseEnum(v, f))
	}
	for _, f := range []Field{FieldScore, FieldLeadValue} {
		keep(parseNumber(v, f))
	}
	keep(parseBool(v, FieldIsQualified))
	keep(parseCreatedAt(v, loc))
	return q
}

// operator resolves "<field>Op" against the operator table.
func operator(v url.Values, f Field) Operator {
	op := Operator(strings.TrimSpace(v.Get(string(f) + "Op")))
	if Allows(f, op) {
		return op
	}
	return fields[f].defaultOp
}

func parseText(v url.Values, f Field) (Clause, bool) {
	raw := strings.TrimSpace(v.Get(string(f)))
	if raw == "" {
		return Clause{}, false
	}
	c, err := NewClause(f, operator(v, f), raw)
	return c, err == nil
}

func parseEnum(v url.Values, f Field) (Clause, bool) {
	var vals []any
	for _, s := range v[string(f)] {
		if s = strings.TrimSpace(s); s != "" {
			vals = append(vals, s)
		}
	}
	if len(vals) == 0 {
		return Clause{}, false
	}
	op := operator(v, f)
	if op != OpIn {
		vals = vals[:1]
	}
	c, err := NewClause(f, op, vals...)
	return c, err == nil
}

func parseNumber(v url.Values, f Field) (Clause, bool) {
	n, ok := number(v.Get(string(f)), f == FieldScore)
	if !ok {
		return Clause{}, false
	}
	op := operator(v, f)
	if op == OpBetween {
		hi, ok := number(v.Get(string(f)+"Max"), f == FieldScore)
		if !ok {
			op = OpEq
		} else {
			c, err := NewClause(f, OpBetween, n, hi)
			return c, err == nil
		}
	}
	c, err := NewClause(f, op, n)
	return c, err == nil
}

// number parses a finite number; integral truncates toward zero the way
// the score field is stored.
func number(raw string, integral bool) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	if integral {
		n = math.Trunc(n)
	}
	return n, true
}

// parseBool treats the literal "true" as true and any other value as false.
func parseBool(v url.Values, f Field) (Clause, bool) {
	raw := strings.TrimSpace(v.Get(string(f)))
	if raw == "" {
		return Clause{}, false
	}
	c, err := NewClause(f, OpEq, raw == "true")
	return c, err == nil
}

func parseCreatedAt(v url.Values, loc *time.Location) (Clause, bool) {
	t, ok := ParseDate(v.Get(string(FieldCreatedAt)), loc)
	if !ok {
		return Clause{}, false
	}
	op := operator(v, FieldCreatedAt)
	if op == OpBetween {
		end, ok := ParseDate(v.Get(string(FieldCreatedAt)+"End"), loc)
		if !ok {
			op = OpOn
		} else {
			c, err := NewClause(FieldCreatedAt, OpBetween, t, end)
			return c, err == nil
		}
	}
	if op == OpOn {
		t = t.In(loc)
	}
	c, err := NewClause(FieldCreatedAt, op, t)
	return c, err == nil
}

var dateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts RFC 3339 timestamps and zone-less dates or date-times,
// the latter interpreted in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
