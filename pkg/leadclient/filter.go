package leadclient

import (
	"net/url"
	"strconv"
	"time"
)

// Operator names accepted by the list endpoint in "<field>Op".
const (
	OpEq       = "eq"
	OpContains = "contains"
	OpIn       = "in"
	OpGt       = "gt"
	OpLt       = "lt"
	OpBetween  = "between"
	OpOn       = "on"
	OpBefore   = "before"
	OpAfter    = "after"
)

// Filter builds the query string of a lead listing.  The zero value lists
// the first page with the server's default limit.  Setting the same field
// twice replaces the earlier condition.
type Filter struct {
	v url.Values
}

func (f *Filter) set(key, val string) *Filter {
	if f.v == nil {
		f.v = url.Values{}
	}
	f.v.Set(key, val)
	return f
}

func (f *Filter) op(field, op string) *Filter {
	if op == "" || op == OpEq || op == OpOn {
		f.v.Del(field + "Op")
		return f
	}
	return f.set(field+"Op", op)
}

func num(n float64) string { return strconv.FormatFloat(n, 'f', -1, 64) }

// Page selects the 1-based page.
func (f *Filter) Page(n int) *Filter { return f.set("page", strconv.Itoa(n)) }

// Limit sets the page size; the server caps it at 100.
func (f *Filter) Limit(n int) *Filter { return f.set("limit", strconv.Itoa(n)) }

// Text filters email, company or city by exact match (OpEq) or
// case-insensitive substring (OpContains).
func (f *Filter) Text(field, op, value string) *Filter {
	return f.set(field, value).op(field, op)
}

// Enum filters status or source.  More than one value means "any of".
func (f *Filter) Enum(field string, values ...string) *Filter {
	if len(values) == 0 {
		return f
	}
	f.set(field, values[0])
	for _, v := range values[1:] {
		f.v.Add(field, v)
	}
	if len(values) > 1 {
		return f.op(field, OpIn)
	}
	return f.op(field, OpEq)
}

// Number filters score or leadValue with OpEq, OpGt or OpLt.
func (f *Filter) Number(field, op string, n float64) *Filter {
	f.v.Del(field + "Max")
	return f.set(field, num(n)).op(field, op)
}

// NumberBetween filters score or leadValue to [lo, hi].
func (f *Filter) NumberBetween(field string, lo, hi float64) *Filter {
	return f.set(field, num(lo)).set(field+"Max", num(hi)).op(field, OpBetween)
}

// CreatedOn matches leads created on the calendar day of t, as the server
// counts days.
func (f *Filter) CreatedOn(t time.Time) *Filter {
	f.v.Del("createdAtEnd")
	return f.set("createdAt", t.Format("2006-01-02")).op("createdAt", OpOn)
}

// CreatedBefore matches leads created strictly before t.
func (f *Filter) CreatedBefore(t time.Time) *Filter {
	f.v.Del("createdAtEnd")
	return f.set("createdAt", t.Format(time.RFC3339Nano)).op("createdAt", OpBefore)
}

// CreatedAfter matches leads created strictly after t.
func (f *Filter) CreatedAfter(t time.Time) *Filter {
	f.v.Del("createdAtEnd")
	return f.set("createdAt", t.Format(time.RFC3339Nano)).op("createdAt", OpAfter)
}

// CreatedBetween matches leads created in [from, to].
func (f *Filter) CreatedBetween(from, to time.Time) *Filter {
	return f.set("createdAt", from.Format(time.RFC3339Nano)).
		set("createdAtEnd", to.Format(time.RFC3339Nano)).
		op("createdAt", OpBetween)
}

// Qualified filters on isQualified.
func (f *Filter) Qualified(b bool) *Filter { return f.set("isQualified", strconv.FormatBool(b)) }

// Encode renders the query string without the leading "?".
func (f *Filter) Encode() string {
	if f == nil || f.v == nil {
		return ""
	}
	return f.v.Encode()
}
