package storage

import (
	"strconv"
	"strings"
)

// FilterOp is a metadata predicate operator.
type FilterOp int

const (
	// OpEq matches when the field equals the value exactly.
	OpEq FilterOp = iota
	// OpIn matches when the field equals any of the values.
	OpIn
	// OpGt matches when the field is greater than the value.
	OpGt
	// OpGte matches when the field is greater than or equal to the value.
	OpGte
	// OpLt matches when the field is less than the value.
	OpLt
	// OpLte matches when the field is less than or equal to the value.
	OpLte
)

type condition struct {
	field  string
	op     FilterOp
	value  string
	values []string
}

// Filter is a conjunction of metadata predicates. A nil or empty filter
// matches every record. Range comparisons are numeric when both sides
// parse as numbers, lexicographic otherwise.
type Filter struct {
	conds []condition
}

// NewFilter creates an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Eq adds an exact-match predicate.
func (f *Filter) Eq(field, value string) *Filter {
	f.conds = append(f.conds, condition{field: field, op: OpEq, value: value})
	return f
}

// In adds a set-membership predicate.
func (f *Filter) In(field string, values ...string) *Filter {
	f.conds = append(f.conds, condition{field: field, op: OpIn, values: values})
	return f
}

// Gt adds a greater-than predicate.
func (f *Filter) Gt(field, value string) *Filter {
	f.conds = append(f.conds, condition{field: field, op: OpGt, value: value})
	return f
}

// Gte adds a greater-or-equal predicate.
func (f *Filter) Gte(field, value string) *Filter {
	f.conds = append(f.conds, condition{field: field, op: OpGte, value: value})
	return f
}

// Lt adds a less-than predicate.
func (f *Filter) Lt(field, value string) *Filter {
	f.conds = append(f.conds, condition{field: field, op: OpLt, value: value})
	return f
}

// Lte adds a less-or-equal predicate.
func (f *Filter) Lte(field, value string) *Filter {
	f.conds = append(f.conds, condition{field: field, op: OpLte, value: value})
	return f
}

// Matches reports whether a record's metadata satisfies every predicate.
func (f *Filter) Matches(metadata map[string]string) bool {
	if f == nil {
		return true
	}
	for _, cond := range f.conds {
		got, ok := metadata[cond.field]
		if !ok {
			return false
		}
		if !cond.matches(got) {
			return false
		}
	}
	return true
}

func (c condition) matches(got string) bool {
	switch c.op {
	case OpEq:
		return got == c.value
	case OpIn:
		for _, v := range c.values {
			if got == v {
				return true
			}
		}
		return false
	case OpGt:
		return compare(got, c.value) > 0
	case OpGte:
		return compare(got, c.value) >= 0
	case OpLt:
		return compare(got, c.value) < 0
	case OpLte:
		return compare(got, c.value) <= 0
	default:
		return false
	}
}

// compare orders two metadata values, numerically when both parse as numbers.
func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
