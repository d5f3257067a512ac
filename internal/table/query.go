// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package table

import "fmt"

// =============================================================================
// FILTER SPEC
// =============================================================================

// FilterOp identifies a filter predicate operator.
type FilterOp string

const (
	// OpEq matches values equal to the filter value
	OpEq FilterOp = "eq"

	// OpNeq matches values not equal to the filter value
	OpNeq FilterOp = "neq"

	// OpLt matches values strictly less than the filter value
	OpLt FilterOp = "lt"

	// OpLte matches values less than or equal to the filter value
	OpLte FilterOp = "lte"

	// OpGt matches values strictly greater than the filter value
	OpGt FilterOp = "gt"

	// OpGte matches values greater than or equal to the filter value
	OpGte FilterOp = "gte"

	// OpContains matches string values containing the filter value
	OpContains FilterOp = "contains"

	// OpStartsWith matches string values starting with the filter value
	OpStartsWith FilterOp = "startswith"

	// OpEndsWith matches string values ending with the filter value
	OpEndsWith FilterOp = "endswith"

	// OpIn matches values that are a member of the filter value list
	OpIn FilterOp = "in"
)

// String returns the string representation of the operator.
func (op FilterOp) String() string {
	return string(op)
}

// Valid reports whether the operator is a known filter operator.
func (op FilterOp) Valid() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte,
		OpContains, OpStartsWith, OpEndsWith, OpIn:
		return true
	default:
		return false
	}
}

// Filter is a single (field, operator, value) predicate. Multiple
// filters on a query combine with logical AND.
type Filter struct {
	// Field is the column key the predicate applies to
	Field string

	// Op is the predicate operator
	Op FilterOp

	// Value is the comparison value. For OpIn it must be a slice.
	Value any
}

// =============================================================================
// SORT SPEC
// =============================================================================

// SortDirection identifies ascending or descending order.
type SortDirection string

const (
	// SortAsc sorts in ascending order
	SortAsc SortDirection = "asc"

	// SortDesc sorts in descending order
	SortDesc SortDirection = "desc"
)

// SortKey is a single (field, direction) ordering entry. Earlier keys
// in a sort spec take precedence on ties.
type SortKey struct {
	Field     string
	Direction SortDirection
}

// =============================================================================
// QUERY
// =============================================================================

// Query describes one page of a filtered, ordered result set.
//
// Offset must be >= 0. Limit 0 means "no client-imposed cap": the data
// source decides its own default page size, if any.
type Query struct {
	// Filters are AND-combined predicates (empty = match everything)
	Filters []Filter

	// Sort is the ordering spec, highest precedence first
	Sort []SortKey

	// Offset is the zero-based index of the first row to return
	Offset int64

	// Limit caps the number of rows returned (0 = no cap)
	Limit int64
}

// WithPage returns a copy of the query with a replaced pagination
// window. The receiver is not modified; queries are value types.
func (q Query) WithPage(offset, limit int64) Query {
	q.Offset = offset
	q.Limit = limit
	return q
}

// Validate checks the query invariants.
func (q Query) Validate() error {
	if q.Offset < 0 {
		return fmt.Errorf("query offset must be >= 0, got %d", q.Offset)
	}
	if q.Limit < 0 {
		return fmt.Errorf("query limit must be >= 0, got %d", q.Limit)
	}
	for _, f := range q.Filters {
		if f.Field == "" {
			return fmt.Errorf("filter field must not be empty")
		}
		if !f.Op.Valid() {
			return fmt.Errorf("unknown filter operator: %q", f.Op)
		}
	}
	for _, s := range q.Sort {
		if s.Field == "" {
			return fmt.Errorf("sort field must not be empty")
		}
		if s.Direction != SortAsc && s.Direction != SortDesc {
			return fmt.Errorf("unknown sort direction: %q", s.Direction)
		}
	}
	return nil
}

// Summary returns a short human-readable description of the query's
// filter and sort state, suitable for report headers.
func (q Query) Summary() string {
	parts := []string{}
	if len(q.Filters) > 0 {
		parts = append(parts, fmt.Sprintf("filters=%d", len(q.Filters)))
	}
	if len(q.Sort) > 0 {
		parts = append(parts, fmt.Sprintf("sort=%d", len(q.Sort)))
	}
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += " | " + p
	}
	return out
}
