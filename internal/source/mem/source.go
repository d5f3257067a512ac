// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mem

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/tablex/internal/table"
)

// =============================================================================
// IN-MEMORY SOURCE
// =============================================================================

// Source is an in-memory table.DataSource. Rows are held in insertion
// order; that order is the unsorted result order.
type Source struct {
	cols []table.Column
	rows []table.Row
}

// New creates a source over the given columns and rows. The slices are
// not copied; callers must not mutate them after construction.
func New(cols []table.Column, rows []table.Row) *Source {
	return &Source{cols: cols, rows: rows}
}

// Columns returns the ordered column descriptors.
func (s *Source) Columns() []table.Column {
	out := make([]table.Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// TotalCount returns the number of rows matching the filters.
func (s *Source) TotalCount(ctx context.Context, filters []table.Filter) (int64, error) {
	var n int64
	for _, row := range s.rows {
		ok, err := matchAll(row, filters)
		if err != nil {
			return 0, &table.DataSourceError{Query: table.Query{Filters: filters}, Err: err}
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// Rows returns one page of rows matching the query.
func (s *Source) Rows(ctx context.Context, query table.Query) ([]table.Row, error) {
	if err := query.Validate(); err != nil {
		return nil, &table.DataSourceError{Query: query, Err: err}
	}

	// Filter
	matched := make([]table.Row, 0, len(s.rows))
	for _, row := range s.rows {
		ok, err := matchAll(row, query.Filters)
		if err != nil {
			return nil, &table.DataSourceError{Query: query, Err: err}
		}
		if ok {
			matched = append(matched, row)
		}
	}

	// Sort (stable, so earlier keys win ties and unsorted order is kept)
	for i := len(query.Sort) - 1; i >= 0; i-- {
		key := query.Sort[i]
		sort.SliceStable(matched, func(a, b int) bool {
			cmp, ok := compare(matched[a][key.Field], matched[b][key.Field])
			if !ok {
				return false
			}
			if key.Direction == table.SortDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	// Window
	if query.Offset >= int64(len(matched)) {
		return []table.Row{}, nil
	}
	matched = matched[query.Offset:]
	if query.Limit > 0 && int64(len(matched)) > query.Limit {
		matched = matched[:query.Limit]
	}

	out := make([]table.Row, len(matched))
	copy(out, matched)
	return out, nil
}

// =============================================================================
// FILTER EVALUATION
// =============================================================================

// matchAll reports whether the row satisfies every filter (logical AND).
func matchAll(row table.Row, filters []table.Filter) (bool, error) {
	for _, f := range filters {
		ok, err := match(row[f.Field], f)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func match(val any, f table.Filter) (bool, error) {
	switch f.Op {
	case table.OpEq, table.OpNeq:
		cmp, ok := compare(val, f.Value)
		if !ok {
			// Incomparable values are simply not equal.
			return f.Op == table.OpNeq, nil
		}
		if f.Op == table.OpEq {
			return cmp == 0, nil
		}
		return cmp != 0, nil

	case table.OpLt, table.OpLte, table.OpGt, table.OpGte:
		cmp, ok := compare(val, f.Value)
		if !ok {
			return false, nil
		}
		switch f.Op {
		case table.OpLt:
			return cmp < 0, nil
		case table.OpLte:
			return cmp <= 0, nil
		case table.OpGt:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}

	case table.OpContains, table.OpStartsWith, table.OpEndsWith:
		s := strings.ToLower(asString(val))
		sub := strings.ToLower(asString(f.Value))
		switch f.Op {
		case table.OpContains:
			return strings.Contains(s, sub), nil
		case table.OpStartsWith:
			return strings.HasPrefix(s, sub), nil
		default:
			return strings.HasSuffix(s, sub), nil
		}

	case table.OpIn:
		members, err := asSlice(f.Value)
		if err != nil {
			return false, err
		}
		for _, m := range members {
			if cmp, ok := compare(val, m); ok && cmp == 0 {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown filter operator: %q", f.Op)
	}
}

// asSlice normalizes the membership list of an OpIn filter.
func asSlice(v any) ([]any, error) {
	switch vv := v.(type) {
	case []any:
		return vv, nil
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out, nil
	case []int:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out, nil
	case []int64:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out, nil
	case []float64:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'in' filter value must be a slice, got %T", v)
	}
}
