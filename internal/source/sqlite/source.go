// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/tablex/internal/table"
)

// =============================================================================
// SQLITE SOURCE
// =============================================================================

// Source is a table.DataSource over one SQLite table. It holds a shared
// *sql.DB and is safe for concurrent export runs.
type Source struct {
	db    *sql.DB
	table string
	cols  []table.Column
}

// Open opens the SQLite database at path and returns a source over the
// named table with the given column descriptors. Passing nil columns
// derives the descriptors from the table schema.
func Open(path, tableName string, cols []table.Column) (*Source, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if cols == nil {
		cols, err = DescribeTable(db, tableName)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	src, err := New(db, tableName, cols)
	if err != nil {
		db.Close()
		return nil, err
	}
	return src, nil
}

// New wraps an already-open database handle. The caller keeps ownership
// of the handle unless Close is used.
func New(db *sql.DB, tableName string, cols []table.Column) (*Source, error) {
	if tableName == "" {
		return nil, fmt.Errorf("table name must not be empty")
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("at least one column descriptor is required")
	}
	if !safeIdent(tableName) {
		return nil, fmt.Errorf("invalid table name: %q", tableName)
	}
	for _, c := range cols {
		if !safeIdent(c.Key) {
			return nil, fmt.Errorf("invalid column key: %q", c.Key)
		}
	}
	return &Source{db: db, table: tableName, cols: cols}, nil
}

// Close closes the underlying database handle.
func (s *Source) Close() error {
	return s.db.Close()
}

// Columns returns the ordered column descriptors.
func (s *Source) Columns() []table.Column {
	out := make([]table.Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// TotalCount runs COUNT(*) with the filter WHERE clause.
func (s *Source) TotalCount(ctx context.Context, filters []table.Filter) (int64, error) {
	where, args, err := s.whereClause(filters)
	if err != nil {
		return 0, &table.DataSourceError{Query: table.Query{Filters: filters}, Err: err}
	}

	q := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.table, where)
	var n int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, &table.DataSourceError{Query: table.Query{Filters: filters}, Err: err}
	}
	return n, nil
}

// Rows returns one page of rows matching the query.
func (s *Source) Rows(ctx context.Context, query table.Query) ([]table.Row, error) {
	if err := query.Validate(); err != nil {
		return nil, &table.DataSourceError{Query: query, Err: err}
	}

	stmt, args, err := s.buildSelect(query)
	if err != nil {
		return nil, &table.DataSourceError{Query: query, Err: err}
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &table.DataSourceError{Query: query, Err: err}
	}
	defer rows.Close()

	out := []table.Row{}
	for rows.Next() {
		scan := make([]any, len(s.cols))
		ptrs := make([]any, len(s.cols))
		for i := range scan {
			ptrs[i] = &scan[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &table.DataSourceError{Query: query, Err: err}
		}

		row := make(table.Row, len(s.cols))
		for i, c := range s.cols {
			row[c.Key] = normalize(scan[i], c.Type)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &table.DataSourceError{Query: query, Err: err}
	}
	return out, nil
}

// =============================================================================
// SQL BUILDING
// =============================================================================

// buildSelect assembles the SELECT statement for a query.
func (s *Source) buildSelect(query table.Query) (string, []any, error) {
	keys := make([]string, len(s.cols))
	for i, c := range s.cols {
		keys[i] = c.Key
	}

	where, args, err := s.whereClause(query.Filters)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s%s", strings.Join(keys, ", "), s.table, where)

	if len(query.Sort) > 0 {
		order := make([]string, 0, len(query.Sort))
		for _, k := range query.Sort {
			if !s.hasColumn(k.Field) {
				return "", nil, fmt.Errorf("sort references unknown column %q", k.Field)
			}
			dir := "ASC"
			if k.Direction == table.SortDesc {
				dir = "DESC"
			}
			order = append(order, k.Field+" "+dir)
		}
		sb.WriteString(" ORDER BY " + strings.Join(order, ", "))
	} else {
		// Fixed fallback order keeps pagination deterministic.
		sb.WriteString(" ORDER BY rowid")
	}

	if query.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", query.Limit)
	} else if query.Offset > 0 {
		// SQLite requires LIMIT before OFFSET; -1 means unlimited.
		sb.WriteString(" LIMIT -1")
	}
	if query.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", query.Offset)
	}

	return sb.String(), args, nil
}

// whereClause builds the AND-combined WHERE clause for the filters.
func (s *Source) whereClause(filters []table.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))

	for _, f := range filters {
		if !s.hasColumn(f.Field) {
			return "", nil, fmt.Errorf("filter references unknown column %q", f.Field)
		}

		switch f.Op {
		case table.OpEq:
			conds = append(conds, f.Field+" = ?")
			args = append(args, f.Value)
		case table.OpNeq:
			conds = append(conds, f.Field+" != ?")
			args = append(args, f.Value)
		case table.OpLt:
			conds = append(conds, f.Field+" < ?")
			args = append(args, f.Value)
		case table.OpLte:
			conds = append(conds, f.Field+" <= ?")
			args = append(args, f.Value)
		case table.OpGt:
			conds = append(conds, f.Field+" > ?")
			args = append(args, f.Value)
		case table.OpGte:
			conds = append(conds, f.Field+" >= ?")
			args = append(args, f.Value)
		case table.OpContains:
			conds = append(conds, f.Field+" LIKE ? ESCAPE '\\'")
			args = append(args, "%"+escapeLike(fmt.Sprintf("%v", f.Value))+"%")
		case table.OpStartsWith:
			conds = append(conds, f.Field+" LIKE ? ESCAPE '\\'")
			args = append(args, escapeLike(fmt.Sprintf("%v", f.Value))+"%")
		case table.OpEndsWith:
			conds = append(conds, f.Field+" LIKE ? ESCAPE '\\'")
			args = append(args, "%"+escapeLike(fmt.Sprintf("%v", f.Value)))
		case table.OpIn:
			members, err := inMembers(f.Value)
			if err != nil {
				return "", nil, err
			}
			if len(members) == 0 {
				// Empty membership matches nothing.
				conds = append(conds, "1 = 0")
				continue
			}
			ph := strings.TrimSuffix(strings.Repeat("?, ", len(members)), ", ")
			conds = append(conds, f.Field+" IN ("+ph+")")
			args = append(args, members...)
		default:
			return "", nil, fmt.Errorf("unknown filter operator: %q", f.Op)
		}
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (s *Source) hasColumn(key string) bool {
	for _, c := range s.cols {
		if c.Key == key {
			return true
		}
	}
	return false
}

// =============================================================================
// HELPERS
// =============================================================================

// safeIdent reports whether a string is usable as a bare SQL identifier.
func safeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// escapeLike escapes LIKE wildcards in a user-supplied pattern.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// inMembers normalizes the membership list of an OpIn filter.
func inMembers(v any) ([]any, error) {
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

// normalize converts driver scan values to the Row scalar conventions.
func normalize(v any, typ table.ColumnType) any {
	switch vv := v.(type) {
	case []byte:
		return string(vv)
	case int64:
		if typ == table.TypeBool {
			return vv != 0
		}
		return vv
	case string:
		if typ == table.TypeDate {
			if t, err := time.Parse(time.RFC3339, vv); err == nil {
				return t
			}
			if t, err := time.Parse("2006-01-02", vv); err == nil {
				return t
			}
		}
		return vv
	default:
		return v
	}
}
