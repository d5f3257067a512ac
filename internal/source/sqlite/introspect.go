// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jeranaias/tablex/internal/table"
)

// DescribeTable derives column descriptors from the table's schema
// using PRAGMA table_info. Declared types map onto the tabular type
// system; anything unrecognized falls back to text.
func DescribeTable(db *sql.DB, tableName string) ([]table.Column, error) {
	if !safeIdent(tableName) {
		return nil, fmt.Errorf("invalid table name: %q", tableName)
	}

	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", tableName, err)
	}
	defer rows.Close()

	var cols []table.Column
	for rows.Next() {
		var (
			cid        int
			name       string
			declType   sql.NullString
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("describe table %s: %w", tableName, err)
		}
		cols = append(cols, table.Column{
			Key:   name,
			Title: titleFromKey(name),
			Type:  typeFromDecl(declType.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe table %s: %w", tableName, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s does not exist or has no columns", tableName)
	}
	return cols, nil
}

// typeFromDecl maps a declared SQLite column type to a tabular type.
func typeFromDecl(decl string) table.ColumnType {
	d := strings.ToUpper(decl)
	switch {
	case strings.Contains(d, "MONEY") || strings.Contains(d, "CURRENCY"):
		return table.TypeCurrency
	case strings.Contains(d, "BOOL"):
		return table.TypeBool
	case strings.Contains(d, "DATE") || strings.Contains(d, "TIME"):
		return table.TypeDate
	case strings.Contains(d, "INT") || strings.Contains(d, "REAL") ||
		strings.Contains(d, "FLOA") || strings.Contains(d, "DOUB") ||
		strings.Contains(d, "NUMERIC") || strings.Contains(d, "DECIMAL"):
		return table.TypeNumber
	default:
		return table.TypeText
	}
}

// titleFromKey turns a column key like "unit_price" into "Unit Price".
func titleFromKey(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
