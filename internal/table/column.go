// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package table

import "fmt"

// =============================================================================
// COLUMN DESCRIPTOR
// =============================================================================

// ColumnType is a semantic tag describing how a column's values should
// be interpreted and rendered.
type ColumnType string

const (
	// TypeText holds free-form string values
	TypeText ColumnType = "text"

	// TypeNumber holds integer or floating-point values
	TypeNumber ColumnType = "number"

	// TypeCurrency holds monetary values (rendered with two decimals)
	TypeCurrency ColumnType = "currency"

	// TypeDate holds time.Time values
	TypeDate ColumnType = "date"

	// TypeBool holds boolean values
	TypeBool ColumnType = "boolean"
)

// Column describes one column of a tabular data set. Columns are
// produced by the data source and consumed read-only by exporters.
type Column struct {
	// Key is the stable identifier used to look values up in a Row
	Key string

	// Title is the human-readable display label
	Title string

	// Type is the semantic type tag
	Type ColumnType
}

// =============================================================================
// ROW RECORD
// =============================================================================

// Row maps column keys to scalar values. A row returned by a data
// source must contain an entry for every column the source advertised;
// a missing entry is a contract violation, not a silent null. A present
// key with a nil value is allowed and renders as empty.
type Row map[string]any

// ValidateRow checks that the row carries an entry for every column.
func ValidateRow(cols []Column, row Row) error {
	for _, c := range cols {
		if _, ok := row[c.Key]; !ok {
			return fmt.Errorf("row is missing column %q", c.Key)
		}
	}
	return nil
}
