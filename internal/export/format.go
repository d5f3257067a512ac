// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jeranaias/tablex/internal/table"
)

// =============================================================================
// CELL FORMATTING
// =============================================================================

// printer renders numbers with locale-aware grouping for the text-based
// formats (csv, pdf). The spreadsheet format keeps native numeric cells
// and applies number formats instead.
var printer = message.NewPrinter(language.English)

// cellText renders a scalar value for display according to the column's
// semantic type. Nil renders as the empty string, never as "nil".
func cellText(typ table.ColumnType, v any) string {
	if v == nil {
		return ""
	}

	switch typ {
	case table.TypeCurrency:
		if f, ok := cellFloat(v); ok {
			return printer.Sprintf("%.2f", f)
		}
	case table.TypeNumber:
		if f, ok := cellFloat(v); ok {
			if f == math.Trunc(f) && math.Abs(f) < 1e15 {
				return printer.Sprintf("%d", int64(f))
			}
			return printer.Sprintf("%g", f)
		}
	case table.TypeDate:
		if t, ok := v.(time.Time); ok {
			return t.Format("2006-01-02")
		}
	case table.TypeBool:
		if b, ok := v.(bool); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
	}

	return fmt.Sprintf("%v", v)
}

// cellFloat widens any numeric value to float64.
func cellFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
