// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package table

import "testing"

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{"empty query", Query{}, false},
		{"valid window", Query{Offset: 100, Limit: 50}, false},
		{"negative offset", Query{Offset: -1}, true},
		{"negative limit", Query{Limit: -1}, true},
		{
			"valid filter",
			Query{Filters: []Filter{{Field: "status", Op: OpEq, Value: "paid"}}},
			false,
		},
		{
			"filter without field",
			Query{Filters: []Filter{{Op: OpEq, Value: 1}}},
			true,
		},
		{
			"unknown operator",
			Query{Filters: []Filter{{Field: "amount", Op: "like", Value: 1}}},
			true,
		},
		{
			"valid sort",
			Query{Sort: []SortKey{{Field: "created", Direction: SortDesc}}},
			false,
		},
		{
			"sort without field",
			Query{Sort: []SortKey{{Direction: SortAsc}}},
			true,
		},
		{
			"bad sort direction",
			Query{Sort: []SortKey{{Field: "created", Direction: "up"}}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWithPageDoesNotMutateReceiver(t *testing.T) {
	base := Query{
		Filters: []Filter{{Field: "status", Op: OpEq, Value: "paid"}},
		Offset:  0,
		Limit:   0,
	}

	paged := base.WithPage(200, 100)

	if paged.Offset != 200 || paged.Limit != 100 {
		t.Errorf("expected (200, 100), got (%d, %d)", paged.Offset, paged.Limit)
	}
	if base.Offset != 0 || base.Limit != 0 {
		t.Error("WithPage must not mutate the receiver")
	}
	if len(paged.Filters) != 1 {
		t.Error("WithPage must carry the filters over")
	}
}

func TestFilterOpValid(t *testing.T) {
	for _, op := range []FilterOp{OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpContains, OpStartsWith, OpEndsWith, OpIn} {
		if !op.Valid() {
			t.Errorf("%s should be valid", op)
		}
	}
	if FilterOp("like").Valid() {
		t.Error("unknown operator should be invalid")
	}
}

func TestValidateRow(t *testing.T) {
	cols := []Column{
		{Key: "id", Title: "ID", Type: TypeNumber},
		{Key: "name", Title: "Name", Type: TypeText},
	}

	if err := ValidateRow(cols, Row{"id": 1, "name": "a"}); err != nil {
		t.Errorf("complete row should validate: %v", err)
	}
	// Nil values are fine; missing keys are not.
	if err := ValidateRow(cols, Row{"id": 1, "name": nil}); err != nil {
		t.Errorf("nil value should validate: %v", err)
	}
	if err := ValidateRow(cols, Row{"id": 1}); err == nil {
		t.Error("missing column should fail validation")
	}
}

func TestQuerySummary(t *testing.T) {
	if got := (Query{}).Summary(); got != "" {
		t.Errorf("empty query should have empty summary, got %q", got)
	}

	q := Query{
		Filters: []Filter{{Field: "a", Op: OpEq, Value: 1}, {Field: "b", Op: OpGt, Value: 2}},
		Sort:    []SortKey{{Field: "a", Direction: SortAsc}},
	}
	if got := q.Summary(); got != "filters=2 | sort=1" {
		t.Errorf("unexpected summary: %q", got)
	}
}
