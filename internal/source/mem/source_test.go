// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeranaias/tablex/internal/table"
)

func orderColumns() []table.Column {
	return []table.Column{
		{Key: "id", Title: "ID", Type: table.TypeNumber},
		{Key: "customer", Title: "Customer", Type: table.TypeText},
		{Key: "amount", Title: "Amount", Type: table.TypeCurrency},
		{Key: "paid", Title: "Paid", Type: table.TypeBool},
		{Key: "created", Title: "Created", Type: table.TypeDate},
	}
}

func orderFixture() *Source {
	day := func(d int) time.Time {
		return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
	}
	rows := []table.Row{
		{"id": int64(1), "customer": "Acme", "amount": 120.0, "paid": true, "created": day(5)},
		{"id": int64(2), "customer": "Globex", "amount": 75.5, "paid": false, "created": day(2)},
		{"id": int64(3), "customer": "Initech", "amount": 120.0, "paid": true, "created": day(9)},
		{"id": int64(4), "customer": "Acme", "amount": 300.0, "paid": false, "created": day(1)},
		{"id": int64(5), "customer": "Umbrella", "amount": 50.0, "paid": true, "created": day(7)},
	}
	return New(orderColumns(), rows)
}

func ids(rows []table.Row) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r["id"].(int64)
	}
	return out
}

func TestRowsUnfiltered(t *testing.T) {
	src := orderFixture()

	rows, err := src.Rows(context.Background(), table.Query{})
	if err != nil {
		t.Fatalf("rows failed: %v", err)
	}
	if got := ids(rows); len(got) != 5 || got[0] != 1 || got[4] != 5 {
		t.Errorf("expected insertion order, got %v", got)
	}
}

func TestFilterOperators(t *testing.T) {
	src := orderFixture()

	tests := []struct {
		name   string
		filter table.Filter
		want   []int64
	}{
		{"eq", table.Filter{Field: "customer", Op: table.OpEq, Value: "Acme"}, []int64{1, 4}},
		{"neq", table.Filter{Field: "paid", Op: table.OpNeq, Value: true}, []int64{2, 4}},
		{"gt", table.Filter{Field: "amount", Op: table.OpGt, Value: 100}, []int64{1, 3, 4}},
		{"gte", table.Filter{Field: "amount", Op: table.OpGte, Value: 120.0}, []int64{1, 3, 4}},
		{"lt", table.Filter{Field: "amount", Op: table.OpLt, Value: 75.5}, []int64{5}},
		{"lte", table.Filter{Field: "amount", Op: table.OpLte, Value: 75.5}, []int64{2, 5}},
		{"contains case-insensitive", table.Filter{Field: "customer", Op: table.OpContains, Value: "ACM"}, []int64{1, 4}},
		{"startswith", table.Filter{Field: "customer", Op: table.OpStartsWith, Value: "glo"}, []int64{2}},
		{"endswith", table.Filter{Field: "customer", Op: table.OpEndsWith, Value: "tech"}, []int64{3}},
		{"in", table.Filter{Field: "customer", Op: table.OpIn, Value: []any{"Umbrella", "Globex"}}, []int64{2, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := src.Rows(context.Background(), table.Query{Filters: []table.Filter{tt.filter}})
			if err != nil {
				t.Fatalf("rows failed: %v", err)
			}
			got := ids(rows)
			if len(got) != len(tt.want) {
				t.Fatalf("expected ids %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected ids %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestFiltersCombineWithAnd(t *testing.T) {
	src := orderFixture()

	rows, err := src.Rows(context.Background(), table.Query{Filters: []table.Filter{
		{Field: "customer", Op: table.OpEq, Value: "Acme"},
		{Field: "paid", Op: table.OpEq, Value: true},
	}})
	if err != nil {
		t.Fatalf("rows failed: %v", err)
	}
	if got := ids(rows); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected [1], got %v", got)
	}
}

func TestMultiKeySortWithTies(t *testing.T) {
	src := orderFixture()

	// amount desc, then created asc to break the 120.0 tie.
	rows, err := src.Rows(context.Background(), table.Query{Sort: []table.SortKey{
		{Field: "amount", Direction: table.SortDesc},
		{Field: "created", Direction: table.SortAsc},
	}})
	if err != nil {
		t.Fatalf("rows failed: %v", err)
	}

	want := []int64{4, 1, 3, 2, 5}
	got := ids(rows)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestSortByDate(t *testing.T) {
	src := orderFixture()

	rows, err := src.Rows(context.Background(), table.Query{Sort: []table.SortKey{
		{Field: "created", Direction: table.SortAsc},
	}})
	if err != nil {
		t.Fatalf("rows failed: %v", err)
	}
	if got := ids(rows); got[0] != 4 || got[4] != 3 {
		t.Errorf("expected date order [4 2 1 5 3], got %v", got)
	}
}

func TestPaginationWindow(t *testing.T) {
	src := orderFixture()

	rows, err := src.Rows(context.Background(), table.Query{Offset: 1, Limit: 2})
	if err != nil {
		t.Fatalf("rows failed: %v", err)
	}
	if got := ids(rows); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("expected [2 3], got %v", got)
	}

	// Offset past the end is an empty page, not an error.
	rows, err = src.Rows(context.Background(), table.Query{Offset: 100, Limit: 10})
	if err != nil {
		t.Fatalf("rows failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty page, got %d rows", len(rows))
	}
}

func TestTotalCountHonorsFilters(t *testing.T) {
	src := orderFixture()

	n, err := src.TotalCount(context.Background(), nil)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5, got %d", n)
	}

	n, err = src.TotalCount(context.Background(), []table.Filter{
		{Field: "paid", Op: table.OpEq, Value: true},
	})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
}

func TestInvalidQueryReturnsDataSourceError(t *testing.T) {
	src := orderFixture()

	_, err := src.Rows(context.Background(), table.Query{Offset: -1})
	if err == nil {
		t.Fatal("expected error for invalid query")
	}
	var dsErr *table.DataSourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("expected DataSourceError, got %T", err)
	}
	if dsErr.Query.Offset != -1 {
		t.Error("error should carry the failing query")
	}
}
