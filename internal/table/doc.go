// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package table defines the tabular data contract: the query model
// (filters, sort order, pagination window), column descriptors, row
// records, and the DataSource interface that data layers implement to
// participate in exports.
//
// # Key Types
//
//   - Query: immutable filter/sort/pagination value
//   - Column: column descriptor with a semantic type tag
//   - Row: column key -> scalar value record
//   - DataSource: the capability contract for queryable tabular data
//
// # Consistency Model
//
// A DataSource must return deterministic results for a fixed query
// against an unchanged data set. If the underlying data mutates between
// calls, no cross-page consistency is guaranteed: paginated retrieval
// is a weak-consistency snapshot, not a transactional read.
package table
