// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sqlite provides a table.DataSource backed by a SQLite table.
//
// Queries are translated to parameterized SQL: filters become a WHERE
// clause, sort keys become ORDER BY, and the pagination window becomes
// LIMIT/OFFSET. Column keys referenced by filters and sort specs are
// validated against the declared descriptors, so no user input is ever
// interpolated into SQL text.
package sqlite
