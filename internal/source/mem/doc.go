// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mem provides an in-memory table.DataSource backed by a row
// slice. It supports the full filter operator set, stable multi-key
// sorting, and offset/limit windowing.
//
// The source is read-only after construction, which makes it safe for
// concurrent export runs. It is also the reference implementation used
// by the export pipeline tests.
package mem
