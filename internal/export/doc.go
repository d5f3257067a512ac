// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export provides format-agnostic table export functionality.
//
// This package contains the exporter contract and registry, the export
// orchestrator that drives paginated retrieval from a table.DataSource,
// and the built-in exporters.
//
// # Key Types
//
//   - Exporter: renders columns plus a row stream into one format
//   - Registry: resolves a format identifier to an Exporter
//   - Request: one export request (format, destination, mode, query)
//   - Orchestrator: runs a request to a terminal outcome
//   - Service: submits runs to the background task host
//
// # Supported Formats
//
//   - xlsx: spreadsheet with styled header and report block
//   - pdf:  paginated landscape document with repeated table header
//   - csv:  plain header-plus-rows, RFC 4180
//   - json: machine-readable with report metadata
//
// # Usage
//
// Register exporters once at startup and run a request:
//
//	registry := export.NewRegistry()
//	export.RegisterBuiltins(registry)
//
//	orch := export.NewOrchestrator(source, registry)
//	result, err := orch.Run(ctx, export.Request{
//	    Format:    export.FormatXLSX,
//	    Dest:      file,
//	    Mode:      export.ModeAllResults,
//	    ChunkSize: 1000,
//	}, onProgress)
package export
