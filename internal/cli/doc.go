// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and command handlers for
// tablex.
//
// The package separates argument parsing (Parse, ArgParser) from
// command execution (HandleExport, HandleFormats, HandleConfig) so
// handlers can be tested without touching os.Args.
package cli
