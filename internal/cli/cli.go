// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command routing for tablex.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdExport Command = iota
	CmdFormats
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool

	// Raw args (remaining after global flag parsing)
	Raw []string
}

const usageText = `tablex - tabular data export tool

Tablex exports rows from a SQLite table to XLSX, PDF, CSV, or JSON,
with filtering, sorting, and pagination. Large exports run in the
background with chunked retrieval and progress reporting.

Usage:
  tablex export [flags]       Run an export
  tablex formats              List registered output formats
  tablex config [show|path]   Configuration
  tablex version              Show version
  tablex help                 Show this help

Export flags:
  --db PATH         SQLite database file (or TABLEX_DB)
  --table NAME      Table to export (or TABLEX_TABLE)
  --format NAME     Output format: xlsx, pdf, csv, json
  --out PATH        Output file (default: derived from table and format)
  --mode MODE       all (default) or page
  --offset N        Page start row (mode page)
  --limit N         Page size (mode page)
  --filter SPECS    Filters, semicolon separated: "field:op:value;..."
                    Ops: eq, neq, lt, lte, gt, gte, contains,
                    startswith, endswith, in (value comma separated)
  --sort SPECS      Sort keys: "field:asc;other:desc"
  --title TEXT      Report title
  --chunk N         Rows per retrieval chunk

Global flags:
  -q, --quiet       Suppress progress output
  -v, --verbose     Verbose output

Examples:
  tablex export --db sales.db --table orders --format xlsx --out orders.xlsx
  tablex export --db sales.db --table orders --format csv \
      --filter "status:eq:paid;amount:gte:100" --sort "created:desc"
  tablex export --db sales.db --table orders --format json \
      --mode page --offset 200 --limit 100

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("tablex version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdHelp, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "export":
		return CmdExport, parsedArgs

	case "formats":
		return CmdFormats, parsedArgs

	case "config":
		return CmdConfig, parsedArgs

	case "version", "-V", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags, returning the remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for _, arg := range args {
		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsedArgs
}
