// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export.go - The export command: wires config, source, registry, and
// the background service into one run.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jeranaias/tablex/internal/config"
	"github.com/jeranaias/tablex/internal/export"
	"github.com/jeranaias/tablex/internal/source/sqlite"
	"github.com/jeranaias/tablex/internal/table"
)

// HandleExport runs a single export end to end and blocks until it
// reaches a terminal state.
func HandleExport(globalArgs Args) error {
	args := NewArgParser(globalArgs.Raw)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dbPath := args.FlagOrDefault("db", cfg.Source.Path)
	if dbPath == "" {
		return fmt.Errorf("no database given: use --db or set source.path in config")
	}
	tableName := args.FlagOrDefault("table", cfg.Source.Table)
	if tableName == "" {
		return fmt.Errorf("no table given: use --table or set source.table in config")
	}
	format := args.FlagOrDefault("format", cfg.Export.DefaultFormat)

	filters, err := parseFilters(args.Flag("filter"))
	if err != nil {
		return err
	}
	sortKeys, err := parseSort(args.Flag("sort"))
	if err != nil {
		return err
	}

	mode, query, err := buildQuery(args, filters, sortKeys)
	if err != nil {
		return err
	}

	registry := export.NewRegistry()
	export.RegisterBuiltins(registry)

	exp, err := registry.Resolve(format)
	if err != nil {
		return err
	}

	outPath := args.Flag("out")
	if outPath == "" {
		outPath = tableName + exp.FileExtension()
	}
	if cfg.Export.OutputDir != "" && !filepath.IsAbs(outPath) {
		outPath = filepath.Join(cfg.Export.OutputDir, outPath)
	}

	src, err := sqlite.Open(dbPath, tableName, nil)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer dest.Close()

	req := export.Request{
		Format:    format,
		Dest:      dest,
		Mode:      mode,
		Title:     args.FlagOrDefault("title", cfg.Export.ReportTitle),
		Query:     query,
		ChunkSize: args.FlagInt64OrDefault("chunk", cfg.Export.ChunkSize),
	}

	if globalArgs.Verbose && !globalArgs.Quiet {
		fmt.Fprint(os.Stderr, runSummary(dbPath, tableName, req, outPath))
	}

	svc := export.NewService(src, registry, cfg.Workers.MaxConcurrent, cfg.TaskTimeout())
	svc.Start()
	defer svc.Stop()

	done := make(chan error, 1)
	cb := export.Callbacks{
		OnProgress: func(p export.Progress) {
			if globalArgs.Quiet {
				return
			}
			if p.Total >= 0 {
				fmt.Fprintf(os.Stderr, "\rExporting... %d/%d rows", p.Done, p.Total)
			} else {
				fmt.Fprintf(os.Stderr, "\rExporting... %d rows", p.Done)
			}
		},
		OnComplete: func(res *export.Result) {
			if !globalArgs.Quiet {
				fmt.Fprintln(os.Stderr)
			}
			fmt.Printf("Exported %d rows to %s in %s\n", res.Rows, outPath, res.Elapsed.Round(time.Millisecond))
			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
			}
			done <- nil
		},
		OnFailure: func(err error) {
			if !globalArgs.Quiet {
				fmt.Fprintln(os.Stderr)
			}
			done <- err
		},
		OnCancelled: func(rows int64) {
			if !globalArgs.Quiet {
				fmt.Fprintln(os.Stderr)
			}
			fmt.Fprintf(os.Stderr, "Export canceled after %d rows\n", rows)
			done <- nil
		},
	}

	id, err := svc.Submit(req, cb)
	if err != nil {
		return err
	}

	// Ctrl-C cancels the run; the worker winds down at the next chunk
	// boundary and the partial file is left behind.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-sigCh:
			svc.Cancel(id)
		case err := <-done:
			return err
		}
	}
}

// runSummary describes the effective run settings for verbose output.
func runSummary(dbPath, tableName string, req export.Request, outPath string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source: %s (table %s)\n", dbPath, tableName)
	fmt.Fprintf(&sb, "Output: %s (%s, mode %s, chunk %d)\n", outPath, req.Format, req.Mode, req.ChunkSize)
	if s := req.Query.Summary(); s != "" {
		fmt.Fprintf(&sb, "Query: %s\n", s)
	}
	return sb.String()
}

// =============================================================================
// QUERY PARSING
// =============================================================================

// buildQuery assembles the query model from parsed flags.
func buildQuery(args *ArgParser, filters []table.Filter, sortKeys []table.SortKey) (export.Mode, table.Query, error) {
	query := table.Query{
		Filters: filters,
		Sort:    sortKeys,
	}

	switch m := args.FlagOrDefault("mode", "all"); m {
	case "all":
		return export.ModeAllResults, query, nil
	case "page":
		query.Offset = args.FlagInt64OrDefault("offset", 0)
		query.Limit = args.FlagInt64OrDefault("limit", 0)
		if query.Limit <= 0 {
			return "", table.Query{}, fmt.Errorf("mode page requires --limit")
		}
		return export.ModeCurrentPage, query, nil
	default:
		return "", table.Query{}, fmt.Errorf("unknown mode %q: use all or page", m)
	}
}

// parseFilters parses a semicolon-separated filter spec, e.g.
// "status:eq:paid;amount:gte:100".
func parseFilters(spec string) ([]table.Filter, error) {
	if spec == "" {
		return nil, nil
	}

	var filters []table.Filter
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		pieces := strings.SplitN(part, ":", 3)
		if len(pieces) != 3 {
			return nil, fmt.Errorf("invalid filter %q: expected field:op:value", part)
		}

		op := table.FilterOp(strings.ToLower(pieces[1]))
		if !op.Valid() {
			return nil, fmt.Errorf("invalid filter op %q in %q", pieces[1], part)
		}

		var value any
		if op == table.OpIn {
			var values []any
			for _, v := range strings.Split(pieces[2], ",") {
				values = append(values, parseValue(strings.TrimSpace(v)))
			}
			value = values
		} else {
			value = parseValue(pieces[2])
		}

		filters = append(filters, table.Filter{
			Field: pieces[0],
			Op:    op,
			Value: value,
		})
	}
	return filters, nil
}

// parseSort parses a semicolon-separated sort spec, e.g.
// "created:desc;name:asc". Direction defaults to ascending.
func parseSort(spec string) ([]table.SortKey, error) {
	if spec == "" {
		return nil, nil
	}

	var keys []table.SortKey
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		field, dir, found := strings.Cut(part, ":")
		key := table.SortKey{Field: field, Direction: table.SortAsc}
		if found {
			switch strings.ToLower(dir) {
			case "asc":
				key.Direction = table.SortAsc
			case "desc":
				key.Direction = table.SortDesc
			default:
				return nil, fmt.Errorf("invalid sort direction %q in %q", dir, part)
			}
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// parseValue narrows a flag value to a typed filter value.
func parseValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
