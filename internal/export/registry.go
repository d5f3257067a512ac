// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"sort"
	"strings"
	"sync"
)

// =============================================================================
// EXPORTER REGISTRY
// =============================================================================

// Registry maps format identifiers to exporters. It is an explicitly
// owned instance injected by whatever assembles the application - there
// is no ambient singleton and no discovery mechanism.
//
// A Registry is a read-mostly shared collaborator: registration happens
// at startup, resolution happens from concurrent export runs.
type Registry struct {
	mu        sync.RWMutex
	exporters map[string]Exporter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{exporters: make(map[string]Exporter)}
}

// Register maps a format identifier to an exporter. Re-registering an
// identifier replaces the previous mapping silently; overriding a
// built-in format at runtime is a supported extension path.
func (r *Registry) Register(format string, exp Exporter) {
	key := normalizeFormat(format)
	if key == "" || exp == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exporters[key] = exp
}

// Resolve returns the exporter for a format identifier, or an
// *UnknownFormatError.
func (r *Registry) Resolve(format string) (Exporter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exp, ok := r.exporters[normalizeFormat(format)]
	if !ok {
		return nil, &UnknownFormatError{Format: format}
	}
	return exp, nil
}

// Formats returns the registered format identifiers, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.exporters))
	for k := range r.exporters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RegisterBuiltins registers the built-in exporters (xlsx, pdf, csv,
// json) on the registry.
func RegisterBuiltins(r *Registry) {
	r.Register(FormatXLSX, NewXLSXExporter())
	r.Register(FormatPDF, NewPDFExporter())
	r.Register(FormatCSV, NewCSVExporter())
	r.Register(FormatJSON, NewJSONExporter())
}

// normalizeFormat canonicalizes a format identifier for lookup.
func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}
