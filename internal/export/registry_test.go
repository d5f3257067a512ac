// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryResolveUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("xlsx")
	var ufErr *UnknownFormatError
	require.True(t, errors.As(err, &ufErr), "expected UnknownFormatError, got %v", err)
	require.Equal(t, "xlsx", ufErr.Format)
}

func TestRegistryNormalizesNames(t *testing.T) {
	r := NewRegistry()
	r.Register("CSV", &CSVExporter{})

	for _, name := range []string{"csv", "CSV", " csv "} {
		_, err := r.Resolve(name)
		require.NoError(t, err, "Resolve(%q)", name)
	}
}

func TestRegistryReRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	first := &CSVExporter{}
	second := &JSONExporter{}

	r.Register("data", first)
	r.Register("data", second)

	got, err := r.Resolve("data")
	require.NoError(t, err)
	require.Same(t, second, got, "re-registration should replace the existing exporter")
	require.Len(t, r.Formats(), 1)
}

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)

	require.Equal(t, []string{"csv", "json", "pdf", "xlsx"}, r.Formats())
}
