// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/tablex/internal/export"
)

// HandleFormats lists the registered output formats.
func HandleFormats(globalArgs Args) {
	registry := export.NewRegistry()
	export.RegisterBuiltins(registry)

	fmt.Println("Registered formats:")
	for _, name := range registry.Formats() {
		exp, err := registry.Resolve(name)
		if err != nil {
			continue
		}
		fmt.Printf("  %-6s %-10s %s\n", name, exp.FileExtension(), exp.MimeType())
	}
}
