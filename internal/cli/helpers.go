// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared formatting and file helpers for command handlers.

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// numPrinter formats integers with locale-aware grouping (1,234,567).
var numPrinter = message.NewPrinter(language.English)

// formatNumber formats an integer with thousands separators.
func formatNumber(n int) string {
	return numPrinter.Sprintf("%d", n)
}

// formatBytes formats a byte count for display.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// readProjectFile reads a named file from a project's files directory.
// The name must be a bare filename.
// SECURITY: rejects separators and parent references before touching disk.
func readProjectFile(dir, name string) ([]byte, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return nil, NewValidationError("file name", name, "must be a bare filename")
	}

	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewNotFoundError("file", name)
		}
		return nil, NewIOError("read", name, err)
	}
	return content, nil
}
