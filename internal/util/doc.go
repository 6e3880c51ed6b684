// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the forge CLI: atomic file
// writes, rune-safe string handling, and display formatting.
package util
