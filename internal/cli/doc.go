// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the forge interactive command loop.
//
// The REPL reads one command per line (liner-backed history and
// completion), dispatches it to a handler, and prints plain styled
// lines. Session state ties together the project store, the active
// project's artifact and conversation stores, the OpenRouter client,
// and the optional response cache.
//
// # Key Types
//
//   - Session: all state one interactive session operates on
//   - Input: liner wrapper with persistent history
//   - ArgParser: startup flag parsing for the binary
//
// # Usage
//
//	cfg, _ := config.Load()
//	err := cli.Run(cfg, log, "")
//
// Handlers return the typed errors from errors.go; Dispatch displays
// them and the loop continues. HandleErrorAndExit maps error types to
// process exit codes for startup failures.
package cli
