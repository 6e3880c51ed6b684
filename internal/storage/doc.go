// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation turn persistence for forge.
//
// Each prompt/response exchange is recorded as one JSON file in the
// owning project's conversations directory, named
// conversation_<YYYYMMDD>_<HHMMSS>.json. Records carry response metrics
// (characters, words, artifact count) alongside the exchange itself.
//
// # Key Types
//
//   - TurnStore: Persistence for one project's conversation log
//   - Turn: One serialized prompt/response exchange
//   - TurnMeta: Lightweight metadata for listing
//
// # Usage
//
// Record a turn:
//
//	store := storage.NewTurnStore(project.ConversationsDir())
//	file, err := store.Append(storage.NewTurn(model, prompt, response, artifacts, elapsed))
//
// List and load turns:
//
//	metas, err := store.List()
//	turn, err := store.Load(metas[0].File)
package storage
