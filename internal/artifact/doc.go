// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package artifact names and persists code fragments extracted from
// model responses.
//
// Filenames follow <stem>_<YYYYMMDD>_<HHMMSS>.<ext>, where the stem
// comes from the fragment title (or is inferred from its content) and
// the extension from the fence language tag. Name collisions within a
// directory are resolved with numeric suffixes; an existing artifact
// is never overwritten.
package artifact
