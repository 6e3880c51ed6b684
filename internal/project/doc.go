// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package project manages named workspaces of reference files.
//
// Each project lives in its own directory with files/, artifacts/, and
// conversations/ subdirectories plus a metadata.json manifest. The
// manifest tracks file provenance and is reconciled against the real
// directory contents by Sync, so files added outside the tool are
// picked up rather than lost.
package project
