// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// naming.go - Deterministic artifact filename generation.
//
// Filenames are built from a normalized title stem, a timestamp, and a
// language-derived extension. Uniqueness against already-assigned names
// is resolved with a numeric suffix, never by overwriting.

package artifact

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// maxStemRunes caps the normalized stem so filenames stay portable.
const maxStemRunes = 40

// knownTags is the set of fence language tags that are written through
// verbatim as the artifact extension. A fragment tagged "python" becomes
// a .python file; the tag itself is the extension, not a remapping of it.
// Anything outside the set falls back to "txt".
var knownTags = map[string]bool{
	"python":     true,
	"py":         true,
	"javascript": true,
	"js":         true,
	"typescript": true,
	"ts":         true,
	"jsx":        true,
	"tsx":        true,
	"go":         true,
	"golang":     true,
	"rust":       true,
	"java":       true,
	"kotlin":     true,
	"c":          true,
	"cpp":        true,
	"csharp":     true,
	"ruby":       true,
	"php":        true,
	"swift":      true,
	"html":       true,
	"css":        true,
	"scss":       true,
	"sql":        true,
	"bash":       true,
	"sh":         true,
	"shell":      true,
	"zsh":        true,
	"powershell": true,
	"json":       true,
	"yaml":       true,
	"yml":        true,
	"toml":       true,
	"xml":        true,
	"markdown":   true,
	"md":         true,
	"dockerfile": true,
	"makefile":   true,
	"ini":        true,
	"csv":        true,
	"r":          true,
	"lua":        true,
	"perl":       true,
	"scala":      true,
	"haskell":    true,
	"elixir":     true,
	"terraform":  true,
	"hcl":        true,
	"graphql":    true,
	"proto":      true,
	"diff":       true,
}

// Extension returns the file extension for a fence language tag: the
// tag itself when recognized, "txt" otherwise.
func Extension(language string) string {
	tag := strings.ToLower(strings.TrimSpace(language))
	if knownTags[tag] {
		return tag
	}
	return "txt"
}

// NormalizeStem converts an arbitrary title into a filesystem-safe stem:
// lowercased, runs of non-alphanumeric runes collapsed to single
// underscores, trimmed, and capped at maxStemRunes. Returns "" when
// nothing usable remains.
func NormalizeStem(title string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}

	stem := strings.Trim(b.String(), "_")
	runes := []rune(stem)
	if len(runes) > maxStemRunes {
		stem = strings.Trim(string(runes[:maxStemRunes]), "_")
	}
	return stem
}

// FileName builds an artifact filename from a title, a language tag, and
// a timestamp. An empty title falls back to "code_artifact_<seq>" where
// seq is the 1-based position of the fragment in its response.
func FileName(title, language string, seq int, now time.Time) string {
	stem := NormalizeStem(title)
	if stem == "" {
		stem = fmt.Sprintf("code_artifact_%d", seq)
	}
	return fmt.Sprintf("%s_%s.%s", stem, now.Format("20060102_150405"), Extension(language))
}

// UniqueName resolves name against a set of already-taken names by
// appending _2, _3, ... before the extension until it is free. The
// chosen name is recorded in taken. Pure with respect to the
// filesystem, so callers decide what "taken" means.
func UniqueName(taken map[string]bool, name string) string {
	if !taken[name] {
		taken[name] = true
		return name
	}

	stem := name
	ext := ""
	if idx := strings.LastIndex(name, "."); idx > 0 {
		stem = name[:idx]
		ext = name[idx:]
	}

	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}
