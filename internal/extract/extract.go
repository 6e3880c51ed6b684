// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract scans model response text for fenced code fragments.
//
// A fragment is a block delimited by ``` fences opening and closing on
// their own lines, with an optional language tag on the opening fence and
// an optional title taken from a heading-like line immediately above it.
// Fragments below a minimum trimmed length are considered inline
// illustrative code and are not promoted to artifacts.
package extract

import (
	"iter"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// DefaultMinChars is the default minimum trimmed fragment length for
// promotion to an artifact. Shorter blocks stay part of the prose.
const DefaultMinChars = 100

// Fragment is a raw delimited block identified during scanning, before
// naming and persistence turn it into an artifact.
type Fragment struct {
	// Title is the best-effort title from the line preceding the fence.
	// Empty if no heading-like line was found.
	Title string

	// Language is the lowercased tag following the opening fence.
	// Empty if the fence carried no tag.
	Language string

	// Content is the fragment body, fences excluded, newlines preserved.
	Content string
}

// =============================================================================
// FENCE SCANNER
// =============================================================================

// Fragments returns a lazy sequence of all fenced fragments in text, in
// document order. The scan is a single forward pass over the lines with
// an explicit inside/outside mode flag; a fence line inside a fragment
// always closes it, so nested or malformed markers cannot derail the
// scanner. A fence that never closes is treated as prose and yields no
// fragment.
//
// The sequence is restartable: ranging over it twice re-scans the text.
func Fragments(text string) iter.Seq[Fragment] {
	return func(yield func(Fragment) bool) {
		lines := strings.Split(text, "\n")

		var inFence bool
		var language string
		var title string
		var body []string

		// prevLine tracks the nearest non-blank line seen outside a
		// fence, the title candidate for the next fragment.
		var prevLine string

		for _, line := range lines {
			if strings.HasPrefix(line, "```") {
				if inFence {
					frag := Fragment{
						Title:    title,
						Language: language,
						Content:  strings.Join(body, "\n"),
					}
					inFence = false
					language = ""
					title = ""
					body = nil
					prevLine = ""
					if !yield(frag) {
						return
					}
				} else {
					inFence = true
					language = fenceTag(line)
					title = headingTitle(prevLine)
					body = nil
				}
				continue
			}

			if inFence {
				body = append(body, line)
			} else if strings.TrimSpace(line) != "" {
				prevLine = line
			}
		}
		// An unclosed fence never produced a complete fragment.
	}
}

// Extract collects every fragment whose trimmed content is at least
// minChars long. minChars <= 0 means DefaultMinChars.
func Extract(text string, minChars int) []Fragment {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}

	var frags []Fragment
	for frag := range Fragments(text) {
		if len(strings.TrimSpace(frag.Content)) < minChars {
			continue
		}
		frags = append(frags, frag)
	}
	return frags
}

// fenceTag extracts the language tag from an opening fence line.
// Only the first token counts; "```python title=x" yields "python".
func fenceTag(line string) string {
	tag := strings.TrimSpace(strings.TrimPrefix(line, "```"))
	if tag == "" {
		return ""
	}
	if idx := strings.IndexFunc(tag, func(r rune) bool { return r == ' ' || r == '\t' }); idx >= 0 {
		tag = tag[:idx]
	}
	return strings.ToLower(tag)
}

// headingTitle interprets a line as a fragment title if it looks like a
// heading or an inline annotation: "## Title", "**Title**", "Title:".
// Anything else returns "" - absence of a title is not an error.
func headingTitle(line string) string {
	s := strings.TrimSpace(line)
	if s == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(s, "#"):
		s = strings.TrimLeft(s, "#")
	case strings.HasPrefix(s, "**") && strings.HasSuffix(s, "**") && len(s) > 4:
		s = s[2 : len(s)-2]
	case strings.HasSuffix(s, ":") && !strings.Contains(s, "\t"):
		s = strings.TrimSuffix(s, ":")
	default:
		return ""
	}

	s = strings.TrimSpace(s)
	// A paragraph that happens to end in a colon is prose, not a title.
	if s == "" || len([]rune(s)) > 80 {
		return ""
	}
	return s
}

// =============================================================================
// FALLBACK INFERENCE
// =============================================================================

var (
	pyClassRe = regexp.MustCompile(`(?m)^\s*class\s+(\w+)`)
	pyFuncRe  = regexp.MustCompile(`(?m)^\s*def\s+(\w+)`)
	goFuncRe  = regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s*)?(\w+)`)
	goTypeRe  = regexp.MustCompile(`(?m)^type\s+(\w+)`)
	jsFuncRe  = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)`)
	jsClassRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?class\s+(\w+)`)
	commentRe = regexp.MustCompile(`^(?://|#|--)\s*(.+)$`)
)

// TitleFromContent infers a title from the fragment body when the
// response gave none: the first class/function/type name for known
// languages, else the first leading comment line. Returns "" when
// nothing stands out.
func TitleFromContent(content, language string) string {
	switch language {
	case "python", "py":
		if m := pyClassRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
		if m := pyFuncRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	case "go", "golang":
		if m := goTypeRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
		if m := goFuncRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	case "javascript", "js", "typescript", "ts":
		if m := jsClassRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
		if m := jsFuncRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}

	// First line comment, e.g. "# load balancer setup".
	first := strings.TrimSpace(strings.SplitN(strings.TrimSpace(content), "\n", 2)[0])
	if m := commentRe.FindStringSubmatch(first); m != nil {
		return strings.TrimSpace(m[1])
	}

	return ""
}

// DetectLanguage guesses the language of an untagged fragment using
// chroma's content analysis. Returns a lowercased language name or "".
func DetectLanguage(content string) string {
	lexer := lexers.Analyse(content)
	if lexer == nil {
		return ""
	}
	return strings.ToLower(lexer.Config().Name)
}
