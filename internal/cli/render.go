// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Terminal rendering of model responses and source files.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// Markdown goes through glamour; source files go through chroma.
// Both degrade to plain text when stdout is not a TTY so piped output
// stays clean.

package cli

import (
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the shared glamour renderer.
var markdownRenderer *glamour.TermRenderer

func init() {
	wrap := GetTerminalWidth()
	if wrap > 100 {
		wrap = 100
	}

	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse prints a model response, markdown-rendered when both
// the config asks for it and stdout is a TTY.
func displayResponse(response string, renderEnabled bool) {
	if renderEnabled && IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
		return
	}
	if IsStdoutTTY() {
		fmt.Println(WrapText(response, 0))
		return
	}
	fmt.Println(response)
}

// =============================================================================
// SOURCE HIGHLIGHTING
// =============================================================================

// displayCode prints file content with syntax highlighting when colors
// are enabled. The lexer is picked by filename, then by content.
func displayCode(content, filename string) {
	if !ColorsEnabled() {
		fmt.Println(content)
		return
	}

	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		fmt.Println(content)
		return
	}

	if err := quick.Highlight(os.Stdout, content, lexer.Config().Name, "terminal256", "monokai"); err != nil {
		fmt.Println(content)
		return
	}
	fmt.Println()
}
