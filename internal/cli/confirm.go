// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Unified confirmation handling for destructive forge commands.
//
// USABILITY: TTY detection for proper terminal handling
//
// All destructive operations (clear_artifacts, remove, delete) go
// through a single confirmation pattern:
//  1. If the caller already confirmed (e.g. a --yes flag), proceed
//  2. If stdin is not a TTY, refuse (can't prompt)
//  3. Otherwise, show an interactive prompt

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// =============================================================================
// CONFIRMATION HANDLING
// =============================================================================

// RequireConfirmationWithDetails checks whether the user has confirmed a
// destructive action, showing details of what is about to happen before
// prompting. Returns true if confirmed, false if cancelled, and an error
// when confirmation is needed but no prompt is possible.
//
//	details := map[string]string{
//	    "Project":   proj.Name,
//	    "Artifacts": fmt.Sprintf("%d", count),
//	}
//	confirmed, err := RequireConfirmationWithDetails(false, "clear all artifacts", details)
func RequireConfirmationWithDetails(confirmFlag bool, action string, details map[string]string) (bool, error) {
	if confirmFlag {
		return true, nil
	}

	if !IsTTY() {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal")
	}

	fmt.Println()
	fmt.Println(WarningStyle.Render("WARNING: Destructive Action"))
	fmt.Println(RenderSeparator(50))
	fmt.Println()

	for label, value := range details {
		fmt.Printf("  %s%s\n", RenderLabel(label+":", 20), value)
	}

	fmt.Println()
	fmt.Println(ErrorStyle.Render("This action cannot be undone."))
	fmt.Println()
	fmt.Printf("Are you sure you want to %s? [y/N]: ", action)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}

// =============================================================================
// HELPER FUNCTIONS FOR COMMON CONFIRMATION PATTERNS
// =============================================================================

// ShowCancellationMessage displays a standard cancellation message.
// Use this after a confirmation prompt returns false.
func ShowCancellationMessage() {
	fmt.Println()
	fmt.Println(DimStyle.Render("Cancelled."))
	fmt.Println()
}

// PromptYesNo prompts the user with a yes/no question.
// Returns true for yes, false for no.
// Returns false if stdin is not a TTY (cannot prompt).
func PromptYesNo(question string) bool {
	// USABILITY: TTY detection for proper terminal handling
	if !IsTTY() {
		return false
	}

	fmt.Printf("%s [y/N]: ", question)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes"
}
