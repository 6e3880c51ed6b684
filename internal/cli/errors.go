// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error display and exit-code mapping for forge.
//
// STANDARDIZED PATTERN:
//   - ALWAYS return errors (never just print and return nil)
//   - Let the caller decide how to display errors
//   - Use the typed errors from internal/errs
//
// ERROR HANDLING: Errors must not be silently ignored

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/forge-tui/internal/errs"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAPIError indicates a remote model API failure
	ExitAPIError = 4
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
	// ExitIOError indicates a filesystem read/write failure
	ExitIOError = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// RE-EXPORTED ERROR API
// =============================================================================
// Command handlers construct and check errors through these names; the
// types live in internal/errs so the store packages can return them
// without importing cli.

type (
	// CommandError represents a failed command with context.
	CommandError = errs.CommandError
	// ValidationError represents a validation failure for user input.
	ValidationError = errs.ValidationError
	// NotFoundError represents a resource not found error.
	NotFoundError = errs.NotFoundError
	// AlreadyExistsError represents a creation conflict.
	AlreadyExistsError = errs.AlreadyExistsError
	// IOError represents a filesystem operation failure.
	IOError = errs.IOError
)

var (
	NewCommandError               = errs.NewCommandError
	NewValidationError            = errs.NewValidationError
	NewValidationErrorWithExample = errs.NewValidationErrorWithExample
	NewNotFoundError              = errs.NewNotFoundError
	NewAlreadyExistsError         = errs.NewAlreadyExistsError
	NewIOError                    = errs.NewIOError

	IsNotFoundError      = errs.IsNotFound
	IsAlreadyExistsError = errs.IsAlreadyExists
	IsValidationError    = errs.IsValidation
)

// =============================================================================
// ERROR DISPLAY HELPERS
// =============================================================================

// DisplayError displays an error in a consistent format.
func DisplayError(err error) {
	if err == nil {
		return
	}

	fmt.Printf("%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// HandleErrorAndExit displays an error and exits with an appropriate exit code.
// Use this for fatal errors at startup.
func HandleErrorAndExit(err error) {
	if err == nil {
		return
	}

	DisplayError(err)
	os.Exit(GetExitCode(err))
}

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}

	var existsErr *AlreadyExistsError
	if errors.As(err, &existsErr) {
		return ExitUsageError
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return ExitIOError
	}

	// Check error message content for additional categorization
	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "config") ||
		strings.Contains(errMsg, "configuration") ||
		strings.Contains(errMsg, "settings") {
		return ExitConfigError
	}

	if strings.Contains(errMsg, "api key") ||
		strings.Contains(errMsg, "unauthorized") ||
		strings.Contains(errMsg, "rate limit") {
		return ExitAPIError
	}

	if strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "unreachable") ||
		strings.Contains(errMsg, "dial") {
		return ExitNetworkError
	}

	if strings.Contains(errMsg, "timed out") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") {
		return ExitTimeoutError
	}

	return ExitGeneralError
}

// WrapError wraps an error with additional context.
// Use this to add context as errors bubble up the call stack.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// =============================================================================
// COMMON ERROR CONSTRUCTORS
// =============================================================================

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(
		argName,
		"",
		"required argument missing",
		usage,
	)
}

// ErrNoActiveProject creates an error for commands that need an open project.
func ErrNoActiveProject(command string) error {
	return NewCommandError(command, "run", "no project is open (use 'open <name>' first)", nil)
}
