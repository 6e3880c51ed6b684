// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - The chat orchestrator: project context + prompt -> model ->
// artifacts + conversation turn.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// Flow for one exchange:
//  1. Assemble context from project files (all, selected with -s, or
//     none with -n)
//  2. Check the token budget; oversized context needs explicit consent
//  3. Consult the response cache, then the API client
//  4. Render the response (glamour markdown on a TTY)
//  5. Extract fenced fragments and write them as artifacts
//  6. Append the turn to the conversation log and report metrics

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/forge-tui/internal/cloud"
	"github.com/jeranaias/forge-tui/internal/extract"
	"github.com/jeranaias/forge-tui/internal/storage"
)

// contextTokenBudget is the approximate upper bound on context tokens
// sent in one request. Above it, the user is asked before sending.
const contextTokenBudget = 200_000

// =============================================================================
// FLAG PARSING
// =============================================================================

// chatArgs is the parsed form of a chat command line.
type chatArgs struct {
	NoContext bool     // -n: send the prompt without any project files
	Selected  []string // -s f1,f2: limit context to these files
	Prompt    string
}

// parseChatArgs splits "chat [-n] [-s f1,f2] [--] prompt words..." into
// flags and prompt. Flags are only recognized before the first prompt
// word; "--" ends flag parsing explicitly so prompts may start with "-".
func parseChatArgs(input string) (chatArgs, error) {
	fields := strings.Fields(input)
	// fields[0] is "chat"
	rest := fields[1:]

	var args chatArgs
	i := 0
	for i < len(rest) {
		switch rest[i] {
		case "-n", "--no-context":
			args.NoContext = true
			i++
		case "-s", "--select":
			if i+1 >= len(rest) {
				return args, ErrMissingArgument("file list", "chat -s main.py,utils.py explain this")
			}
			for _, name := range strings.Split(rest[i+1], ",") {
				if name = strings.TrimSpace(name); name != "" {
					args.Selected = append(args.Selected, name)
				}
			}
			i += 2
		case "--":
			i++
			args.Prompt = strings.Join(rest[i:], " ")
			return validateChatArgs(args)
		default:
			args.Prompt = strings.Join(rest[i:], " ")
			return validateChatArgs(args)
		}
	}
	return validateChatArgs(args)
}

func validateChatArgs(args chatArgs) (chatArgs, error) {
	if strings.TrimSpace(args.Prompt) == "" {
		return args, ErrMissingArgument("prompt", "chat explain the main function")
	}
	if args.NoContext && len(args.Selected) > 0 {
		return args, NewValidationError("flags", "-n with -s", "choose either no context or selected files")
	}
	return args, nil
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

func cmdChat(s *Session, input string) error {
	p, err := s.RequireProject("chat")
	if err != nil {
		return err
	}

	args, err := parseChatArgs(input)
	if err != nil {
		return err
	}

	// Context assembly.
	var fileContext string
	switch {
	case args.NoContext:
		// Prompt goes out alone.
	case len(args.Selected) > 0:
		var b strings.Builder
		for _, name := range args.Selected {
			content, err := readProjectFile(p.FilesDir(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(&b, "--- File: %s ---\n%s\n\n", name, strings.TrimRight(string(content), "\n"))
		}
		fileContext = b.String()
	default:
		fileContext, err = p.Context()
		if err != nil {
			return err
		}
	}

	// Token budget gate. The estimate is coarse but consistent with the
	// tokens command, so the user sees the same numbers in both places.
	estimated := storage.EstimateTokens(fileContext) + storage.EstimateTokens(args.Prompt)
	if estimated > contextTokenBudget {
		fmt.Println(WarningStyle.Render(fmt.Sprintf(
			"Context is ~%s tokens (budget ~%s).",
			formatNumber(estimated), formatNumber(contextTokenBudget))))
		if !PromptYesNo("Send anyway?") {
			ShowCancellationMessage()
			return nil
		}
	}

	fullPrompt := args.Prompt
	if fileContext != "" {
		fullPrompt = fmt.Sprintf("Project files:\n\n%s\nUser request: %s", fileContext, args.Prompt)
	}

	// Cache lookup keyed by model + full prompt.
	model := s.Client.GetModel()
	var responseText string
	var usageTokens int
	fromCache := false
	if s.Cache != nil {
		if cached, ok, err := s.Cache.Get(model, fullPrompt); err == nil && ok {
			responseText = cached
			fromCache = true
		}
	}

	start := time.Now()
	if !fromCache {
		if !s.Client.IsConfigured() {
			return WrapError(cloud.ErrNotConfigured, "chat")
		}

		fmt.Println(DimStyle.Render("Thinking..."))
		resp, err := s.Client.Chat(context.Background(),
			[]cloud.ChatMessage{cloud.NewUserMessage(fullPrompt)})
		if err != nil {
			return WrapError(err, "chat request")
		}
		responseText = resp.GetContent()
		usageTokens = resp.Usage.TotalTokens
		if resp.Model != "" {
			model = resp.Model
		}

		if s.Cache != nil {
			if err := s.Cache.Put(s.Client.GetModel(), fullPrompt, responseText); err != nil {
				s.Log.Debug().Err(err).Msg("cache write failed")
			}
		}
	}
	duration := time.Since(start)
	if usageTokens == 0 {
		usageTokens = storage.EstimateTokens(fullPrompt) + storage.EstimateTokens(responseText)
	}

	// Display.
	fmt.Println()
	displayResponse(responseText, s.Config.UI.RenderMarkdown)
	fmt.Println()

	// Artifact extraction.
	frags := extract.Extract(responseText, s.Config.Artifacts.MinFragmentChars)
	var saved []string
	if len(frags) > 0 {
		saved, err = s.Artifacts.Save(frags, time.Now())
		if err != nil {
			// Extraction failures must not lose the exchange itself.
			DisplayError(WrapError(err, "saving artifacts"))
		}
		for _, name := range saved {
			fmt.Printf("%s %s\n", SuccessStyle.Render("[artifact]"), name)
		}
	}

	// Record the turn.
	turn := storage.NewTurn(model, args.Prompt, responseText, saved, duration)
	if _, err := s.Turns.Append(turn); err != nil {
		DisplayError(WrapError(err, "recording conversation"))
	}

	s.TurnCount++
	s.TotalTokens += usageTokens
	showChatStats(usageTokens, duration, len(saved), fromCache)
	return nil
}

// showChatStats prints the one-line metrics footer after a response.
func showChatStats(tokens int, duration time.Duration, artifacts int, cached bool) {
	parts := []string{
		fmt.Sprintf("%s tokens", formatNumber(tokens)),
		duration.Round(time.Millisecond).String(),
	}
	if artifacts > 0 {
		parts = append(parts, fmt.Sprintf("%d artifact(s)", artifacts))
	}
	if cached {
		parts = append(parts, "cached")
	}
	fmt.Println(DimStyle.Render("[" + strings.Join(parts, " | ") + "]"))
}
