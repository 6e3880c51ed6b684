// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Command handlers for the forge REPL.
//
// Each handler validates its arguments, calls into the store packages,
// and prints plain styled lines. Handlers return typed errors from
// errors.go; Dispatch displays them and the loop continues.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/forge-tui/internal/config"
	"github.com/jeranaias/forge-tui/internal/storage"
	"github.com/jeranaias/forge-tui/internal/util"
)

// =============================================================================
// PROJECT COMMANDS
// =============================================================================

func cmdCreate(s *Session, args []string) error {
	if len(args) != 1 {
		return ErrMissingArgument("project name", "create web-scraper")
	}

	p, err := s.Store.Create(args[0])
	if err != nil {
		return err
	}
	s.SetProject(p)

	fmt.Printf("%s Created project %s\n",
		SuccessStyle.Render("[OK]"),
		HighlightStyle.Render(p.Name))
	return nil
}

func cmdOpen(s *Session, args []string) error {
	if len(args) != 1 {
		return ErrMissingArgument("project name", "open web-scraper")
	}

	p, err := s.Store.Open(args[0])
	if err != nil {
		return err
	}

	// Reconcile metadata with whatever is on disk before using the project.
	added, removed, err := p.Sync()
	if err != nil {
		return err
	}
	s.SetProject(p)

	fmt.Printf("%s Opened project %s\n",
		SuccessStyle.Render("[OK]"),
		HighlightStyle.Render(p.Name))
	for _, name := range added {
		fmt.Printf("  %s %s\n", InfoStyle.Render("[sync] added"), name)
	}
	for _, name := range removed {
		fmt.Printf("  %s %s\n", InfoStyle.Render("[sync] removed"), name)
	}
	return nil
}

func cmdProjects(s *Session) error {
	names, err := s.Store.List()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println(DimStyle.Render("No projects yet. Use 'create <name>' to start one."))
		return nil
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render("Projects"))
	for _, name := range names {
		marker := "  "
		if s.Project != nil && s.Project.Name == name {
			marker = HighlightStyle.Render("* ")
		}
		fmt.Printf("%s%s\n", marker, name)
	}
	fmt.Println()
	return nil
}

// =============================================================================
// FILE COMMANDS
// =============================================================================

func cmdAdd(s *Session, args []string) error {
	p, err := s.RequireProject("add")
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return ErrMissingArgument("file path", "add main.py utils.py")
	}

	for _, path := range args {
		if err := p.AddFile(path); err != nil {
			DisplayError(err)
			continue
		}
		fmt.Printf("%s Added %s\n", SuccessStyle.Render("[OK]"), path)
	}
	return nil
}

func cmdFiles(s *Session) error {
	p, err := s.RequireProject("files")
	if err != nil {
		return err
	}

	files, err := p.ListFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println(DimStyle.Render("No files. Use 'add <path>' to bring some in."))
		return nil
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render(fmt.Sprintf("Files in %s", p.Name)))
	for _, f := range files {
		fmt.Printf("  %s %10s  %s\n",
			util.PadRight(f.Name, 32),
			formatBytes(f.Size),
			DimStyle.Render(f.AddedAt.Format("2006-01-02 15:04")))
	}
	fmt.Println()
	return nil
}

func cmdRemove(s *Session, args []string) error {
	p, err := s.RequireProject("remove")
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return ErrMissingArgument("file name", "remove main.py")
	}

	if err := p.RemoveFile(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s Removed %s\n", SuccessStyle.Render("[OK]"), args[0])
	return nil
}

// cmdView shows a file or artifact with syntax highlighting on a TTY.
// Resolution order matches how names are generated: artifacts first,
// project files second.
func cmdView(s *Session, args []string) error {
	p, err := s.RequireProject("view")
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return ErrMissingArgument("file or artifact name", "view reportbuilder_20250101_120000.python")
	}
	name := args[0]

	content, err := s.Artifacts.Read(name)
	if err != nil {
		if IsNotFoundError(err) {
			content, err = readProjectFile(p.FilesDir(), name)
		}
		if err != nil {
			if suggestion := suggestName(s, name); suggestion != "" {
				return NewNotFoundError("file or artifact",
					fmt.Sprintf("%s (did you mean %q?)", name, suggestion))
			}
			return err
		}
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render(name))
	fmt.Println(RenderSeparatorAdaptive())
	displayCode(string(content), name)
	fmt.Println()
	return nil
}

// =============================================================================
// CONFIG COMMANDS
// =============================================================================

// cmdConfig handles "config" (list all keys), "config <key>" (show one),
// and "config <key> <value>" (set and persist).
func cmdConfig(s *Session, args []string) error {
	switch len(args) {
	case 0:
		fmt.Println()
		fmt.Println(SectionStyle.Render("Configuration"))
		for _, key := range config.GetAllKeys() {
			val, err := s.Config.Get(key)
			if err != nil {
				continue
			}
			fmt.Printf("  %s%v\n", RenderLabel(key+":", 32), redactConfigValue(key, val))
		}
		fmt.Println()
		return nil

	case 1:
		val, err := s.Config.Get(args[0])
		if err != nil {
			return NewValidationError("config key", args[0], "unknown key, run 'config' to list them")
		}
		fmt.Printf("%v\n", redactConfigValue(args[0], val))
		return nil

	default:
		key, value := args[0], strings.Join(args[1:], " ")

		// Mutate a copy so a rejected value never sticks in the session.
		updated := *s.Config
		if err := updated.Set(key, value); err != nil {
			return NewValidationError("config key", key, err.Error())
		}
		if err := updated.Validate(); err != nil {
			return NewValidationError(key, value, err.Error())
		}

		*s.Config = updated
		if err := config.Save(s.Config); err != nil {
			// The change still applies for this session.
			DisplayError(WrapError(err, "persisting config change"))
		}

		fmt.Printf("%s %s = %s\n",
			SuccessStyle.Render("[OK]"), key, redactConfigValue(key, value))
		return nil
	}
}

// redactConfigValue masks the API key in config command output.
func redactConfigValue(key string, val interface{}) interface{} {
	if key == "api.openrouter_key" && val != "" {
		return "[REDACTED]"
	}
	return val
}

// =============================================================================
// MODEL COMMANDS
// =============================================================================

func cmdModel(s *Session, args []string) error {
	if len(args) == 0 {
		fmt.Printf("%s %s\n",
			DimStyle.Render("Model:"),
			HighlightStyle.Render(s.Client.GetModel()))
		return nil
	}

	s.Client.SetModel(args[0])
	s.Config.DefaultModel = s.Client.GetModel()
	if err := config.Save(s.Config); err != nil {
		// The switch still applies for this session.
		DisplayError(WrapError(err, "persisting model choice"))
	}

	fmt.Printf("%s Switched to %s\n",
		SuccessStyle.Render("[OK]"),
		HighlightStyle.Render(s.Client.GetModel()))
	return nil
}

func cmdModels(s *Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	models, err := s.Client.ListModels(ctx)
	if err != nil {
		return WrapError(err, "listing models")
	}

	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	fmt.Println()
	fmt.Println(SectionStyle.Render(fmt.Sprintf("Available Models (%d)", len(models))))
	for _, m := range models {
		fmt.Printf("  %s %s\n",
			util.PadRight(m.ID, 48),
			DimStyle.Render(formatNumber(m.ContextSize)+" ctx"))
	}
	fmt.Println()
	fmt.Println(DimStyle.Render("Switch with 'model <id>'. Aliases: sonnet, opus, haiku, gpt4o, gemini."))
	fmt.Println()
	return nil
}

// cmdTokens prints estimated token counts per project file plus the total,
// the same estimate the chat budget check uses.
func cmdTokens(s *Session) error {
	p, err := s.RequireProject("tokens")
	if err != nil {
		return err
	}

	files, err := p.ListFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println(DimStyle.Render("No files to estimate."))
		return nil
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render("Token Estimates"))
	total := 0
	for _, f := range files {
		content, err := readProjectFile(p.FilesDir(), f.Name)
		if err != nil {
			DisplayError(err)
			continue
		}
		tokens := storage.EstimateTokens(string(content))
		total += tokens
		fmt.Printf("  %s %12s\n",
			util.PadRight(f.Name, 32),
			HighlightStyle.Render(formatNumber(tokens)))
	}
	fmt.Println(RenderSeparator(46))
	fmt.Printf("  %s %12s\n",
		util.PadRight("total", 32),
		HighlightStyle.Render(formatNumber(total)))
	if total > contextTokenBudget {
		fmt.Println(WarningStyle.Render(fmt.Sprintf(
			"Context exceeds the ~%s token budget; chat will ask before sending.",
			formatNumber(contextTokenBudget))))
	}
	fmt.Println()
	return nil
}

// =============================================================================
// ARTIFACT COMMANDS
// =============================================================================

func cmdArtifacts(s *Session) error {
	if _, err := s.RequireProject("artifacts"); err != nil {
		return err
	}

	infos, err := s.Artifacts.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println(DimStyle.Render("No artifacts yet. They appear after 'chat' responses with code blocks."))
		return nil
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render(fmt.Sprintf("Artifacts (%d)", len(infos))))
	for _, a := range infos {
		fmt.Printf("  %s %10s  %s\n",
			util.PadRight(a.Name, 44),
			formatBytes(a.Size),
			DimStyle.Render(a.ModTime.Format("2006-01-02 15:04")))
	}
	fmt.Println()
	return nil
}

func cmdExport(s *Session, args []string) error {
	if _, err := s.RequireProject("export"); err != nil {
		return err
	}
	if len(args) != 1 {
		return ErrMissingArgument("destination directory", "export ~/exports")
	}

	count, err := s.Artifacts.ExportAll(expandHome(args[0]))
	if count > 0 {
		fmt.Printf("%s Exported %d artifact(s) to %s\n",
			SuccessStyle.Render("[OK]"), count, args[0])
	}
	if err != nil {
		// Partial failure: the copied count above already reported successes.
		return WrapError(err, "exporting artifacts")
	}
	if count == 0 {
		fmt.Println(DimStyle.Render("Nothing to export."))
	}
	return nil
}

func cmdClearArtifacts(s *Session) error {
	p, err := s.RequireProject("clear_artifacts")
	if err != nil {
		return err
	}

	declined := false
	removed, err := s.Artifacts.ClearAll(func(count int) bool {
		confirmed, err := RequireConfirmationWithDetails(false,
			"delete all artifacts",
			map[string]string{
				"Project":   p.Name,
				"Artifacts": fmt.Sprintf("%d", count),
			})
		if err != nil {
			DisplayError(err)
		}
		declined = err != nil || !confirmed
		return !declined
	})
	if err != nil {
		return err
	}
	if declined {
		ShowCancellationMessage()
		return nil
	}
	if removed == 0 {
		fmt.Println(DimStyle.Render("No artifacts to clear."))
		return nil
	}
	fmt.Printf("%s Deleted %d artifact(s)\n", SuccessStyle.Render("[OK]"), removed)
	return nil
}

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

func cmdConversations(s *Session, args []string) error {
	if _, err := s.RequireProject("conversations"); err != nil {
		return err
	}

	// With an index argument, show that one turn in full.
	if len(args) == 1 {
		return showConversation(s, args[0])
	}

	metas, err := s.Turns.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println(DimStyle.Render("No conversations recorded yet."))
		return nil
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render(fmt.Sprintf("Conversations (%d)", len(metas))))
	for i, m := range metas {
		fmt.Printf("  %2d. %s  %s\n",
			i+1,
			DimStyle.Render(m.Timestamp.Format("2006-01-02 15:04:05")),
			m.Preview)
		fmt.Printf("      %s\n",
			DimStyle.Render(fmt.Sprintf("%s, %d artifact(s)", m.Model, m.ArtifactCount)))
	}
	fmt.Println()
	fmt.Println(DimStyle.Render("Show one with 'conversations <number>'."))
	fmt.Println()
	return nil
}

// showConversation renders a single recorded turn as markdown.
func showConversation(s *Session, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil || n == 0 {
		return NewValidationErrorWithExample("conversation number", arg,
			"must be a number from the conversations listing", "conversations 2")
	}
	if n > 0 {
		n-- // listing is 1-based
	}

	turn, err := s.Turns.LoadByIndex(n)
	if err != nil {
		return err
	}

	fmt.Println()
	displayResponse(turn.ExportMarkdown(), s.Config.UI.RenderMarkdown)
	fmt.Println()
	return nil
}

func cmdSummary(s *Session) error {
	p, err := s.RequireProject("summary")
	if err != nil {
		return err
	}

	sum, err := p.Summarize()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render(sum.Name))
	fmt.Printf("%s%s\n", RenderLabel("Created:"), sum.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("%s%d (%s)\n", RenderLabel("Files:"), sum.FileCount, formatBytes(sum.FileBytes))
	fmt.Printf("%s%d (%s)\n", RenderLabel("Artifacts:"), sum.ArtifactCount, formatBytes(sum.ArtifactBytes))
	fmt.Printf("%s%d\n", RenderLabel("Conversations:"), sum.ConversationCount)
	fmt.Println()
	return nil
}

// =============================================================================
// FOLDER REVEAL
// =============================================================================

// cmdFolder opens the project root in the system file manager.
func cmdFolder(s *Session) error {
	p, err := s.RequireProject("folder")
	if err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, p.Root)
	case "darwin":
		cmd = exec.Command("open", p.Root)
	case "linux":
		cmd = exec.Command("xdg-open", p.Root)
	default:
		return NewValidationError("platform", runtime.GOOS, "reveal is not supported here")
	}

	if err := cmd.Start(); err != nil {
		return NewIOError("open", p.Root, err)
	}
	fmt.Printf("%s Opened %s\n", SuccessStyle.Render("[OK]"), p.Root)
	return nil
}

// =============================================================================
// NAME SUGGESTIONS
// =============================================================================

// suggestName finds the closest file or artifact name for view typos.
func suggestName(s *Session, input string) string {
	var candidates []string
	if infos, err := s.Artifacts.List(); err == nil {
		for _, a := range infos {
			candidates = append(candidates, a.Name)
		}
	}
	if files, err := s.Project.ListFiles(); err == nil {
		for _, f := range files {
			candidates = append(candidates, f.Name)
		}
	}
	return closestMatch(input, candidates, 5)
}

// expandHome replaces a leading ~ with the user home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}
