// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Interactive command loop for forge.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// The REPL owns all session state: the active project, its artifact and
// conversation stores, the cloud client, and the optional response cache.
// One command runs to completion before the next is accepted.
//
// Commands:
//   create <name>            Create a new project and open it
//   open <name>              Open an existing project (auto-syncs)
//   projects                 List projects (active marked with *)
//   add <path>...            Copy files into the active project
//   files                    List project files
//   remove <name>            Remove a file from the project
//   view <name>              View a file or artifact (syntax highlighted)
//   chat [-n] [-s f1,f2] <prompt>   Send prompt (+context) to the model
//   config [key] [value]     Show or change configuration
//   model [name]             Show or switch the model
//   models                   List available models
//   tokens                   Per-file token estimate report
//   artifacts                List extracted artifacts
//   export <dir>             Export all artifacts to a directory
//   clear_artifacts          Delete all artifacts (confirmed)
//   conversations [n]        List recorded turns, or show turn n
//   summary                  Project summary (counts and sizes)
//   folder                   Reveal the project folder in the file manager
//   help                     Show help
//   exit, quit               Leave forge

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/jeranaias/forge-tui/internal/artifact"
	"github.com/jeranaias/forge-tui/internal/cache"
	"github.com/jeranaias/forge-tui/internal/cloud"
	"github.com/jeranaias/forge-tui/internal/config"
	"github.com/jeranaias/forge-tui/internal/project"
	"github.com/jeranaias/forge-tui/internal/storage"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// replCommands is the completion and suggestion vocabulary.
var replCommands = []string{
	"create", "open", "projects", "add", "files", "remove", "view",
	"chat", "config", "model", "models", "tokens", "artifacts", "export",
	"clear_artifacts", "conversations", "summary", "folder",
	"help", "exit", "quit",
}

// Input provides line editing and persistent history for the REPL.
// USABILITY: Supports arrow keys for history navigation and tab completion.
type Input struct {
	line        *liner.State
	historyFile string
}

// NewInput creates the liner-backed input handler.
func NewInput() *Input {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	line.SetCompleter(func(prefix string) []string {
		var out []string
		for _, cmd := range replCommands {
			if strings.HasPrefix(cmd, strings.ToLower(prefix)) {
				out = append(out, cmd+" ")
			}
		}
		return out
	})

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	in := &Input{
		line:        line,
		historyFile: filepath.Join(configDir, "repl_history"),
	}
	in.loadHistory()
	return in
}

func (in *Input) loadHistory() {
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine reads one line with the given prompt and records it in history.
func (in *Input) ReadLine(prompt string) (string, error) {
	input, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		in.line.AppendHistory(input)
	}
	return input, nil
}

// Close persists history (0600) and releases the terminal.
func (in *Input) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			in.line.WriteHistory(f)
			f.Close()
		}
	}
	in.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// Session holds everything the command loop operates on.
type Session struct {
	Config *config.Config
	Store  *project.Store
	Client *cloud.Client
	Cache  *cache.Cache // nil when caching is disabled
	Log    zerolog.Logger

	// Active project state; nil until open/create.
	Project   *project.Project
	Artifacts *artifact.Store
	Turns     *storage.TurnStore
	Watcher   *project.Watcher

	Input     *Input
	StartTime time.Time

	// Session totals shown on exit.
	TurnCount   int
	TotalTokens int
}

// NewSession wires the session from loaded config.
func NewSession(cfg *config.Config, log zerolog.Logger) (*Session, error) {
	projectsDir, err := cfg.ProjectsDir()
	if err != nil {
		return nil, WrapError(err, "resolving projects directory")
	}
	if err := os.MkdirAll(projectsDir, 0755); err != nil {
		return nil, NewIOError("create", projectsDir, err)
	}

	client := cloud.NewClient(cfg.API.OpenRouterKey).
		WithBaseURL(cfg.API.BaseURL).
		WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second).
		WithMaxRetries(cfg.API.MaxRetries).
		WithRateLimit(cfg.API.RequestsPerMinute).
		WithLogger(log)
	client.SetModel(cfg.DefaultModel)

	var responseCache *cache.Cache
	if cfg.Cache.Enabled {
		cachePath, err := cfg.CachePath()
		if err == nil {
			ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
			responseCache, err = cache.Open(cachePath, ttl, cfg.Cache.MaxSize)
			if err != nil {
				// RELIABILITY: a broken cache must not block chat
				log.Warn().Err(err).Msg("response cache unavailable")
				responseCache = nil
			}
		}
	}

	return &Session{
		Config:    cfg,
		Store:     project.NewStore(projectsDir),
		Client:    client,
		Cache:     responseCache,
		Log:       log,
		Input:     NewInput(),
		StartTime: time.Now(),
	}, nil
}

// SetProject switches the active project, tearing down the previous watcher.
func (s *Session) SetProject(p *project.Project) {
	if s.Watcher != nil {
		s.Watcher.Close()
		s.Watcher = nil
	}
	s.Project = p
	s.Artifacts = artifact.NewStore(p.ArtifactsDir())
	s.Turns = storage.NewTurnStore(p.ConversationsDir())

	w, err := project.Watch(p)
	if err != nil {
		s.Log.Debug().Err(err).Msg("file watcher unavailable")
	} else {
		s.Watcher = w
	}
}

// RequireProject returns the active project or a uniform error naming
// the command that needed one.
func (s *Session) RequireProject(command string) (*project.Project, error) {
	if s.Project == nil {
		return nil, ErrNoActiveProject(command)
	}
	// Re-sync when the watcher saw external changes since the last command.
	if s.Watcher != nil && s.Watcher.Dirty() {
		s.Watcher.ClearDirty()
		if added, removed, err := s.Project.Sync(); err == nil {
			for _, name := range added {
				fmt.Printf("%s %s\n", InfoStyle.Render("[sync] added"), name)
			}
			for _, name := range removed {
				fmt.Printf("%s %s\n", InfoStyle.Render("[sync] removed"), name)
			}
		}
	}
	return s.Project, nil
}

// Close releases session resources.
func (s *Session) Close() {
	if s.Watcher != nil {
		s.Watcher.Close()
	}
	if s.Cache != nil {
		s.Cache.Close()
	}
	s.Input.Close()
}

// =============================================================================
// MAIN LOOP
// =============================================================================

// Run starts the interactive loop and blocks until exit. When
// initialProject is non-empty, that project is opened first.
func Run(cfg *config.Config, log zerolog.Logger, initialProject string) error {
	session, err := NewSession(cfg, log)
	if err != nil {
		return err
	}
	defer session.Close()

	printWelcome(session)

	if initialProject != "" {
		if err := cmdOpen(session, []string{initialProject}); err != nil {
			DisplayError(err)
		}
	}

	// Ctrl+C at the prompt aborts the current line via liner; a second
	// handler keeps SIGTERM from leaving the terminal in raw mode.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	go func() {
		<-sigChan
		session.Close()
		os.Exit(ExitSuccess)
	}()

	for {
		input, err := session.Input.ReadLine(promptString(session))
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println()
				continue
			}
			// EOF (Ctrl+D) exits gracefully.
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		quit, err := Dispatch(session, input)
		if err != nil {
			DisplayError(err)
		}
		if quit {
			printExitSummary(session)
			return nil
		}
	}
}

// promptString renders the prompt with the active project name.
func promptString(s *Session) string {
	if s.Project != nil {
		return PromptStyle.Render(fmt.Sprintf("forge(%s)> ", s.Project.Name))
	}
	return PromptStyle.Render("forge> ")
}

// Dispatch parses one input line and runs the matching command.
// Returns true when the session should end.
func Dispatch(s *Session, input string) (quit bool, err error) {
	fields := strings.Fields(input)
	command := strings.ToLower(fields[0])
	args := fields[1:]

	switch command {
	case "help", "?":
		printHelp()
		return false, nil
	case "exit", "quit":
		return true, nil
	case "create":
		return false, cmdCreate(s, args)
	case "open":
		return false, cmdOpen(s, args)
	case "projects":
		return false, cmdProjects(s)
	case "add":
		return false, cmdAdd(s, args)
	case "files":
		return false, cmdFiles(s)
	case "remove":
		return false, cmdRemove(s, args)
	case "view":
		return false, cmdView(s, args)
	case "chat":
		return false, cmdChat(s, input)
	case "config":
		return false, cmdConfig(s, args)
	case "model":
		return false, cmdModel(s, args)
	case "models":
		return false, cmdModels(s)
	case "tokens":
		return false, cmdTokens(s)
	case "artifacts":
		return false, cmdArtifacts(s)
	case "export":
		return false, cmdExport(s, args)
	case "clear_artifacts":
		return false, cmdClearArtifacts(s)
	case "conversations":
		return false, cmdConversations(s, args)
	case "summary":
		return false, cmdSummary(s)
	case "folder":
		return false, cmdFolder(s)
	default:
		if suggestion := SuggestCommand(command); suggestion != "" {
			return false, NewValidationError("command", command,
				fmt.Sprintf("unknown command (did you mean %q?)", suggestion))
		}
		return false, NewValidationError("command", command,
			"unknown command (type 'help' for commands)")
	}
}

// =============================================================================
// WELCOME / EXIT
// =============================================================================

func printWelcome(s *Session) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("forge"))
	fmt.Printf("%s %s\n", DimStyle.Render("Model:"), ValueStyle.Render(s.Client.GetModel()))
	if !s.Client.IsConfigured() {
		fmt.Println(WarningStyle.Render("No API key configured. Set OPENROUTER_API_KEY or api.openrouter_key in config."))
	}
	fmt.Println(DimStyle.Render("Type 'help' for commands, 'exit' to leave."))
	fmt.Println()
}

func printHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"create <name>", "Create a new project and open it"},
		{"open <name>", "Open an existing project"},
		{"projects", "List projects"},
		{"add <path>...", "Copy files into the active project"},
		{"files", "List project files"},
		{"remove <name>", "Remove a file from the project"},
		{"view <name>", "View a file or artifact"},
		{"chat [-n] [-s f1,f2] <prompt>", "Send prompt with project context"},
		{"config [key] [value]", "Show or change configuration"},
		{"model [name]", "Show or switch the model"},
		{"models", "List available models"},
		{"tokens", "Per-file token estimates"},
		{"artifacts", "List extracted artifacts"},
		{"export <dir>", "Export all artifacts"},
		{"clear_artifacts", "Delete all artifacts"},
		{"conversations [n]", "List recorded turns, or show one"},
		{"summary", "Project summary"},
		{"folder", "Reveal project folder"},
		{"help", "Show this help"},
		{"exit", "Leave forge"},
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			HighlightStyle.Render(fmt.Sprintf("%-30s", c.cmd)),
			DimStyle.Render(c.desc))
	}
	fmt.Println()
	fmt.Println(DimStyle.Render("chat -n sends the prompt without project context;"))
	fmt.Println(DimStyle.Render("chat -s file1,file2 limits context to the named files."))
	fmt.Println()
}

func printExitSummary(s *Session) {
	if s.TurnCount == 0 {
		fmt.Println(DimStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(s.StartTime).Round(time.Second)
	fmt.Println()
	fmt.Println(SectionStyle.Render("Session Summary"))
	fmt.Printf("  %s %d\n", DimStyle.Render("Turns:"), s.TurnCount)
	fmt.Printf("  %s %s\n", DimStyle.Render("Tokens:"), formatNumber(s.TotalTokens))
	fmt.Printf("  %s %s\n", DimStyle.Render("Duration:"), elapsed.String())
	fmt.Println()
	fmt.Println(DimStyle.Render("Goodbye!"))
}
