// forge - project workspaces and artifact extraction for LLM chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/forge-tui/internal/cli"
	"github.com/jeranaias/forge-tui/internal/config"
	"github.com/jeranaias/forge-tui/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const usage = `forge - project workspaces and artifact extraction for LLM chat

Usage:
  forge [flags] [project]

Flags:
  -m, --model NAME    Override the configured model for this session
      --config PATH   Load configuration from PATH
  -v, --version       Print version and exit
  -h, --help          Show this help

With a project name, forge opens that project on startup. All other
interaction happens inside the REPL; type 'help' there for commands.`

func main() {
	args := cli.NewArgParser(os.Args[1:])

	if args.BoolFlag("version") || args.BoolFlag("v") {
		fmt.Printf("forge %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}
	if args.BoolFlag("help") || args.BoolFlag("h") {
		fmt.Println(usage)
		return
	}

	var cfg *config.Config
	var err error
	if path := args.Flag("config"); path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		cli.HandleErrorAndExit(err)
	}

	if model := args.FlagOrDefault("model", args.Flag("m")); model != "" {
		cfg.DefaultModel = model
	}
	config.SetGlobal(cfg)

	logPath, err := cfg.LogPath()
	if err != nil {
		cli.HandleErrorAndExit(err)
	}
	log, closeLog, err := logging.Open(logPath, cfg.Log.Level)
	if err != nil {
		cli.HandleErrorAndExit(err)
	}
	defer closeLog()

	log.Info().
		Str("version", Version).
		Str("model", cfg.DefaultModel).
		Msg("startup")

	if err := cli.Run(cfg, log, args.Positional(0)); err != nil {
		log.Error().Err(err).Msg("fatal")
		cli.HandleErrorAndExit(err)
	}
}
