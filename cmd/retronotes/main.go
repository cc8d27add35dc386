package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"retronotes/internal/config"
	"retronotes/internal/db"
	"retronotes/internal/mcp"
	"retronotes/internal/store"
	"retronotes/internal/suggest"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "fetch": true, "update": true, "delete": true,
	"pin": true, "tag": true, "list": true, "search": true,
	"analytics": true, "versions": true, "restore": true,
	"share": true, "export": true, "import": true,
	"templates": true, "analyze": true, "suggest": true,
	"serve": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___     _                       _
  | _ \___| |_ _ _ ___ _ _  ___ __| |_ ___ ___
  |   / -_)  _| '_/ _ \ ' \/ _ \  _/ -_|_-</ -_)
  |_|_\___|\__|_| \___/_||_\___/\__\___/__/\___|

  Retro personal notes

  Usage: retronotes <command> [options]
         retronotes --help

  MCP server mode requires piped input.`)
}

// newLogger builds the process logger. Logs always go to stderr so
// MCP stdio transport on stdout stays clean.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if os.Getenv("RETRONOTES_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before store init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".retronotes")
	logger := newLogger()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	gateway, err := db.Open(baseDir, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer gateway.Close()

	st, err := store.New(gateway, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load notes: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	suggester := suggest.NewClient(cfg, config.SuggestionAPIKey(baseDir), logger)

	env := &cliEnv{
		store:      st,
		cfg:        cfg,
		suggester:  suggester,
		exportsDir: filepath.Join(baseDir, "exports"),
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'retronotes --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn().Strs("tools", unknown).Msg("ignoring unknown disabled_tools entries")
	}
	if err := mcp.Run(st, cfg, suggester, env.exportsDir, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
