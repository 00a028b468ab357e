package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

var (
	// Version information (set by ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitOperationError = 1
	ExitUsageError     = 2
)

type flags struct {
	debug        bool
	settingsPath string
}

func main() {
	// Parse command line flags
	f := parseFlags()

	// Parse subcommand
	if flag.NArg() < 1 {
		showUsage()
		os.Exit(ExitUsageError)
	}

	ctx := context.Background()
	command := flag.Arg(0)

	// Dispatch command
	exitCode := dispatch(ctx, command, flag.Args()[1:], f)
	os.Exit(exitCode)
}

func parseFlags() *flags {
	f := &flags{}

	flag.BoolVar(&f.debug, "debug", false,
		"Enable debug output to stderr")
	flag.StringVar(&f.settingsPath, "settings", "/etc/arca-conf/arca-conf.yaml",
		"Path to the tool settings file")

	flag.Usage = showUsage
	flag.Parse()

	return f
}

func dispatch(ctx context.Context, command string, args []string, f *flags) int {
	debugLog(f, "Dispatching command: %s, args: %v", command, args)

	switch command {
	case "help", "-h", "--help":
		showHelp()
		return ExitSuccess

	case "version", "-v", "--version":
		return cmdVersion(f)

	case "check":
		return cmdCheck(args, f)

	case "get":
		return cmdGet(args, f)

	case "dump":
		return cmdDump(args, f)

	case "sections":
		return cmdSections(args, f)

	case "snapshot":
		return cmdSnapshot(ctx, args, f)

	case "history":
		return cmdHistory(ctx, args, f)

	case "diff":
		return cmdDiff(ctx, args, f)

	case "interactive":
		return cmdInteractive(ctx, f)

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n\n", command)
		showUsage()
		return ExitUsageError
	}
}

func showUsage() {
	fmt.Fprintf(os.Stderr, `Usage: arca-conf [options] <command> [args...]

Commands:
  help                           Show this help message
  version                        Show version information
  check <file>...                Parse settings files and report syntax errors
  get <file> <section> <key>     Print one value (use "" for the default section)
  dump <file>                    Print every entry of a settings file
  sections <file>                List the sections of a settings file
  snapshot <file> [-note <text>] Record a settings file in the archive
  history <file> [N]             Show the last N archived snapshots (default: 10)
  diff <file> [snapshot-id]      Diff a file against a snapshot (default: latest)
  interactive                    Start the interactive shell

Options:
  -debug             Enable debug output to stderr
  -settings <path>   Tool settings file (default: /etc/arca-conf/arca-conf.yaml)

Examples:
  arca-conf check /etc/myapp/settings.ini
  arca-conf get /etc/myapp/settings.ini server listen
  arca-conf get /etc/myapp/settings.ini "" log_level
  arca-conf snapshot /etc/myapp/settings.ini -note "before rollout"
  arca-conf history /etc/myapp/settings.ini 5

`)
}

func showHelp() {
	showUsage()
}

func debugLog(f *flags, format string, args ...interface{}) {
	if f.debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}
