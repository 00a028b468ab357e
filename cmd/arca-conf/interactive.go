package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/akam1o/arca-conf/pkg/cli"
	"github.com/chzyer/readline"
)

// InteractiveShell manages the interactive session
type InteractiveShell struct {
	session *cli.Session
	rl      *readline.Instance
}

// NewInteractiveShell creates a new interactive shell
func NewInteractiveShell(session *cli.Session) (*InteractiveShell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              buildPrompt(session),
		HistoryFile:         "/tmp/.arca-conf-history",
		AutoComplete:        createCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}

	return &InteractiveShell{
		session: session,
		rl:      rl,
	}, nil
}

// Run starts the interactive shell
func (sh *InteractiveShell) Run(ctx context.Context) error {
	defer sh.rl.Close()

	// Handle Ctrl+C gracefully
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted. Use 'exit' or 'quit' to leave the shell.")
	}()

	fmt.Println("Welcome to arca-conf interactive shell")
	fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to exit")
	fmt.Println()

	for {
		// Update prompt based on the loaded file
		sh.rl.SetPrompt(buildPrompt(sh.session))

		line, err := sh.rl.Readline()
		if err != nil { // io.EOF, readline.ErrInterrupt
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := sh.processCommand(ctx, line); err != nil {
			if err.Error() == "exit" {
				break
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	return nil
}

// processCommand processes a single command
func (sh *InteractiveShell) processCommand(ctx context.Context, line string) error {
	parts, err := cli.TokenizeCommand(line)
	if err != nil {
		return fmt.Errorf("syntax error: %w", err)
	}
	if len(parts) == 0 {
		return nil
	}

	command := parts[0]
	args := parts[1:]

	switch command {
	case "help", "?":
		sh.showHelp()
		return nil

	case "exit", "quit":
		return fmt.Errorf("exit")

	case "open":
		return sh.cmdOpen(args)

	case "get":
		return sh.cmdGet(args)

	case "sections":
		return sh.cmdSections()

	case "keys":
		return sh.cmdKeys(args)

	case "dump":
		return sh.cmdDump()

	case "snapshot":
		return sh.cmdSnapshot(ctx, args)

	case "history":
		return sh.cmdHistory(ctx, args)

	case "diff":
		return sh.cmdDiff(ctx)

	default:
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", command)
	}
}

// Command handlers

func (sh *InteractiveShell) cmdOpen(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("'open' requires a file path")
	}

	// Absolute paths keep shell snapshots under the same archive key as
	// the snapshot command and the daemon
	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	if err := sh.session.Load(absPath); err != nil {
		return err
	}

	sections, _ := sh.session.Sections()
	entries, _ := sh.session.Dump()
	fmt.Printf("loaded %s (%d sections, %d keys)\n", sh.session.Path(), len(sections), len(entries))
	return nil
}

func (sh *InteractiveShell) cmdGet(args []string) error {
	var section, key string
	switch len(args) {
	case 1:
		// Single argument reads from the default section
		section, key = "", args[0]
	case 2:
		section, key = args[0], args[1]
	default:
		return fmt.Errorf("'get' requires <key> or <section> <key>")
	}

	value, err := sh.session.Get(section, key)
	if err != nil {
		return err
	}

	fmt.Println(value)
	return nil
}

func (sh *InteractiveShell) cmdSections() error {
	sections, err := sh.session.Sections()
	if err != nil {
		return err
	}

	for _, section := range sections {
		fmt.Println(displaySection(section))
	}
	return nil
}

func (sh *InteractiveShell) cmdKeys(args []string) error {
	// No argument lists the default section
	section := ""
	if len(args) > 1 {
		return fmt.Errorf("'keys' accepts at most one section name")
	}
	if len(args) == 1 {
		section = args[0]
	}

	keys, err := sh.session.Keys(section)
	if err != nil {
		return err
	}

	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func (sh *InteractiveShell) cmdDump() error {
	entries, err := sh.session.Dump()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("no entries")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{displaySection(entry.Section), entry.Key, entry.Value})
	}
	return FormatTable(os.Stdout, []string{"SECTION", "KEY", "VALUE"}, rows)
}

func (sh *InteractiveShell) cmdSnapshot(ctx context.Context, args []string) error {
	note := strings.Join(args, " ")

	snapshotID, err := sh.session.Snapshot(ctx, note)
	if err != nil {
		return err
	}

	fmt.Printf("snapshot complete (snapshot ID: %s)\n", snapshotID)
	return nil
}

func (sh *InteractiveShell) cmdHistory(ctx context.Context, args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid limit: %s", args[0])
		}
		limit = n
	}

	snapshots, err := sh.session.History(ctx, limit)
	if err != nil {
		return err
	}

	if len(snapshots) == 0 {
		fmt.Println("no snapshots recorded")
		return nil
	}

	rows := make([][]string, 0, len(snapshots))
	for _, snap := range snapshots {
		rows = append(rows, []string{
			snap.ID,
			snap.RecordedAt.Format(time.RFC3339),
			snap.RecordedBy,
			snap.Note,
		})
	}
	return FormatTable(os.Stdout, []string{"ID", "RECORDED AT", "BY", "NOTE"}, rows)
}

func (sh *InteractiveShell) cmdDiff(ctx context.Context) error {
	diff, err := sh.session.CompareWithLatest(ctx)
	if err != nil {
		return err
	}

	if !diff.HasChanges {
		fmt.Println("No changes")
		return nil
	}

	fmt.Print(diff.DiffText)
	return nil
}

func (sh *InteractiveShell) showHelp() {
	fmt.Println("Available commands:")
	fmt.Println()
	fmt.Println("  help                  Show this help message")
	fmt.Println("  open <path>           Load a settings file")
	fmt.Println("  get <key>             Get a key from the default section")
	fmt.Println("  get <section> <key>   Get a key from a section")
	fmt.Println("  sections              List sections of the loaded file")
	fmt.Println("  keys [section]        List keys (default section if omitted)")
	fmt.Println("  dump                  Show every entry of the loaded file")
	fmt.Println("  snapshot [note]       Record the loaded file in the archive")
	fmt.Println("  history [N]           Show the last N snapshots (default: 10)")
	fmt.Println("  diff                  Diff against the latest archived snapshot")
	fmt.Println("  exit, quit            Exit the shell")
	fmt.Println()
}

// Prompt builder
func buildPrompt(session *cli.Session) string {
	if !session.Loaded() {
		return "arca-conf> "
	}
	return fmt.Sprintf("arca-conf [%s]> ", filepath.Base(session.Path()))
}

// Tab completion
func createCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("open"),
		readline.PcItem("get"),
		readline.PcItem("sections"),
		readline.PcItem("keys"),
		readline.PcItem("dump"),
		readline.PcItem("snapshot"),
		readline.PcItem("history"),
		readline.PcItem("diff"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

// Filter input runes (allow standard characters)
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ: // Disable Ctrl+Z
		return r, false
	}
	return r, true
}

// cmdInteractive starts the interactive shell
func cmdInteractive(ctx context.Context, f *flags) int {
	arc, err := openArchive(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open archive: %v\n", err)
		return ExitOperationError
	}
	defer arc.Close()

	session := cli.NewSession(username(), arc)

	shell, err := NewInteractiveShell(session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize interactive shell: %v\n", err)
		return ExitOperationError
	}

	if err := shell.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitOperationError
	}

	return ExitSuccess
}
