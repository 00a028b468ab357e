package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/akam1o/arca-conf/pkg/archive"
	"github.com/akam1o/arca-conf/pkg/cli"
	"github.com/akam1o/arca-conf/pkg/errors"
	"github.com/akam1o/arca-conf/pkg/logger"
	"github.com/akam1o/arca-conf/pkg/settings"
)

// openArchive opens the archive named by the tool settings. A missing
// settings file falls back to the built-in defaults so the CLI works on a
// host with nothing installed yet.
func openArchive(f *flags) (archive.Archive, error) {
	level := slog.LevelWarn
	if f.debug {
		level = slog.LevelDebug
	}
	log := logger.New("settings", &logger.Config{Level: level})

	s, err := settings.Load(f.settingsPath, log)
	if err != nil {
		var appErr *errors.Error
		if stderrors.As(err, &appErr) && appErr.Code == errors.ErrCodeSettingsNotFound {
			debugLog(f, "Settings file %s not found, using defaults", f.settingsPath)
			s = settings.Default()
		} else {
			return nil, err
		}
	}

	cfg, err := s.ArchiveConfig()
	if err != nil {
		return nil, err
	}
	return archive.NewArchive(cfg)
}

// username resolves the operator identity recorded with snapshots.
func username() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "admin"
}

// cmdSnapshot records a settings file in the archive.
func cmdSnapshot(ctx context.Context, args []string, f *flags) int {
	path := ""
	note := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-note":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "Error: '-note' requires an argument\n\n")
				showUsage()
				return ExitUsageError
			}
			note = args[i+1]
			i++
		default:
			if path != "" {
				fmt.Fprintf(os.Stderr, "Error: unexpected argument '%s'\n\n", args[i])
				showUsage()
				return ExitUsageError
			}
			path = args[i]
		}
	}

	if path == "" {
		fmt.Fprintf(os.Stderr, "Error: 'snapshot' requires <file>\n\n")
		showUsage()
		return ExitUsageError
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitOperationError
	}

	arc, err := openArchive(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open archive: %v\n", err)
		return ExitOperationError
	}
	defer arc.Close()

	session := cli.NewSession(username(), arc)
	if err := session.Load(absPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return ExitOperationError
	}

	snapshotID, err := session.Snapshot(ctx, note)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitOperationError
	}

	fmt.Printf("snapshot complete (snapshot ID: %s)\n", snapshotID)
	return ExitSuccess
}

// cmdHistory lists archived snapshots of a file, newest first.
func cmdHistory(ctx context.Context, args []string, f *flags) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintf(os.Stderr, "Error: 'history' requires <file> [N]\n\n")
		showUsage()
		return ExitUsageError
	}

	limit := 10
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			fmt.Fprintf(os.Stderr, "Error: invalid limit '%s'\n", args[1])
			return ExitUsageError
		}
		limit = n
	}

	absPath, err := filepath.Abs(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitOperationError
	}

	arc, err := openArchive(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open archive: %v\n", err)
		return ExitOperationError
	}
	defer arc.Close()

	snapshots, err := arc.ListSnapshots(ctx, &archive.ListOptions{
		Path:  absPath,
		Limit: limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitOperationError
	}

	if len(snapshots) == 0 {
		fmt.Printf("no snapshots recorded for %s\n", absPath)
		return ExitSuccess
	}

	rows := make([][]string, 0, len(snapshots))
	for _, snap := range snapshots {
		rows = append(rows, []string{
			snap.ID,
			snap.RecordedAt.Format(time.RFC3339),
			snap.RecordedBy,
			strconv.Itoa(snap.Sections),
			strconv.Itoa(snap.Keys),
			snap.Note,
		})
	}

	headers := []string{"ID", "RECORDED AT", "BY", "SECTIONS", "KEYS", "NOTE"}
	if err := FormatTable(os.Stdout, headers, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitOperationError
	}
	return ExitSuccess
}

// cmdDiff diffs the current text of a file against an archived snapshot.
// The file is read raw so a file that no longer parses can still be
// compared against its history.
func cmdDiff(ctx context.Context, args []string, f *flags) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintf(os.Stderr, "Error: 'diff' requires <file> [snapshot-id]\n\n")
		showUsage()
		return ExitUsageError
	}

	absPath, err := filepath.Abs(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitOperationError
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitOperationError
	}

	arc, err := openArchive(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open archive: %v\n", err)
		return ExitOperationError
	}
	defer arc.Close()

	var oldText string
	if len(args) == 2 {
		snap, err := arc.GetSnapshot(ctx, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitOperationError
		}
		oldText = snap.ConfigText
	} else {
		snap, err := arc.LatestSnapshot(ctx, absPath)
		if err != nil {
			var aErr *archive.Error
			if !stderrors.As(err, &aErr) || aErr.Code != archive.ErrCodeNotFound {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return ExitOperationError
			}
			// No history yet, diff against the empty text
		} else {
			oldText = snap.ConfigText
		}
	}

	result := archive.CompareTexts(oldText, string(raw))
	if !result.HasChanges {
		fmt.Println("No changes")
		return ExitSuccess
	}

	fmt.Print(result.DiffText)
	return ExitSuccess
}
