package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/akam1o/arca-conf/pkg/archive"
	"github.com/akam1o/arca-conf/pkg/logger"
	"github.com/akam1o/arca-conf/pkg/settings"
	"github.com/google/uuid"
)

var (
	// Version information (set by ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

type flags struct {
	settingsPath string
	logLevel     string
	version      bool
}

func main() {
	// Parse command line flags
	f := parseFlags()

	// Handle version flag
	if f.version {
		printVersion()
		os.Exit(0)
	}

	// Setup logger
	logLevel := parseLogLevel(f.logLevel)
	log := logger.New("main", &logger.Config{
		Level:     logLevel,
		AddSource: true,
	})

	log.Info("Starting arca-confd",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("build_date", BuildDate),
	)

	// Setup signal handling for graceful shutdown
	// Note: os.Interrupt is equivalent to syscall.SIGINT on Unix systems
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, // SIGINT
		syscall.SIGTERM,
	)
	defer cancel()

	// Run the daemon
	if err := run(ctx, f, log); err != nil {
		log.Error("Daemon failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("arca-confd stopped gracefully")
}

func parseFlags() *flags {
	f := &flags{}

	flag.StringVar(&f.settingsPath, "settings", "/etc/arca-conf/arca-conf.yaml",
		"Path to the tool settings file")
	flag.StringVar(&f.logLevel, "log-level", "info",
		"Log level (debug, info, warn, error)")
	flag.BoolVar(&f.version, "version", false,
		"Print version information and exit")

	flag.Parse()

	return f
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "Invalid log level: %s, using info\n", level)
		return slog.LevelInfo
	}
}

func printVersion() {
	fmt.Printf("arca-confd version %s\n", Version)
	fmt.Printf("  Commit: %s\n", Commit)
	fmt.Printf("  Built:  %s\n", BuildDate)
}

func run(ctx context.Context, f *flags, log *logger.Logger) error {
	s, err := settings.Load(f.settingsPath, log)
	if err != nil {
		return err
	}

	if len(s.Watch.Files) == 0 {
		return fmt.Errorf("no watch files configured in %s", f.settingsPath)
	}

	cfg, err := s.ArchiveConfig()
	if err != nil {
		return err
	}

	arc, err := archive.NewArchive(cfg)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer arc.Close()

	// One session ID per daemon run ties its snapshots together
	runID := uuid.New().String()

	log.Info("Archive ready",
		slog.String("backend", string(cfg.Backend)),
		slog.String("run_id", runID),
	)

	watcherLog := logger.New("watcher", &logger.Config{
		Level:     parseLogLevel(f.logLevel),
		AddSource: true,
	})

	var wg sync.WaitGroup
	for _, file := range s.Watch.Files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("invalid watch path %s: %w", file, err)
		}

		w := &watcher{
			path:      absPath,
			arc:       arc,
			log:       watcherLog,
			debounce:  s.DebounceInterval(),
			poll:      s.PollInterval(),
			sessionID: runID,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx)
		}()
	}

	log.Info("Watching settings files", slog.Int("count", len(s.Watch.Files)))

	<-ctx.Done()
	log.Info("Shutdown signal received")

	wg.Wait()
	return nil
}
