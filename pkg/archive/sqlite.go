package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// sqliteArchive implements the Archive interface using SQLite.
type sqliteArchive struct {
	db            *sql.DB
	dbPath        string
	retention     time.Duration
	pruneStopChan chan struct{}
	pruneDoneChan chan struct{}
	closeOnce     sync.Once
}

// NewSQLiteArchive creates a new SQLite-backed archive.
func NewSQLiteArchive(cfg *Config) (Archive, error) {
	if cfg.Backend != BackendSQLite {
		return nil, fmt.Errorf("invalid backend type: %s (expected %s)", cfg.Backend, BackendSQLite)
	}

	dbPath := cfg.SQLitePath
	if dbPath == "" {
		dbPath = "/var/lib/arca-conf/archive.db"
	}

	// Create directory if it doesn't exist
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open SQLite database with _txlock=immediate for write transactions
	// This ensures write transactions acquire RESERVED lock immediately, preventing lock upgrade races
	// Read-only transactions (with ReadOnly: true in TxOptions) are unaffected and remain DEFERRED
	dsn := dbPath + "?_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure SQLite for production use
	pragmas := []string{
		"PRAGMA journal_mode=WAL",    // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL",  // Balance between safety and performance
		"PRAGMA foreign_keys=ON",     // Enable foreign key constraints
		"PRAGMA busy_timeout=5000",   // Wait up to 5 seconds on lock contention
		"PRAGMA cache_size=-64000",   // Use 64MB cache
		"PRAGMA temp_store=MEMORY",   // Store temp tables in memory
		"PRAGMA mmap_size=268435456", // Memory-map I/O (256MB)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	// Set connection pool limits
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	ds := &sqliteArchive{
		db:        db,
		dbPath:    dbPath,
		retention: cfg.Retention,
	}

	// Run migrations
	migrator := NewSQLiteMigrationManager(db, dbPath)
	if err := migrator.ApplyMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Start background retention pruning when a retention period is set
	if cfg.Retention > 0 {
		ds.pruneStopChan = make(chan struct{})
		ds.pruneDoneChan = make(chan struct{})
		go ds.pruneExpiredSnapshots()
	}

	return ds, nil
}

// Close closes the archive connection.
// This method is idempotent and safe to call multiple times.
func (ds *sqliteArchive) Close() error {
	var closeErr error

	ds.closeOnce.Do(func() {
		if ds.pruneStopChan != nil {
			// Signal pruning goroutine to stop
			close(ds.pruneStopChan)

			// Wait for pruning goroutine to finish (with timeout)
			select {
			case <-ds.pruneDoneChan:
				// Pruning goroutine finished
			case <-time.After(5 * time.Second):
				// Timeout waiting for pruning goroutine
			}
		}

		if ds.db != nil {
			closeErr = ds.db.Close()
		}
	})

	return closeErr
}

// pruneExpiredSnapshots runs in a background goroutine to periodically drop
// snapshots past the retention period. Failures are retried on the next
// tick.
func (ds *sqliteArchive) pruneExpiredSnapshots() {
	defer close(ds.pruneDoneChan)

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			cutoff := time.Now().Add(-ds.retention)
			_, err := ds.Prune(ctx, cutoff)
			cancel()

			if err != nil {
				// Non-critical; the next tick covers the same rows
				_ = err
			}

		case <-ds.pruneStopChan:
			// Stop signal received
			return
		}
	}
}

// beginTx starts a new transaction with the specified isolation level.
func (ds *sqliteArchive) beginTx(ctx context.Context, readOnly bool) (*sql.Tx, error) {
	opts := &sql.TxOptions{}
	if readOnly {
		// Explicitly mark as read-only
		// With _txlock=immediate, this will still use DEFERRED mode for read-only transactions
		opts.ReadOnly = true
	}
	// For write transactions, _txlock=immediate ensures IMMEDIATE mode (RESERVED lock acquired upfront)

	tx, err := ds.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, NewError(ErrCodeInternal, "failed to begin transaction", err)
	}
	return tx, nil
}

// withTx executes a function within a transaction, handling commit/rollback automatically.
func (ds *sqliteArchive) withTx(ctx context.Context, readOnly bool, fn func(*sql.Tx) error) error {
	tx, err := ds.beginTx(ctx, readOnly)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewError(ErrCodeInternal, "failed to commit transaction", err)
	}

	return nil
}
