// Package archive records immutable snapshots of settings files and
// serves history and diff queries over them. Every time a watched file
// changes, one snapshot row is written; the rows double as the audit
// trail of who changed what and when.
//
// The archive supports multiple backend implementations:
//   - SQLite: File-based storage for single-node deployments
//   - etcd: Distributed storage for fleets sharing one archive
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Archive is the main interface for snapshot storage.
//
// All operations accept context.Context for timeout/cancellation support.
type Archive interface {
	// RecordSnapshot stores a new snapshot and returns its ID
	RecordSnapshot(ctx context.Context, req *SnapshotRequest) (snapshotID string, err error)

	// GetSnapshot fetches one snapshot by ID
	GetSnapshot(ctx context.Context, snapshotID string) (*Snapshot, error)

	// LatestSnapshot fetches the most recent snapshot of a file
	LatestSnapshot(ctx context.Context, path string) (*Snapshot, error)

	// ListSnapshots returns snapshots matching the options, newest first
	ListSnapshots(ctx context.Context, opts *ListOptions) ([]*Snapshot, error)

	// CompareSnapshots diffs two stored snapshots
	CompareSnapshots(ctx context.Context, snapshotID1, snapshotID2 string) (*DiffResult, error)

	// Prune deletes snapshots recorded before the cutoff and returns the
	// number removed
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	// Close the archive
	Close() error
}

// SnapshotRequest contains parameters for recording a snapshot.
type SnapshotRequest struct {
	Path       string // Path of the settings file
	ConfigText string // Full file contents at snapshot time
	Sections   int    // Section count reported by the parser
	Keys       int    // Key count reported by the parser
	RecordedBy string // Username or daemon identity taking the snapshot
	SessionID  string // Interactive session ID (may be empty)
	Note       string // Optional operator note
}

// Snapshot represents one recorded state of a settings file.
type Snapshot struct {
	ID         string    // UUID of the snapshot
	Path       string    // Path of the settings file
	Checksum   string    // SHA-256 of ConfigText, hex encoded
	ConfigText string    // Full file contents at snapshot time
	Sections   int       // Section count reported by the parser
	Keys       int       // Key count reported by the parser
	RecordedBy string    // Username or daemon identity
	SessionID  string    // Interactive session ID (may be empty)
	Note       string    // Optional operator note
	RecordedAt time.Time // When the snapshot was taken
	Key        string    // ULID index key (only set for etcd backend)
}

// ListOptions contains filtering options for snapshot queries.
type ListOptions struct {
	Path      string    // Filter by file path (empty = all files)
	Limit     int       // Maximum number of entries to return (0 = no limit)
	Offset    int       // Number of entries to skip (for pagination)
	StartTime time.Time // Filter snapshots after this time (zero = no filter)
	EndTime   time.Time // Filter snapshots before this time (zero = no filter)
}

// DiffResult represents the difference between two snapshots.
type DiffResult struct {
	DiffText   string // Simplified line diff
	HasChanges bool   // Whether there are any differences
}

// MigrationManager handles database schema migrations.
type MigrationManager interface {
	// GetCurrentVersion returns the current schema version.
	GetCurrentVersion() (int, error)

	// ApplyMigrations applies all pending migrations.
	ApplyMigrations() error

	// CreateBackup creates a database backup before migrations.
	CreateBackup() (string, error)
}

// BackendType represents the type of archive backend.
type BackendType string

const (
	// BackendSQLite is a file-based SQLite backend (single-node).
	BackendSQLite BackendType = "sqlite"

	// BackendEtcd is a distributed etcd backend.
	BackendEtcd BackendType = "etcd"
)

// Config contains configuration for archive initialization.
type Config struct {
	// Backend type (sqlite or etcd)
	Backend BackendType

	// SQLite-specific configuration
	SQLitePath string // Path to SQLite database file (default: /var/lib/arca-conf/archive.db)

	// etcd-specific configuration
	EtcdEndpoints   []string      // etcd cluster endpoints (e.g., ["localhost:2379"])
	EtcdPrefix      string        // Key prefix for arca-conf data (default: /arca-conf/)
	EtcdDialTimeout time.Duration // Connection timeout (default: 5s)
	EtcdUsername    string        // Optional username for authentication
	EtcdPassword    string        // Optional password for authentication
	EtcdTLS         *TLSConfig    // Optional TLS configuration

	// Retention keeps snapshots younger than this duration. Zero keeps
	// everything. The SQLite backend prunes in the background; etcd
	// deployments prune through the CLI or an external job.
	Retention time.Duration
}

// TLSConfig contains TLS configuration for etcd connections.
type TLSConfig struct {
	CertFile string // Path to client certificate file
	KeyFile  string // Path to client key file
	CAFile   string // Path to CA certificate file
}

// ErrorCode represents a standardized error code for archive operations.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the requested snapshot was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeValidation indicates a validation error.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeTimeout indicates a timeout during operation.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeInternal indicates an internal archive error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error represents an archive error with structured information.
type Error struct {
	Code    ErrorCode // Error code
	Message string    // Human-readable error message
	Cause   error     // Underlying error (may be nil)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new archive error.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Checksum returns the hex-encoded SHA-256 of a settings file's text.
// Both backends store it so unchanged files can be skipped without
// fetching the full snapshot body.
func Checksum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
