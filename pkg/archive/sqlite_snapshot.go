package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const snapshotColumns = `snapshot_id, path, checksum, config_text, section_count, key_count, recorded_by, session_id, note, recorded_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var note sql.NullString

	err := row.Scan(
		&snap.ID,
		&snap.Path,
		&snap.Checksum,
		&snap.ConfigText,
		&snap.Sections,
		&snap.Keys,
		&snap.RecordedBy,
		&snap.SessionID,
		&note,
		&snap.RecordedAt,
	)
	if err != nil {
		return nil, err
	}

	if note.Valid {
		snap.Note = note.String
	}

	return &snap, nil
}

// RecordSnapshot stores a new snapshot of a settings file.
func (ds *sqliteArchive) RecordSnapshot(ctx context.Context, req *SnapshotRequest) (string, error) {
	if req == nil {
		return "", NewError(ErrCodeValidation, "snapshot request cannot be nil", nil)
	}
	if req.Path == "" {
		return "", NewError(ErrCodeValidation, "snapshot path cannot be empty", nil)
	}

	snapshotID := uuid.New().String()
	checksum := Checksum(req.ConfigText)
	recordedAt := time.Now()

	err := ds.withTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (snapshot_id, path, checksum, config_text, section_count, key_count, recorded_by, session_id, note, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, snapshotID, req.Path, checksum, req.ConfigText, req.Sections, req.Keys, req.RecordedBy, req.SessionID, req.Note, recordedAt)
		if err != nil {
			return NewError(ErrCodeInternal, "failed to insert snapshot", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return snapshotID, nil
}

// GetSnapshot retrieves a snapshot by its ID.
func (ds *sqliteArchive) GetSnapshot(ctx context.Context, snapshotID string) (*Snapshot, error) {
	if snapshotID == "" {
		return nil, NewError(ErrCodeValidation, "snapshot ID cannot be empty", nil)
	}

	var snap *Snapshot
	err := ds.withTx(ctx, true, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT `+snapshotColumns+`
			FROM snapshots
			WHERE snapshot_id = ?
		`, snapshotID)

		var scanErr error
		snap, scanErr = scanSnapshot(row)
		if scanErr == sql.ErrNoRows {
			return NewError(ErrCodeNotFound, fmt.Sprintf("snapshot not found: %s", snapshotID), nil)
		}
		if scanErr != nil {
			return NewError(ErrCodeInternal, "failed to query snapshot", scanErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// LatestSnapshot retrieves the most recent snapshot recorded for a file path.
func (ds *sqliteArchive) LatestSnapshot(ctx context.Context, path string) (*Snapshot, error) {
	if path == "" {
		return nil, NewError(ErrCodeValidation, "path cannot be empty", nil)
	}

	var snap *Snapshot
	err := ds.withTx(ctx, true, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT `+snapshotColumns+`
			FROM snapshots
			WHERE path = ?
			ORDER BY recorded_at DESC, snapshot_id DESC
			LIMIT 1
		`, path)

		var scanErr error
		snap, scanErr = scanSnapshot(row)
		if scanErr == sql.ErrNoRows {
			return NewError(ErrCodeNotFound, fmt.Sprintf("no snapshots recorded for %s", path), nil)
		}
		if scanErr != nil {
			return NewError(ErrCodeInternal, "failed to query latest snapshot", scanErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// ListSnapshots retrieves snapshots matching the options, newest first.
func (ds *sqliteArchive) ListSnapshots(ctx context.Context, opts *ListOptions) ([]*Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE 1=1`
	args := []interface{}{}

	if opts != nil {
		if opts.Path != "" {
			query += " AND path = ?"
			args = append(args, opts.Path)
		}
		if !opts.StartTime.IsZero() {
			query += " AND recorded_at >= ?"
			args = append(args, opts.StartTime)
		}
		if !opts.EndTime.IsZero() {
			query += " AND recorded_at <= ?"
			args = append(args, opts.EndTime)
		}
	}

	query += " ORDER BY recorded_at DESC, snapshot_id DESC"

	if opts != nil && opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)

		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	var snapshots []*Snapshot
	err := ds.withTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return NewError(ErrCodeInternal, "failed to query snapshots", err)
		}
		defer rows.Close()

		for rows.Next() {
			snap, err := scanSnapshot(rows)
			if err != nil {
				return NewError(ErrCodeInternal, "failed to scan snapshot row", err)
			}
			snapshots = append(snapshots, snap)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return snapshots, nil
}

// CompareSnapshots generates a diff between two stored snapshots.
func (ds *sqliteArchive) CompareSnapshots(ctx context.Context, snapshotID1, snapshotID2 string) (*DiffResult, error) {
	before, err := ds.GetSnapshot(ctx, snapshotID1)
	if err != nil {
		return nil, err
	}

	after, err := ds.GetSnapshot(ctx, snapshotID2)
	if err != nil {
		return nil, err
	}

	return CompareTexts(before.ConfigText, after.ConfigText), nil
}

// Prune deletes snapshots recorded before the cutoff time.
func (ds *sqliteArchive) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64

	err := ds.withTx(ctx, false, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM snapshots
			WHERE recorded_at < ?
		`, cutoff)
		if err != nil {
			return NewError(ErrCodeInternal, "failed to prune snapshots", err)
		}

		removed, err = result.RowsAffected()
		if err != nil {
			return NewError(ErrCodeInternal, "failed to count pruned snapshots", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}
