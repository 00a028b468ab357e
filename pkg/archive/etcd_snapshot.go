package archive

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// snapshotEntry represents a snapshot stored in etcd.
type snapshotEntry struct {
	SnapshotID string    `json:"snapshot_id"`
	Path       string    `json:"path"`
	Checksum   string    `json:"checksum"`
	ConfigText string    `json:"config_text"`
	Sections   int       `json:"section_count"`
	Keys       int       `json:"key_count"`
	RecordedBy string    `json:"recorded_by"`
	SessionID  string    `json:"session_id"`
	Note       string    `json:"note"`
	RecordedAt time.Time `json:"recorded_at"`
	Key        string    `json:"key"`
}

func (e *snapshotEntry) toSnapshot() *Snapshot {
	return &Snapshot{
		ID:         e.SnapshotID,
		Path:       e.Path,
		Checksum:   e.Checksum,
		ConfigText: e.ConfigText,
		Sections:   e.Sections,
		Keys:       e.Keys,
		RecordedBy: e.RecordedBy,
		SessionID:  e.SessionID,
		Note:       e.Note,
		RecordedAt: e.RecordedAt,
		Key:        e.Key,
	}
}

// pathKey reduces a file path to a single key segment. File paths contain
// slashes, which would otherwise splinter the index across key levels.
func pathKey(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:8])
}

// generateULID generates a ULID (Universally Unique Lexicographically Sortable Identifier).
// ULIDs are 26 characters, timestamp-prefixed, and sortable.
// Example: 01ARYZ6S41TSV4RRFFQ69G5FAV
func generateULID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// RecordSnapshot stores a new snapshot of a settings file.
// Snapshots are written under two keys: the full entry under a UUID, and a
// ULID index entry per path so the latest snapshot is one sorted range away.
func (ds *etcdArchive) RecordSnapshot(ctx context.Context, req *SnapshotRequest) (string, error) {
	if req == nil {
		return "", NewError(ErrCodeValidation, "snapshot request cannot be nil", nil)
	}
	if req.Path == "" {
		return "", NewError(ErrCodeValidation, "snapshot path cannot be empty", nil)
	}

	ctx, cancel := ds.withTimeout(ctx)
	defer cancel()

	snapshotID := uuid.New().String()
	ulidKey := generateULID()

	entry := snapshotEntry{
		SnapshotID: snapshotID,
		Path:       req.Path,
		Checksum:   Checksum(req.ConfigText),
		ConfigText: req.ConfigText,
		Sections:   req.Sections,
		Keys:       req.Keys,
		RecordedBy: req.RecordedBy,
		SessionID:  req.SessionID,
		Note:       req.Note,
		RecordedAt: time.Now(),
		Key:        ulidKey,
	}

	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return "", NewError(ErrCodeInternal, "failed to marshal snapshot entry", err)
	}

	snapshotKey := ds.key("snapshots", "by-id", snapshotID)
	indexKey := ds.key("snapshots", "by-path", pathKey(req.Path), ulidKey)

	// Both keys land in one transaction so a listed snapshot can always be
	// fetched
	txnResp, err := ds.client.Txn(ctx).
		Then(
			clientv3.OpPut(snapshotKey, string(entryJSON)),
			clientv3.OpPut(indexKey, snapshotID),
		).
		Commit()

	if err != nil {
		return "", NewError(ErrCodeInternal, "failed to record snapshot", err)
	}

	if !txnResp.Succeeded {
		return "", NewError(ErrCodeInternal, "snapshot transaction failed", nil)
	}

	return snapshotID, nil
}

// GetSnapshot retrieves a snapshot by its ID.
func (ds *etcdArchive) GetSnapshot(ctx context.Context, snapshotID string) (*Snapshot, error) {
	if snapshotID == "" {
		return nil, NewError(ErrCodeValidation, "snapshot ID cannot be empty", nil)
	}

	ctx, cancel := ds.withTimeout(ctx)
	defer cancel()

	resp, err := ds.client.Get(ctx, ds.key("snapshots", "by-id", snapshotID))
	if err != nil {
		return nil, NewError(ErrCodeInternal, "failed to get snapshot", err)
	}

	if len(resp.Kvs) == 0 {
		return nil, NewError(ErrCodeNotFound, fmt.Sprintf("snapshot not found: %s", snapshotID), nil)
	}

	var entry snapshotEntry
	if err := json.Unmarshal(resp.Kvs[0].Value, &entry); err != nil {
		return nil, NewError(ErrCodeInternal, "failed to unmarshal snapshot entry", err)
	}

	return entry.toSnapshot(), nil
}

// LatestSnapshot retrieves the most recent snapshot recorded for a file path.
// ULID index keys sort chronologically, so the newest entry is the first key
// in descending order.
func (ds *etcdArchive) LatestSnapshot(ctx context.Context, path string) (*Snapshot, error) {
	if path == "" {
		return nil, NewError(ErrCodeValidation, "path cannot be empty", nil)
	}

	ctx, cancel := ds.withTimeout(ctx)
	defer cancel()

	indexPrefix := ds.key("snapshots", "by-path", pathKey(path)) + "/"

	resp, err := ds.client.Get(ctx, indexPrefix,
		clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortDescend),
		clientv3.WithLimit(1),
	)
	if err != nil {
		return nil, NewError(ErrCodeInternal, "failed to query snapshot index", err)
	}

	if len(resp.Kvs) == 0 {
		return nil, NewError(ErrCodeNotFound, fmt.Sprintf("no snapshots recorded for %s", path), nil)
	}

	return ds.GetSnapshot(ctx, string(resp.Kvs[0].Value))
}

// ListSnapshots retrieves snapshots matching the options, newest first.
func (ds *etcdArchive) ListSnapshots(ctx context.Context, opts *ListOptions) ([]*Snapshot, error) {
	ctx, cancel := ds.withTimeout(ctx)
	defer cancel()

	if opts == nil {
		opts = &ListOptions{}
	}

	prefix := ds.key("snapshots", "by-id") + "/"

	resp, err := ds.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, NewError(ErrCodeInternal, "failed to list snapshots", err)
	}

	var snapshots []*Snapshot

	for _, kv := range resp.Kvs {
		var entry snapshotEntry
		if err := json.Unmarshal(kv.Value, &entry); err != nil {
			// Skip malformed entries
			continue
		}

		// Apply filters (client-side for complex predicates)
		if opts.Path != "" && entry.Path != opts.Path {
			continue
		}

		if !opts.StartTime.IsZero() && entry.RecordedAt.Before(opts.StartTime) {
			continue
		}

		if !opts.EndTime.IsZero() && entry.RecordedAt.After(opts.EndTime) {
			continue
		}

		snapshots = append(snapshots, entry.toSnapshot())
	}

	// Sort by recording time descending (newest first)
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].RecordedAt.Equal(snapshots[j].RecordedAt) {
			return snapshots[i].ID > snapshots[j].ID
		}
		return snapshots[i].RecordedAt.After(snapshots[j].RecordedAt)
	})

	// Apply offset and limit
	if opts.Offset > 0 {
		if opts.Offset >= len(snapshots) {
			return []*Snapshot{}, nil
		}
		snapshots = snapshots[opts.Offset:]
	}

	if opts.Limit > 0 && opts.Limit < len(snapshots) {
		snapshots = snapshots[:opts.Limit]
	}

	return snapshots, nil
}

// CompareSnapshots generates a diff between two stored snapshots.
func (ds *etcdArchive) CompareSnapshots(ctx context.Context, snapshotID1, snapshotID2 string) (*DiffResult, error) {
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
// This requires listing all snapshots and deleting those with old timestamps
// along with their index entries.
func (ds *etcdArchive) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := ds.withTimeout(ctx)
	defer cancel()

	prefix := ds.key("snapshots", "by-id") + "/"

	resp, err := ds.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return 0, NewError(ErrCodeInternal, "failed to list snapshots", err)
	}

	removed := int64(0)
	for _, kv := range resp.Kvs {
		var entry snapshotEntry
		if err := json.Unmarshal(kv.Value, &entry); err != nil {
			// Skip malformed entries
			continue
		}

		if !entry.RecordedAt.Before(cutoff) {
			continue
		}

		indexKey := ds.key("snapshots", "by-path", pathKey(entry.Path), entry.Key)

		_, err := ds.client.Txn(ctx).
			Then(
				clientv3.OpDelete(string(kv.Key)),
				clientv3.OpDelete(indexKey),
			).
			Commit()
		if err != nil {
			// Leave the entry for the next pruning pass
			continue
		}

		removed++
	}

	return removed, nil
}
