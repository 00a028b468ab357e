// Package cli provides interactive session management for arca-conf.
package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/akam1o/arca-conf/pkg/archive"
	"github.com/akam1o/arca-conf/pkg/errors"
	"github.com/akam1o/arca-conf/pkg/ini"
	"github.com/google/uuid"
)

// Session represents an interactive session working on one settings file
// at a time, with archive integration for snapshots and history.
type Session struct {
	id       string
	username string
	arc      archive.Archive
	path     string
	raw      []byte
	store    *ini.Store
	loadedAt time.Time
}

// NewSession creates a new session.
func NewSession(username string, arc archive.Archive) *Session {
	return &Session{
		id:       uuid.New().String(),
		username: username,
		arc:      arc,
	}
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Username() string { return s.username }
func (s *Session) Path() string     { return s.path }

// Loaded reports whether a settings file is currently loaded.
func (s *Session) Loaded() bool { return s.store != nil }

// Load reads and parses a settings file, replacing the current one.
// The previous file stays loaded when the new one fails to parse.
func (s *Session) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ConfigNotFound(path)
		}
		return errors.ConfigReadError(path, err)
	}

	store := ini.NewStore()
	parser := ini.NewParser(bytes.NewReader(raw), path)
	if err := parser.ParseInto(store); err != nil {
		var synErr *ini.SyntaxError
		if stderrors.As(err, &synErr) {
			return errors.ConfigSyntaxError(path, err)
		}
		return err
	}

	s.path = path
	s.raw = raw
	s.store = store
	s.loadedAt = time.Now()
	return nil
}

// Get returns the value of a key in the loaded file.
func (s *Session) Get(section, key string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("no settings file loaded")
	}

	value, ok := s.store.Lookup(section, key)
	if !ok {
		return "", fmt.Errorf("key %q not found in section %q", key, section)
	}
	return value, nil
}

// Sections returns the section names of the loaded file in sorted order.
func (s *Session) Sections() ([]string, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no settings file loaded")
	}
	return s.store.Sections(), nil
}

// Keys returns the key names of one section in sorted order.
func (s *Session) Keys(section string) ([]string, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no settings file loaded")
	}

	keys := s.store.Keys(section)
	if keys == nil {
		return nil, fmt.Errorf("section %q not found", section)
	}
	return keys, nil
}

// Dump returns every entry of the loaded file ordered by section then key.
func (s *Session) Dump() ([]ini.Entry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no settings file loaded")
	}
	return s.store.Dump(), nil
}

// Snapshot records the loaded file in the archive and returns the snapshot ID.
func (s *Session) Snapshot(ctx context.Context, note string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("no settings file loaded")
	}

	req := &archive.SnapshotRequest{
		Path:       s.path,
		ConfigText: string(s.raw),
		Sections:   len(s.store.Sections()),
		Keys:       s.store.Len(),
		RecordedBy: s.username,
		SessionID:  s.id,
		Note:       note,
	}

	snapshotID, err := s.arc.RecordSnapshot(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to record snapshot: %w", err)
	}
	return snapshotID, nil
}

// History returns archived snapshots of the loaded file, newest first.
func (s *Session) History(ctx context.Context, limit int) ([]*archive.Snapshot, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no settings file loaded")
	}

	opts := &archive.ListOptions{
		Path:  s.path,
		Limit: limit,
	}

	snapshots, err := s.arc.ListSnapshots(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// CompareWithLatest diffs the loaded file against its latest archived
// snapshot. A file with no snapshots yet diffs against the empty text.
func (s *Session) CompareWithLatest(ctx context.Context) (*archive.DiffResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no settings file loaded")
	}

	latest, err := s.arc.LatestSnapshot(ctx, s.path)
	if err != nil {
		var aErr *archive.Error
		if stderrors.As(err, &aErr) && aErr.Code == archive.ErrCodeNotFound {
			return archive.CompareTexts("", string(s.raw)), nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return archive.CompareTexts(latest.ConfigText, string(s.raw)), nil
}
