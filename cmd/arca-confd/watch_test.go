package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akam1o/arca-conf/pkg/archive"
	"github.com/akam1o/arca-conf/pkg/logger"
)

type mockArchive struct {
	snapshots []*archive.Snapshot
	recorded  []*archive.SnapshotRequest
}

func (m *mockArchive) RecordSnapshot(ctx context.Context, req *archive.SnapshotRequest) (string, error) {
	m.recorded = append(m.recorded, req)
	return "snapshot-id-1", nil
}

func (m *mockArchive) GetSnapshot(ctx context.Context, snapshotID string) (*archive.Snapshot, error) {
	for _, s := range m.snapshots {
		if s.ID == snapshotID {
			return s, nil
		}
	}
	return nil, archive.NewError(archive.ErrCodeNotFound, "snapshot not found: "+snapshotID, nil)
}

func (m *mockArchive) LatestSnapshot(ctx context.Context, path string) (*archive.Snapshot, error) {
	for _, s := range m.snapshots {
		if s.Path == path {
			return s, nil
		}
	}
	return nil, archive.NewError(archive.ErrCodeNotFound, "no snapshots recorded for "+path, nil)
}

func (m *mockArchive) ListSnapshots(ctx context.Context, opts *archive.ListOptions) ([]*archive.Snapshot, error) {
	return m.snapshots, nil
}

func (m *mockArchive) CompareSnapshots(ctx context.Context, snapshotID1, snapshotID2 string) (*archive.DiffResult, error) {
	return &archive.DiffResult{}, nil
}

func (m *mockArchive) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *mockArchive) Close() error {
	return nil
}

func testLogger() *logger.Logger {
	return logger.New("watcher", &logger.Config{
		Level:  slog.LevelError,
		Output: io.Discard,
	})
}

func newTestWatcher(t *testing.T, content string, arc archive.Archive) *watcher {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.ini")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write settings file: %v", err)
		}
	}

	return &watcher{
		path:      path,
		arc:       arc,
		log:       testLogger(),
		debounce:  10 * time.Millisecond,
		poll:      10 * time.Millisecond,
		sessionID: "run-1",
	}
}

func TestProcessOnce_RecordsFirstSnapshot(t *testing.T) {
	content := "[server]\nlisten = :8080\nworkers = 4\n"
	mock := &mockArchive{}
	w := newTestWatcher(t, content, mock)

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce() error = %v", err)
	}

	if len(mock.recorded) != 1 {
		t.Fatalf("recorded %d snapshots, want 1", len(mock.recorded))
	}

	req := mock.recorded[0]
	if req.Path != w.path {
		t.Errorf("Path = %q, want %q", req.Path, w.path)
	}
	if req.ConfigText != content {
		t.Errorf("ConfigText = %q, want %q", req.ConfigText, content)
	}
	if req.Sections != 1 {
		t.Errorf("Sections = %d, want 1", req.Sections)
	}
	if req.Keys != 2 {
		t.Errorf("Keys = %d, want 2", req.Keys)
	}
	if req.RecordedBy != "arca-confd" {
		t.Errorf("RecordedBy = %q, want %q", req.RecordedBy, "arca-confd")
	}
	if req.SessionID != "run-1" {
		t.Errorf("SessionID = %q, want %q", req.SessionID, "run-1")
	}
}

func TestProcessOnce_SkipsUnchangedFile(t *testing.T) {
	content := "[server]\nlisten = :8080\n"
	mock := &mockArchive{}
	w := newTestWatcher(t, content, mock)

	mock.snapshots = []*archive.Snapshot{
		{
			ID:       "old-snapshot",
			Path:     w.path,
			Checksum: archive.Checksum(content),
		},
	}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce() error = %v", err)
	}

	if len(mock.recorded) != 0 {
		t.Errorf("recorded %d snapshots, want 0", len(mock.recorded))
	}
}

func TestProcessOnce_RecordsChangedFile(t *testing.T) {
	mock := &mockArchive{}
	w := newTestWatcher(t, "[server]\nlisten = :9090\n", mock)

	mock.snapshots = []*archive.Snapshot{
		{
			ID:         "old-snapshot",
			Path:       w.path,
			Checksum:   archive.Checksum("[server]\nlisten = :8080\n"),
			ConfigText: "[server]\nlisten = :8080\n",
		},
	}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce() error = %v", err)
	}

	if len(mock.recorded) != 1 {
		t.Fatalf("recorded %d snapshots, want 1", len(mock.recorded))
	}
}

func TestProcessOnce_SyntaxErrorSkipsArchiving(t *testing.T) {
	mock := &mockArchive{}
	w := newTestWatcher(t, "[broken\n", mock)

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce() error = %v", err)
	}

	if len(mock.recorded) != 0 {
		t.Errorf("recorded %d snapshots, want 0", len(mock.recorded))
	}
}

func TestProcessOnce_MissingFile(t *testing.T) {
	mock := &mockArchive{}
	w := newTestWatcher(t, "", mock)

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce() error = %v", err)
	}

	if len(mock.recorded) != 0 {
		t.Errorf("recorded %d snapshots, want 0", len(mock.recorded))
	}
}

func TestCountChanges(t *testing.T) {
	tests := []struct {
		name        string
		result      *archive.DiffResult
		wantAdded   int
		wantRemoved int
	}{
		{
			name:        "nil result",
			result:      nil,
			wantAdded:   0,
			wantRemoved: 0,
		},
		{
			name:        "no changes",
			result:      &archive.DiffResult{HasChanges: false},
			wantAdded:   0,
			wantRemoved: 0,
		},
		{
			name: "mixed changes",
			result: &archive.DiffResult{
				DiffText:   "+ a = 1\n- b = 2\n  c = 3\n+ d = 4\n",
				HasChanges: true,
			},
			wantAdded:   2,
			wantRemoved: 1,
		},
		{
			name: "context lines ignored",
			result: &archive.DiffResult{
				DiffText:   "  a = 1\n  ...\n  b = 2\n",
				HasChanges: true,
			},
			wantAdded:   0,
			wantRemoved: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed := countChanges(tt.result)
			if added != tt.wantAdded {
				t.Errorf("added = %d, want %d", added, tt.wantAdded)
			}
			if removed != tt.wantRemoved {
				t.Errorf("removed = %d, want %d", removed, tt.wantRemoved)
			}
		})
	}
}

func TestCountChanges_RealDiff(t *testing.T) {
	oldText := "[server]\nlisten = :8080\n"
	newText := "[server]\nlisten = :8080\nworkers = 4\n"

	added, removed := countChanges(archive.CompareTexts(oldText, newText))
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}
