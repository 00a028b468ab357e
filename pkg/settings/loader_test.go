package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akam1o/arca-conf/pkg/archive"
	"github.com/akam1o/arca-conf/pkg/errors"
)

func writeSettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arca-conf.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write settings file: %v", err)
	}
	return path
}

func TestLoad_ValidSettings(t *testing.T) {
	path := writeSettingsFile(t, `log_level: debug
archive:
  backend: sqlite
  sqlite_path: /tmp/test-archive.db
  retention: 720h
watch:
  files:
    - /etc/myapp/settings.ini
    - /etc/myapp/overrides.ini
  debounce: 250ms
  poll_interval: 10s
`)

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", s.LogLevel, "debug")
	}
	if s.Archive.Backend != "sqlite" {
		t.Errorf("Archive.Backend = %q, want %q", s.Archive.Backend, "sqlite")
	}
	if s.Archive.SQLitePath != "/tmp/test-archive.db" {
		t.Errorf("Archive.SQLitePath = %q, want %q", s.Archive.SQLitePath, "/tmp/test-archive.db")
	}
	if len(s.Watch.Files) != 2 {
		t.Fatalf("Watch.Files count = %d, want 2", len(s.Watch.Files))
	}
	if s.Watch.Files[0] != "/etc/myapp/settings.ini" {
		t.Errorf("Watch.Files[0] = %q, want %q", s.Watch.Files[0], "/etc/myapp/settings.ini")
	}
	if got := s.DebounceInterval(); got != 250*time.Millisecond {
		t.Errorf("DebounceInterval() = %v, want 250ms", got)
	}
	if got := s.PollInterval(); got != 10*time.Second {
		t.Errorf("PollInterval() = %v, want 10s", got)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeSettingsFile(t, "log_level: info\n")

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Archive.Backend != "sqlite" {
		t.Errorf("default backend = %q, want sqlite", s.Archive.Backend)
	}
	if s.Archive.SQLitePath == "" {
		t.Error("default sqlite_path is empty")
	}
	if s.Watch.Debounce != "500ms" {
		t.Errorf("default debounce = %q, want 500ms", s.Watch.Debounce)
	}
	if s.Watch.PollInterval != "30s" {
		t.Errorf("default poll_interval = %q, want 30s", s.Watch.PollInterval)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeSettingsFile(t, "")

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Archive.Backend != "sqlite" {
		t.Errorf("backend = %q, want the sqlite default", s.Archive.Backend)
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err == nil {
		t.Fatal("Load() expected error, got nil")
	}

	var cerr *errors.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *errors.Error", err)
	}
	if cerr.Code != errors.ErrCodeSettingsNotFound {
		t.Errorf("Code = %q, want %q", cerr.Code, errors.ErrCodeSettingsNotFound)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeSettingsFile(t, `log_level: info
arhive:
  backend: sqlite
`)

	_, err := Load(path, nil)
	if err == nil {
		t.Fatal("Load() expected error for unknown field, got nil")
	}

	var cerr *errors.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *errors.Error", err)
	}
	if cerr.Code != errors.ErrCodeSettingsParseError {
		t.Errorf("Code = %q, want %q", cerr.Code, errors.ErrCodeSettingsParseError)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "invalid backend",
			content: `archive:
  backend: postgres
`,
		},
		{
			name: "etcd without endpoints",
			content: `archive:
  backend: etcd
`,
		},
		{
			name: "etcd endpoint without port",
			content: `archive:
  backend: etcd
  etcd_endpoints:
    - etcd01.internal
`,
		},
		{
			name: "bad retention duration",
			content: `archive:
  backend: sqlite
  retention: forever
`,
		},
		{
			name: "bad log level",
			content: `log_level: chatty
`,
		},
		{
			name: "empty watch file entry",
			content: `watch:
  files:
    - ""
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSettingsFile(t, tt.content)
			_, err := Load(path, nil)
			if err == nil {
				t.Error("Load() expected validation error, got nil")
			}
		})
	}
}

func TestSettings_ArchiveConfig(t *testing.T) {
	path := writeSettingsFile(t, `archive:
  backend: etcd
  etcd_endpoints:
    - etcd01.internal:2379
    - etcd02.internal:2379
  etcd_prefix: /conf-archive/
  etcd_dial_timeout: 3s
  etcd_username: archiver
  etcd_password: secret
  etcd_tls:
    cert_file: /etc/arca-conf/tls/client.crt
    key_file: /etc/arca-conf/tls/client.key
    ca_file: /etc/arca-conf/tls/ca.crt
  retention: 2160h
`)

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg, err := s.ArchiveConfig()
	if err != nil {
		t.Fatalf("ArchiveConfig() error = %v", err)
	}

	if cfg.Backend != archive.BackendEtcd {
		t.Errorf("Backend = %q, want %q", cfg.Backend, archive.BackendEtcd)
	}
	if len(cfg.EtcdEndpoints) != 2 {
		t.Errorf("EtcdEndpoints count = %d, want 2", len(cfg.EtcdEndpoints))
	}
	if cfg.EtcdPrefix != "/conf-archive/" {
		t.Errorf("EtcdPrefix = %q, want %q", cfg.EtcdPrefix, "/conf-archive/")
	}
	if cfg.EtcdDialTimeout != 3*time.Second {
		t.Errorf("EtcdDialTimeout = %v, want 3s", cfg.EtcdDialTimeout)
	}
	if cfg.EtcdTLS == nil {
		t.Fatal("EtcdTLS is nil")
	}
	if cfg.EtcdTLS.CAFile != "/etc/arca-conf/tls/ca.crt" {
		t.Errorf("EtcdTLS.CAFile = %q, want %q", cfg.EtcdTLS.CAFile, "/etc/arca-conf/tls/ca.crt")
	}
	if cfg.Retention != 2160*time.Hour {
		t.Errorf("Retention = %v, want 2160h", cfg.Retention)
	}
}
