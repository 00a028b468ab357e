// Package settings loads the YAML configuration of the arca-conf tools
// themselves: which archive backend to use, where it lives, and which
// files arca-confd watches.
package settings

import (
	"fmt"
	"net"
	"time"

	"github.com/akam1o/arca-conf/pkg/archive"
)

// Settings holds the arca-conf tool configuration
type Settings struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// Archive selects and configures the snapshot backend
	Archive ArchiveSettings `yaml:"archive"`

	// Watch configures the arca-confd file watcher
	Watch WatchSettings `yaml:"watch"`
}

// ArchiveSettings configures the snapshot archive backend
type ArchiveSettings struct {
	// Backend is "sqlite" or "etcd"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend
	SQLitePath string `yaml:"sqlite_path"`

	// EtcdEndpoints lists etcd cluster endpoints as host:port
	EtcdEndpoints []string `yaml:"etcd_endpoints"`

	// EtcdPrefix namespaces every key written by this tool
	EtcdPrefix string `yaml:"etcd_prefix"`

	// EtcdDialTimeout bounds the initial connection, as a duration string
	EtcdDialTimeout string `yaml:"etcd_dial_timeout"`

	// EtcdUsername and EtcdPassword enable etcd authentication
	EtcdUsername string `yaml:"etcd_username"`
	EtcdPassword string `yaml:"etcd_password"`

	// EtcdTLS points at certificate material for the etcd connection
	EtcdTLS *TLSSettings `yaml:"etcd_tls"`

	// Retention drops snapshots older than this duration string. Empty
	// keeps everything.
	Retention string `yaml:"retention"`
}

// TLSSettings points at TLS certificate files
type TLSSettings struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`
}

// WatchSettings configures which files arca-confd observes
type WatchSettings struct {
	// Files lists the INI settings files to watch
	Files []string `yaml:"files"`

	// Debounce coalesces bursts of change events, as a duration string
	Debounce string `yaml:"debounce"`

	// PollInterval drives the fallback poller used when inotify is
	// unavailable
	PollInterval string `yaml:"poll_interval"`
}

// Default returns settings with every optional field at its default
func Default() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}

// applyDefaults fills unset fields in place
func (s *Settings) applyDefaults() {
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.Archive.Backend == "" {
		s.Archive.Backend = string(archive.BackendSQLite)
	}
	if s.Archive.SQLitePath == "" {
		s.Archive.SQLitePath = "/var/lib/arca-conf/archive.db"
	}
	if s.Archive.EtcdPrefix == "" {
		s.Archive.EtcdPrefix = "/arca-conf/"
	}
	if s.Archive.EtcdDialTimeout == "" {
		s.Archive.EtcdDialTimeout = "5s"
	}
	if s.Watch.Debounce == "" {
		s.Watch.Debounce = "500ms"
	}
	if s.Watch.PollInterval == "" {
		s.Watch.PollInterval = "30s"
	}
}

// Validate performs comprehensive validation of the settings
func (s *Settings) Validate() error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s (expected debug, info, warn or error)", s.LogLevel)
	}

	if err := s.Archive.validate(); err != nil {
		return err
	}
	return s.Watch.validate()
}

func (a *ArchiveSettings) validate() error {
	switch archive.BackendType(a.Backend) {
	case archive.BackendSQLite:
		if a.SQLitePath == "" {
			return fmt.Errorf("archive.sqlite_path is required for the sqlite backend")
		}
	case archive.BackendEtcd:
		if len(a.EtcdEndpoints) == 0 {
			return fmt.Errorf("archive.etcd_endpoints is required for the etcd backend")
		}
		for i, ep := range a.EtcdEndpoints {
			if _, _, err := net.SplitHostPort(ep); err != nil {
				return fmt.Errorf("archive.etcd_endpoints[%d]: invalid endpoint %q (expected host:port)", i, ep)
			}
		}
	default:
		return fmt.Errorf("invalid archive.backend: %s (expected sqlite or etcd)", a.Backend)
	}

	if _, err := time.ParseDuration(a.EtcdDialTimeout); err != nil {
		return fmt.Errorf("invalid archive.etcd_dial_timeout: %s", a.EtcdDialTimeout)
	}
	if a.Retention != "" {
		if _, err := time.ParseDuration(a.Retention); err != nil {
			return fmt.Errorf("invalid archive.retention: %s", a.Retention)
		}
	}
	return nil
}

func (w *WatchSettings) validate() error {
	for i, path := range w.Files {
		if path == "" {
			return fmt.Errorf("watch.files[%d] is empty", i)
		}
	}
	if _, err := time.ParseDuration(w.Debounce); err != nil {
		return fmt.Errorf("invalid watch.debounce: %s", w.Debounce)
	}
	if _, err := time.ParseDuration(w.PollInterval); err != nil {
		return fmt.Errorf("invalid watch.poll_interval: %s", w.PollInterval)
	}
	return nil
}

// ArchiveConfig converts the validated settings to an archive backend
// configuration
func (s *Settings) ArchiveConfig() (*archive.Config, error) {
	dialTimeout, err := time.ParseDuration(s.Archive.EtcdDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid archive.etcd_dial_timeout: %w", err)
	}

	var retention time.Duration
	if s.Archive.Retention != "" {
		retention, err = time.ParseDuration(s.Archive.Retention)
		if err != nil {
			return nil, fmt.Errorf("invalid archive.retention: %w", err)
		}
	}

	cfg := &archive.Config{
		Backend:         archive.BackendType(s.Archive.Backend),
		SQLitePath:      s.Archive.SQLitePath,
		EtcdEndpoints:   s.Archive.EtcdEndpoints,
		EtcdPrefix:      s.Archive.EtcdPrefix,
		EtcdDialTimeout: dialTimeout,
		EtcdUsername:    s.Archive.EtcdUsername,
		EtcdPassword:    s.Archive.EtcdPassword,
		Retention:       retention,
	}
	if s.Archive.EtcdTLS != nil {
		cfg.EtcdTLS = &archive.TLSConfig{
			CertFile: s.Archive.EtcdTLS.CertFile,
			KeyFile:  s.Archive.EtcdTLS.KeyFile,
			CAFile:   s.Archive.EtcdTLS.CAFile,
		}
	}
	return cfg, nil
}

// DebounceInterval returns the parsed watch debounce
func (s *Settings) DebounceInterval() time.Duration {
	d, err := time.ParseDuration(s.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// PollInterval returns the parsed fallback poll interval
func (s *Settings) PollInterval() time.Duration {
	d, err := time.ParseDuration(s.Watch.PollInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
