package archive

import (
	"fmt"
)

// NewArchive creates a new archive based on the provided configuration.
// It automatically selects the appropriate backend (SQLite or etcd) based on cfg.Backend.
//
// Example usage:
//
//	cfg := &archive.Config{
//	    Backend: archive.BackendSQLite,
//	    SQLitePath: "/var/lib/arca-conf/archive.db",
//	}
//	arc, err := archive.NewArchive(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer arc.Close()
func NewArchive(cfg *Config) (Archive, error) {
	if cfg == nil {
		return nil, fmt.Errorf("archive config cannot be nil")
	}

	switch cfg.Backend {
	case BackendSQLite:
		return NewSQLiteArchive(cfg)

	case BackendEtcd:
		return NewEtcdArchive(cfg)

	default:
		return nil, fmt.Errorf("unsupported archive backend: %s", cfg.Backend)
	}
}
