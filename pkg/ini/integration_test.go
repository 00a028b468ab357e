package ini

import (
	"testing"
)

func TestIntegration_ReadExampleSettings(t *testing.T) {
	store, err := Read("../../examples/settings.ini")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	// Top-of-file key lands in the default section
	if got := store.Get("", "log_level"); got != "info" {
		t.Errorf("log_level = %q, want %q", got, "info")
	}

	// Server section
	if got := store.Get("server", "listen"); got != "0.0.0.0:8443" {
		t.Errorf("server.listen = %q, want %q", got, "0.0.0.0:8443")
	}
	if got := store.Get("server", "workers"); got != "8" {
		t.Errorf("server.workers = %q, want %q", got, "8")
	}
	if got := store.Get("server", "idle_timeout"); got != "90s" {
		t.Errorf("server.idle_timeout = %q, want %q", got, "90s")
	}

	// Database section
	if got := store.Get("database", "host"); got != "db01.internal" {
		t.Errorf("database.host = %q, want %q", got, "db01.internal")
	}
	if got := store.Get("database", "port"); got != "5432" {
		t.Errorf("database.port = %q, want %q", got, "5432")
	}

	// Inline comment after the value must not leak into it
	if got := store.Get("cache", "ttl"); got != "300" {
		t.Errorf("cache.ttl = %q, want %q", got, "300")
	}

	// Assignment with no value stores the empty string
	value, ok := store.Lookup("features", "beta_exports")
	if !ok {
		t.Fatal("features.beta_exports not stored")
	}
	if value != "" {
		t.Errorf("features.beta_exports = %q, want empty", value)
	}

	sections := store.Sections()
	if len(sections) != 5 {
		t.Errorf("section count = %d, want 5 (%v)", len(sections), sections)
	}
	if store.Len() != 14 {
		t.Errorf("key count = %d, want 14", store.Len())
	}
}
