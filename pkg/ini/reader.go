// Package ini reads the narrow INI dialect used for application settings
// files: '[section]' headers, 'key = value' assignments and ';' comments,
// one statement per line. Parsed values land in a Store keyed by section
// and key.
package ini

import (
	"os"

	"github.com/akam1o/arca-conf/pkg/errors"
)

// Read parses the configuration file at path into a fresh store. The
// file is closed on every return path. Missing files, unreadable files
// and grammar faults come back as coded errors; the structured
// SyntaxError stays reachable through errors.As.
func Read(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.ConfigReadError(path, err)
	}
	defer f.Close()

	store := NewStore()
	if err := NewParser(f, path).ParseInto(store); err != nil {
		var synErr *SyntaxError
		if errors.As(err, &synErr) {
			return nil, errors.ConfigSyntaxError(path, err)
		}
		return nil, err
	}
	return store, nil
}
