package settings

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/akam1o/arca-conf/pkg/errors"
	"github.com/akam1o/arca-conf/pkg/logger"
)

// Load reads and validates tool settings from a YAML file
// Note: This function logs diagnostic information if a logger is provided
func Load(path string, log *logger.Logger) (*Settings, error) {
	if log != nil {
		log.Debug("Loading settings", slog.String("path", path))
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.SettingsNotFound(path)
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(
			err,
			errors.ErrCodePermissionDenied,
			fmt.Sprintf("Failed to read settings file: %s", path),
			"Permission denied or file is not readable",
			"Check file permissions with 'ls -l' and ensure the file is readable",
		)
	}

	// Parse YAML with strict mode to detect unknown fields (typo detection)
	var s Settings
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&s); err != nil && err != io.EOF {
		return nil, errors.SettingsParseError(path, err)
	}

	s.applyDefaults()

	// Validate settings
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(
			err,
			errors.ErrCodeSettingsValidation,
			"Settings validation failed",
			"The settings file contains invalid values",
			"Review the error details and fix the settings file",
		)
	}

	if log != nil {
		log.Info("Settings loaded successfully",
			slog.String("backend", s.Archive.Backend),
			slog.Int("watch_files", len(s.Watch.Files)),
		)
	}

	return &s, nil
}
