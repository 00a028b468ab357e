package errors

import (
	"errors"
	"fmt"
)

// Error represents an arca-conf error with context
type Error struct {
	// Code is the error code (e.g., "CONFIG_SYNTAX_ERROR")
	Code string
	// Message is the human-readable error message
	Message string
	// Cause describes why the error occurred
	Cause string
	// Action suggests what the user should do
	Action string
	// Underlying is the wrapped error
	Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates a new Error
func New(code, message, cause, action string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Action:  action,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code, message, cause, action string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Cause:      cause,
		Action:     action,
		Underlying: err,
	}
}

// Common error codes
const (
	// Configuration file errors
	ErrCodeConfigNotFound = "CONFIG_NOT_FOUND"
	ErrCodeConfigSyntax   = "CONFIG_SYNTAX_ERROR"
	ErrCodeConfigRead     = "CONFIG_READ_ERROR"

	// Tool settings errors
	ErrCodeSettingsNotFound   = "SETTINGS_NOT_FOUND"
	ErrCodeSettingsParseError = "SETTINGS_PARSE_ERROR"
	ErrCodeSettingsValidation = "SETTINGS_VALIDATION_ERROR"

	// System errors
	ErrCodePermissionDenied = "PERMISSION_DENIED"
	ErrCodeSystemError      = "SYSTEM_ERROR"
)

// Common error constructors

// ConfigNotFound creates a config not found error
func ConfigNotFound(path string) *Error {
	return New(
		ErrCodeConfigNotFound,
		fmt.Sprintf("Configuration file not found: %s", path),
		"The specified configuration file does not exist",
		"Check the file path and ensure the configuration file has been created",
	)
}

// ConfigSyntaxError creates a config syntax error
func ConfigSyntaxError(path string, err error) *Error {
	return Wrap(
		err,
		ErrCodeConfigSyntax,
		fmt.Sprintf("Failed to parse configuration file: %s", path),
		"The configuration file does not conform to the INI grammar",
		"Run 'arca-conf check' on the file and fix the reported line",
	)
}

// ConfigReadError creates a config read error
func ConfigReadError(path string, err error) *Error {
	return Wrap(
		err,
		ErrCodeConfigRead,
		fmt.Sprintf("Failed to read configuration file: %s", path),
		"The file exists but could not be read",
		"Check file permissions and that the path is a regular file",
	)
}

// SettingsNotFound creates a settings not found error
func SettingsNotFound(path string) *Error {
	return New(
		ErrCodeSettingsNotFound,
		fmt.Sprintf("Settings file not found: %s", path),
		"The arca-conf settings file does not exist",
		"Create the settings file or pass its location with -settings",
	)
}

// SettingsParseError creates a settings parse error
func SettingsParseError(path string, err error) *Error {
	return Wrap(
		err,
		ErrCodeSettingsParseError,
		fmt.Sprintf("Failed to parse settings file: %s", path),
		"The settings file contains invalid YAML or unknown fields",
		"Review the settings file against the documented schema",
	)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
