package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodePrivilegeRequired    = "PRIVILEGE_REQUIRED"
	ErrCodeOSUnsupported        = "OS_UNSUPPORTED"
	ErrCodeNetworkUnreachable   = "NETWORK_UNREACHABLE"
	ErrCodeEngineTooOld         = "ENGINE_TOO_OLD"
	ErrCodeManifestMissing      = "MANIFEST_MISSING"
	ErrCodePlaybookMissing      = "PLAYBOOK_MISSING"
	ErrCodeInventoryMissing     = "INVENTORY_MISSING"
	ErrCodePackageInstallFailed = "PACKAGE_INSTALL_FAILED"
	ErrCodeCollectionInstall    = "COLLECTION_INSTALL_FAILED"
	ErrCodeDelegateFailed       = "DELEGATE_FAILED"
	ErrCodeConfigParse          = "CONFIG_PARSE"
)

// UserError represents a user-facing error with an actionable suggestion.
type UserError struct {
	Code       string // Error code for categorization (e.g., "ENGINE_TOO_OLD")
	Message    string // User-friendly error message
	Context    string // File path or other location context
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *UserError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, " (at %s)", e.Context)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain support.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *UserError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	return b.String()
}

// NewUserError creates a new UserError with the given code and message.
func NewUserError(code, message string) *UserError {
	return &UserError{
		Code:    code,
		Message: message,
	}
}

// WithContext returns a copy of the error with context set.
func (e *UserError) WithContext(ctx string) *UserError {
	clone := *e
	clone.Context = ctx
	return &clone
}

// WithSuggestion returns a copy of the error with suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	clone := *e
	clone.Suggestion = suggestion
	return &clone
}

// WithUnderlying returns a copy of the error wrapping another error.
func (e *UserError) WithUnderlying(err error) *UserError {
	clone := *e
	clone.Underlying = err
	return &clone
}

// IsUserError checks if an error is a UserError with a specific code.
func IsUserError(err error, code string) bool {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// GetUserError extracts a UserError from an error chain, if present.
func GetUserError(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}
