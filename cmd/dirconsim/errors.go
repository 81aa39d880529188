package main

import "errors"

// Command-level errors.
var (
	// ErrInvalidFlag indicates a flag value failed validation.
	ErrInvalidFlag = errors.New("invalid flag value")
)

// FormatUserError returns the one-line message printed to stderr for
// err (mirrors the teacher's cmd/blim/main.go top-level error-printing
// convention). The text of err is returned unchanged; nothing is
// stripped from it.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
