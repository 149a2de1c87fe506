package ot

import (
	"errors"
	"fmt"
)

// Errors returned when reading or assembling fonts.
var (
	ErrNoTables   = errors.New("font has no tables")
	ErrNoSuchFile = errors.New("cannot read font file")
)

// ErrorSeverity represents the severity level of a font error.
type ErrorSeverity int

const (
	// SeverityCritical indicates a severe error that makes the font unusable or unreliable.
	SeverityCritical ErrorSeverity = iota
	// SeverityMajor indicates a significant error that may affect functionality but doesn't prevent usage.
	SeverityMajor
	// SeverityMinor indicates a minor issue that can be safely ignored in most cases.
	SeverityMinor
)

// String returns a human-readable representation of the error severity.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	default:
		return "UNKNOWN"
	}
}

// FontError represents an error in the structure of a font file.
type FontError struct {
	Table    Tag           // The table where the error occurred, 0 for the table directory
	Section  string        // Specific section within the table (e.g., "directory", "record")
	Issue    string        // Human-readable description of the issue
	Severity ErrorSeverity // Severity level of the error
	Offset   uint32        // Byte offset in the font file where the error occurred (0 if unknown)
}

// Error implements the error interface.
func (e FontError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("[%s] %s/%s at offset %d: %s", e.Severity, e.Table, e.Section, e.Offset, e.Issue)
	}
	return fmt.Sprintf("[%s] %s/%s: %s", e.Severity, e.Table, e.Section, e.Issue)
}

// FontWarning represents an issue encountered when opening a font which does
// not keep the font from being used. A table checksum mismatch is minor, a
// wrong checksum adjustment of the whole font is major.
type FontWarning struct {
	Table    Tag           // The table the warning refers to
	Issue    string        // Human-readable description of the warning
	Severity ErrorSeverity // SeverityMajor or SeverityMinor
	Offset   uint32        // Byte offset in the font file where the warning occurred (0 if unknown)
}

// String returns a human-readable representation of the warning.
func (w FontWarning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("[%s] %s at offset %d: %s", w.Severity, w.Table, w.Offset, w.Issue)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Severity, w.Table, w.Issue)
}
