package relations

import (
	"errors"
	"fmt"
	"strings"
)

const (
	errMessageArchiveOpen          = "archive could not be opened"
	errMessageMissingExpectedEntry = "required archive entry missing"
	errMessageParseFailure         = "archive entry could not be parsed"
	missingEntryHeader             = "Required files not found. Expected:"
	missingEntryFoundHeader        = "Found paths like:"
	missingEntryBullet             = "- "
	// availablePathLimit caps how many archive paths a MissingEntryError lists.
	availablePathLimit = 40

	// FailureKindArchiveOpen labels ErrArchiveOpen failures.
	FailureKindArchiveOpen = "archive_open"
	// FailureKindMissingEntry labels ErrMissingExpectedEntry failures.
	FailureKindMissingEntry = "missing_entry"
	// FailureKindParse labels ErrParseFailure failures.
	FailureKindParse = "parse"
	// FailureKindUnknown labels any other failure.
	FailureKindUnknown = "unknown"
)

var (
	// ErrArchiveOpen indicates the blob is not a readable zip archive.
	ErrArchiveOpen = errors.New(errMessageArchiveOpen)
	// ErrMissingExpectedEntry indicates one or both relationship entries are absent.
	ErrMissingExpectedEntry = errors.New(errMessageMissingExpectedEntry)
	// ErrParseFailure indicates an entry did not contain valid JSON of the expected shape.
	ErrParseFailure = errors.New(errMessageParseFailure)
)

// MissingEntryError describes an archive lacking the followers or following entry.
type MissingEntryError struct {
	ExpectedPaths  []string
	AvailablePaths []string
}

// Error lists the expected paths followed by at most forty paths present in the archive.
func (missingEntryError *MissingEntryError) Error() string {
	var builder strings.Builder
	builder.WriteString(missingEntryHeader)
	for _, expectedPath := range missingEntryError.ExpectedPaths {
		builder.WriteString("\n")
		builder.WriteString(missingEntryBullet)
		builder.WriteString(expectedPath)
	}
	builder.WriteString("\n\n")
	builder.WriteString(missingEntryFoundHeader)
	builder.WriteString("\n")
	builder.WriteString(strings.Join(missingEntryError.listedPaths(), "\n"))
	return builder.String()
}

// Unwrap exposes ErrMissingExpectedEntry for errors.Is.
func (missingEntryError *MissingEntryError) Unwrap() error {
	return ErrMissingExpectedEntry
}

func (missingEntryError *MissingEntryError) listedPaths() []string {
	if len(missingEntryError.AvailablePaths) <= availablePathLimit {
		return missingEntryError.AvailablePaths
	}
	return missingEntryError.AvailablePaths[:availablePathLimit]
}

// FailureKind maps an analysis error to a stable label suitable for metrics and API payloads.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrArchiveOpen):
		return FailureKindArchiveOpen
	case errors.Is(err, ErrMissingExpectedEntry):
		return FailureKindMissingEntry
	case errors.Is(err, ErrParseFailure):
		return FailureKindParse
	default:
		return FailureKindUnknown
	}
}

func newParseError(entryPath string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrParseFailure, entryPath, cause)
}
