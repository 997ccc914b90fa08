package extract

import (
	"context"
	"errors"

	"github.com/dgallion1/specgest/internal/parser"
)

// Failure kinds surfaced to callers. Heuristic misses inside a table are
// never errors; they only leave fields empty.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidArchive      = errors.New("invalid archive")
	ErrNoSectionFragments  = errors.New("no section fragments")
	ErrNoRequirementsFound = errors.New("no requirements found")
)

// Error kinds returned by Kind.
const (
	KindInvalidInput      = "invalid_input"
	KindInvalidArchive    = "invalid_archive"
	KindNoSections        = "no_sections"
	KindNoRequirements    = "no_requirements"
	KindMalformedDocument = "malformed_document"
	KindCanceled          = "canceled"
	KindInternal          = "internal"
)

// Kind classifies err into a stable string for transports and metrics.
// A nil error yields "ok".
func Kind(err error) string {
	var mde *parser.MalformedDocumentError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrInvalidArchive):
		return KindInvalidArchive
	case errors.Is(err, ErrNoSectionFragments):
		return KindNoSections
	case errors.Is(err, ErrNoRequirementsFound):
		return KindNoRequirements
	case errors.As(err, &mde):
		return KindMalformedDocument
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	return KindInternal
}
