package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFile is returned for files whose extension is not accepted
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrExtractionFailed is the root of every ExtractionFailure
	ErrExtractionFailed = errors.New("extraction failed")
)

// ExtractionFailure means no record could be produced for a file. It is never
// paired with a partial record.
type ExtractionFailure struct {
	Filename    string
	RawResponse string
	Cause       error
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Filename, e.Cause)
}

// Unwrap exposes both the sentinel and the cause to errors.Is
func (e *ExtractionFailure) Unwrap() []error {
	return []error{ErrExtractionFailed, e.Cause}
}
