package extract

import (
	"errors"
	"fmt"
)

// Error codes recorded on per-page failures.
const (
	CodeMissingImage  = "MISSING_IMAGE"
	CodeTextTooShort  = "TEXT_TOO_SHORT"
	CodeRateLimited   = "RATE_LIMITED"
	CodeExtractFailed = "EXTRACT_FAILED"
)

// TransientError marks a rate-limit-class failure from the extraction
// service. Transient errors are retried with backoff; everything else is
// fatal for the page.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient extraction error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func Transientf(format string, args ...any) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// IsRetryable reports whether err is a rate-limit-class failure.
func IsRetryable(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
