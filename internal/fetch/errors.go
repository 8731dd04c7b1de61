package fetch

import "fmt"

// Error is a fetch that failed after exhausting its retry budget. StatusCode
// is the last proxy status observed, zero when the failure was at the
// transport level.
type Error struct {
	URL        string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed after %d attempts (last status %d): %v",
			e.URL, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
