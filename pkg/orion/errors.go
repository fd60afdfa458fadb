package orion

import "fmt"

// UnreachableError reports a transport-level failure: the upstream API
// could not be reached at all (connection refused, DNS, timeout). Never
// retried automatically.
type UnreachableError struct {
	URL string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("orion api unreachable at %s: %v", e.URL, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// RejectedError reports an upstream 4xx/5xx. Status carries the original
// HTTP status; Body holds a truncated response body for diagnostics.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("orion api returned status %d: %s", e.Status, e.Body)
}

// BadResponseError reports a 2xx response whose body was not the JSON
// shape the call expected.
type BadResponseError struct {
	Err error
}

func (e *BadResponseError) Error() string {
	return fmt.Sprintf("orion api returned malformed response: %v", e.Err)
}

func (e *BadResponseError) Unwrap() error {
	return e.Err
}
