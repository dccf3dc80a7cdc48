package notifications

import "errors"

// RetryableError marks a delivery failure worth retrying, such as a
// connection refused or a 4xx SMTP greeting. Wrapping an error in it tells
// the worker to reschedule instead of marking the notification failed.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is marked retryable.
func IsRetryable(err error) bool {
	var r *RetryableError
	return errors.As(err, &r)
}
