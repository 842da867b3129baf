package storage

import "fmt"

// StatusError is returned when the records API answers with an unexpected
// HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.Code, e.Body)
}
