package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyEmbedding is returned when the service answers without a vector.
	ErrEmptyEmbedding = errors.New("embedding service returned no vector")

	// ErrUnauthorized marks credential failures; no request can succeed after one.
	ErrUnauthorized = errors.New("embedding service rejected credentials")
)

// ServiceError reports a failed call to the embedding service.
// Network failures, quota exhaustion and rejected input are all ServiceErrors.
type ServiceError struct {
	Op    string // Operation, e.g. "embed"
	Code  string // Provider error classification, may be empty
	Err   error
	Fatal bool // True when retrying with the same configuration cannot succeed
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("embedding service %s (%s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("embedding service %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is a ServiceError that should abort a run.
func IsFatal(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Fatal
}
