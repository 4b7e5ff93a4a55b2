package threadpool

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidSize = errors.New("thread pool size must be positive")
	ErrPoolClosed  = errors.New("thread pool is closed")
	ErrNilJob      = errors.New("job must not be nil")
	ErrJobPanicked = errors.New("job panicked")
)

// JobPanicError is reported when a job panics.
type JobPanicError struct {
	JobID uuid.UUID
	Value any
	Stack []byte
}

func NewJobPanicError(id uuid.UUID, value any, stack []byte) *JobPanicError {
	return &JobPanicError{JobID: id, Value: value, Stack: stack}
}

func (e *JobPanicError) Error() string {
	return fmt.Sprintf("job %s panicked: %v", e.JobID, e.Value)
}

func (e *JobPanicError) Unwrap() error {
	return ErrJobPanicked
}

func IsJobPanicError(err error) bool {
	var e *JobPanicError
	return errors.As(err, &e)
}
