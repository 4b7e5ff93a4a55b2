package threadpool

import (
	"time"

	"github.com/google/uuid"
)

// Job is a unit of work. It is invoked exactly once, on exactly one worker.
type Job func()

type messageKind int

const (
	messageExecute messageKind = iota
	messageTerminate
)

func (k messageKind) String() string {
	switch k {
	case messageExecute:
		return "execute"
	case messageTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

type message struct {
	kind     messageKind
	id       uuid.UUID
	fn       func() error
	future   *Future
	enqueued time.Time
}

// Result is the outcome of one job.
type Result struct {
	JobID    uuid.UUID
	Err      error
	Duration time.Duration
}

// Future represents the pending result of work submitted with Execute.
type Future struct {
	id uuid.UUID
	c  chan Result
}

func newFuture(id uuid.UUID) *Future {
	return &Future{id: id, c: make(chan Result, 1)}
}

// ID returns the job id of the work backing the future.
func (f *Future) ID() uuid.UUID {
	return f.id
}

// C returns a channel that receives exactly one Result.
func (f *Future) C() <-chan Result {
	return f.c
}

// Wait blocks until the job has run and returns its Result.
func (f *Future) Wait() Result {
	return <-f.c
}

// PanicPolicy decides what a worker does after a job panics.
type PanicPolicy string

const (
	// PanicPolicyContain converts the panic into a per-job error and keeps the worker.
	PanicPolicyContain PanicPolicy = "contain"
	// PanicPolicyExitWorker stops the worker that ran the job, shrinking the pool.
	PanicPolicyExitWorker PanicPolicy = "exit-worker"
)

// Stats is a point-in-time snapshot of the pool.
type Stats struct {
	Size      int    `json:"size"`
	Alive     int    `json:"alive"`
	Queued    int    `json:"queued"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
}
