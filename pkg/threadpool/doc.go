// Package threadpool implements a fixed-size worker pool fed by one shared queue.
//
// A ThreadPool owns N long-lived workers. Work is submitted with Submit (fire
// and forget) or Execute (returns a Future). Every job runs exactly once on
// exactly one worker. Close stops accepting work, lets the workers drain the
// queue and joins every worker before returning.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                           ThreadPool                                │
//	│                                                                     │
//	│        Submit(job) / Execute(fn)                 Close()            │
//	│                │                                    │               │
//	│                ▼                                    ▼               │
//	│  ┌─────────────────────────────────────────────────────────┐        │
//	│  │                   Shared Queue (FIFO)                   │        │
//	│  │  [exec] [exec] [exec] ... [terminate] x N               │        │
//	│  └─────────────────────────────────────────────────────────┘        │
//	│         │                     │                     │               │
//	│         ▼  Take()             ▼  Take()             ▼  Take()       │
//	│  ┌──────────────┐      ┌──────────────┐      ┌──────────────┐       │
//	│  │   Worker 0   │      │   Worker 1   │      │  Worker N-1  │       │
//	│  └──────────────┘      └──────────────┘      └──────────────┘       │
//	└─────────────────────────────────────────────────────────────────────┘
//
// The queue is unbounded: Submit never waits for a free worker, only for the
// queue mutex. Take blocks on a condition variable until a message is
// available and removes it under the lock, so each message has exactly one
// consumer.
//
// # Worker Lifecycle
//
//	┌───────────┐   execute message   ┌───────────┐
//	│   Idle    │ ──────────────────► │  Running  │
//	│  (Take)   │ ◄────────────────── │           │
//	└─────┬─────┘     job returned    └───────────┘
//	      │
//	      │ terminate message
//	      ▼
//	┌────────────┐
//	│ Terminated │  done channel closed, worker joinable
//	└────────────┘
//
// # Shutdown Protocol
//
// Close performs the shutdown in a fixed order:
//
//  1. Marks the pool closed. Any later Submit or Execute panics with ErrPoolClosed.
//  2. Pushes one terminate message per worker. The messages land behind every
//     job already queued, so the queue drains first.
//  3. Joins workers in index order by waiting on each worker's done channel.
//
// Close is idempotent (uses sync.Once) and never times out. Tie it to the
// pool's lifetime:
//
//	pool := threadpool.New(4)
//	defer pool.Close()
//
// Close must not be called from inside a job: the calling worker would wait
// on itself.
//
// # Panic Handling
//
// Workers always recover panics raised by a job. What happens next depends on
// the PanicPolicy:
//
//   - PanicPolicyContain (default): the panic becomes a *JobPanicError for that
//     job and the worker keeps serving the queue.
//   - PanicPolicyExitWorker: the worker logs the failure and exits, permanently
//     reducing the pool capacity by one. The loss is logged at error level and
//     reflected by Alive() and the workers_alive gauge.
//
// # Misuse
//
// Programmer errors panic rather than return errors:
//
//   - New(0) or a negative size panics with ErrInvalidSize before any worker starts.
//   - Submit or Execute after Close panics with ErrPoolClosed.
//   - Submitting a nil job panics.
//
// # Usage Example
//
//	pool := threadpool.New(4, threadpool.WithLogger(zap.S()))
//	defer pool.Close()
//
//	pool.Submit(func() {
//	    handleConnection(conn)
//	})
//
//	future := pool.Execute(func() error {
//	    return doWork()
//	})
//	if res := future.Wait(); res.Err != nil {
//	    log.Printf("job %s failed: %v", res.JobID, res.Err)
//	}
package threadpool
