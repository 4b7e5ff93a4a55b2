package threadpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ThreadPool is a fixed set of workers consuming jobs from one shared queue.
type ThreadPool struct {
	workers   []*worker
	queue     *queue[message]
	mu        sync.RWMutex
	closing   bool
	once      sync.Once
	alive     atomic.Int64
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	policy    PanicPolicy
	metrics   *Metrics
	onFailure func(Result)
	log       *zap.SugaredLogger
}

// New creates a pool of size workers and returns once all of them are live.
//
// New panics if size is not positive: a pool without workers can never make progress.
func New(size int, opts ...Option) *ThreadPool {
	if size <= 0 {
		panic(fmt.Errorf("%w: got %d", ErrInvalidSize, size))
	}

	p := &ThreadPool{
		workers: make([]*worker, 0, size),
		queue:   newQueue[message](),
		policy:  PanicPolicyContain,
		log:     zap.S().Named("threadpool"),
	}
	for _, opt := range opts {
		opt(p)
	}

	switch p.policy {
	case PanicPolicyContain, PanicPolicyExitWorker:
	default:
		panic(fmt.Errorf("unknown panic policy %q", p.policy))
	}

	started := make(chan struct{}, size)
	for id := range size {
		w := newWorker(id, p)
		p.workers = append(p.workers, w)
		go w.run(started)
	}
	for range size {
		<-started
	}

	p.log.Debugw("thread pool started", "size", size, "panic_policy", p.policy)
	return p
}

// Submit enqueues job for execution by the next idle worker.
// It panics if the pool has been closed.
func (p *ThreadPool) Submit(job Job) {
	if job == nil {
		panic(ErrNilJob)
	}
	p.enqueue(func() error {
		job()
		return nil
	}, nil)
}

// Execute enqueues fn and returns a Future receiving its Result. A panic
// inside fn is reported as a *JobPanicError. It panics if the pool has been closed.
func (p *ThreadPool) Execute(fn func() error) *Future {
	if fn == nil {
		panic(ErrNilJob)
	}
	id := uuid.New()
	f := newFuture(id)
	p.enqueueWithID(id, fn, f)
	return f
}

func (p *ThreadPool) enqueue(fn func() error, f *Future) {
	p.enqueueWithID(uuid.New(), fn, f)
}

func (p *ThreadPool) enqueueWithID(id uuid.UUID, fn func() error, f *Future) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closing {
		panic(fmt.Errorf("%w: job submitted after shutdown", ErrPoolClosed))
	}

	p.queue.Push(message{
		kind:     messageExecute,
		id:       id,
		fn:       fn,
		future:   f,
		enqueued: time.Now(),
	})
	p.submitted.Add(1)
	p.metrics.submitted()
}

// Close stops accepting work, waits for every queued job to run and joins
// all workers in index order. It is safe to call more than once; every call
// returns only after shutdown has completed.
func (p *ThreadPool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closing = true
		p.mu.Unlock()

		p.log.Infow("sending terminate message to workers", "workers", len(p.workers))
		for range p.workers {
			p.queue.Push(message{kind: messageTerminate})
		}

		p.log.Info("shutting down workers")
		for _, w := range p.workers {
			p.log.Debugw("shutting down worker", "worker", w.id)
			w.join()
		}

		// Workers that exited early may leave work or terminate messages behind.
		var left int
		for _, m := range p.queue.Drain() {
			if m.kind != messageExecute {
				continue
			}
			left++
			if m.future != nil {
				m.future.c <- Result{JobID: m.id, Err: fmt.Errorf("%w: no worker left to run job", ErrPoolClosed)}
			}
		}
		if left > 0 {
			p.log.Errorw("thread pool shut down with unexecuted jobs", "jobs", left)
		}

		p.log.Info("thread pool stopped")
	})
}

// Size returns the number of workers the pool was created with.
func (p *ThreadPool) Size() int {
	return len(p.workers)
}

// Alive returns the number of workers currently running their loop.
func (p *ThreadPool) Alive() int {
	return int(p.alive.Load())
}

// Stats returns a point-in-time snapshot of the pool counters.
func (p *ThreadPool) Stats() Stats {
	return Stats{
		Size:      len(p.workers),
		Alive:     p.Alive(),
		Queued:    p.queue.Len(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

func (p *ThreadPool) complete(m message, r Result) {
	p.completed.Add(1)
	failed := r.Err != nil
	if failed {
		p.failed.Add(1)
	}
	p.metrics.finished(r.Duration, failed)

	if m.future != nil {
		m.future.c <- r
	}
	if failed && p.onFailure != nil {
		p.reportFailure(r)
	}
}

// reportFailure runs the failure handler; a panic in the handler is logged and dropped.
func (p *ThreadPool) reportFailure(r Result) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Errorw("failure handler panicked", "job_id", r.JobID, "panic", rec)
		}
	}()
	p.onFailure(r)
}
