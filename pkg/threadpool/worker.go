package threadpool

import (
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

type worker struct {
	id   int
	pool *ThreadPool
	done chan struct{}
	log  *zap.SugaredLogger
}

func newWorker(id int, p *ThreadPool) *worker {
	return &worker{
		id:   id,
		pool: p,
		done: make(chan struct{}),
		log:  p.log.With("worker", id),
	}
}

func (w *worker) run(started chan<- struct{}) {
	w.pool.alive.Add(1)
	w.pool.metrics.workerUp()
	defer func() {
		w.pool.alive.Add(-1)
		w.pool.metrics.workerDown()
		close(w.done)
	}()
	started <- struct{}{}

	for {
		m := w.pool.queue.Take()
		switch m.kind {
		case messageExecute:
			w.log.Debugw("worker got a job; executing", "job_id", m.id)
			if !w.execute(m) {
				w.log.Errorw("worker exiting after job panic; pool capacity reduced",
					"job_id", m.id, "alive", w.pool.alive.Load()-1, "size", len(w.pool.workers))
				return
			}
		case messageTerminate:
			w.log.Debug("worker was told to terminate")
			return
		default:
			w.log.Errorw("worker received unknown message; exiting, pool capacity reduced",
				"kind", m.kind.String(), "alive", w.pool.alive.Load()-1, "size", len(w.pool.workers))
			return
		}
	}
}

// execute runs the job of m and reports whether the worker should keep running.
func (w *worker) execute(m message) (keep bool) {
	start := time.Now()
	w.pool.metrics.started(start.Sub(m.enqueued))

	r := Result{JobID: m.id}
	keep = true
	defer func() {
		if rec := recover(); rec != nil {
			r.Err = NewJobPanicError(m.id, rec, debug.Stack())
			w.log.Errorw("job panicked", "job_id", m.id, "panic", rec)
			keep = w.pool.policy != PanicPolicyExitWorker
		} else if r.Err != nil {
			w.log.Debugw("job failed", "job_id", m.id, "error", r.Err)
		}
		r.Duration = time.Since(start)
		w.pool.complete(m, r)
	}()

	r.Err = m.fn()
	return keep
}

// join blocks until the worker loop has returned.
func (w *worker) join() {
	<-w.done
}
