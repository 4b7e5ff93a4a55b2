package threadpool

import "go.uber.org/zap"

type Option func(p *ThreadPool)

// WithLogger sets the logger used by the pool and its workers.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *ThreadPool) {
		if l != nil {
			p.log = l
		}
	}
}

// WithPanicPolicy sets what a worker does after a job panics.
func WithPanicPolicy(policy PanicPolicy) Option {
	return func(p *ThreadPool) {
		p.policy = policy
	}
}

// WithMetrics makes the pool record its activity on m.
func WithMetrics(m *Metrics) Option {
	return func(p *ThreadPool) {
		p.metrics = m
	}
}

// WithFailureHandler registers fn to be called, on the worker goroutine,
// with the Result of every job that returned an error or panicked. A panic
// raised by fn is recovered and logged.
func WithFailureHandler(fn func(Result)) Option {
	return func(p *ThreadPool) {
		p.onFailure = fn
	}
}
