package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/tupyy/hello-web-server/pkg/threadpool"
)

// Submitter accepts one job per connection.
type Submitter interface {
	Submit(job threadpool.Job)
}

type Server struct {
	pool     Submitter
	handler  *Handler
	maxConns int
	log      *zap.SugaredLogger
}

// New creates a server. A maxConns of 0 accepts connections until the context is cancelled.
func New(pool Submitter, handler *Handler, maxConns int) *Server {
	return &Server{
		pool:     pool,
		handler:  handler,
		maxConns: maxConns,
		log:      zap.S().Named("server"),
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and hands each one to the pool. It returns
// nil when ctx is cancelled or the connection limit is reached. Transient
// accept errors are retried with exponential backoff.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	s.log.Infow("listening", "address", ln.Addr().String(), "max_connections", s.maxConns)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = time.Second

	accepted := 0
	for s.maxConns == 0 || accepted < s.maxConns {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("listener closed: %w", err)
			}
			if isTransient(err) {
				delay := b.NextBackOff()
				s.log.Warnw("accept failed; retrying", "error", err, "delay", delay)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
				continue
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}
		b.Reset()
		accepted++

		s.pool.Submit(func() {
			s.handler.Handle(conn)
		})
	}

	s.log.Infow("connection limit reached; no longer accepting", "accepted", accepted)
	return nil
}

// isTransient reports whether an accept error is worth retrying, such as
// EMFILE or ECONNABORTED.
func isTransient(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var errno syscall.Errno
	return errors.As(err, &errno)
}
