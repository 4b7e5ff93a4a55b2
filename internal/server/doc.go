// Package server provides the TCP server of the hello-web-server.
//
// The server owns no goroutines of its own beyond the accept loop: every
// accepted connection becomes one job submitted to the worker pool.
//
// # Architecture Overview
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         TCP Server                            │
//	├───────────────────────────────────────────────────────────────┤
//	│   Accept loop (Serve)                                         │
//	│     │  one job per connection                                 │
//	│     ▼                                                         │
//	│   threadpool.ThreadPool.Submit(job)                           │
//	│     │                                                         │
//	│     ▼                                                         │
//	│   Handler.Handle(conn)  (runs on a pool worker)               │
//	│     ├── read up to 512 bytes                                  │
//	│     ├── route on the request line                             │
//	│     └── write status line + body from content.Source          │
//	└───────────────────────────────────────────────────────────────┘
//
// # Routes
//
//	┌───────────────────────┬────────────────────┬──────────────┐
//	│ Request line prefix   │ Status             │ Body         │
//	├───────────────────────┼────────────────────┼──────────────┤
//	│ GET / HTTP/1.1        │ 200 OK             │ hello.html   │
//	│ GET /sleep HTTP/1.1   │ 200 OK (delayed)   │ hello.html   │
//	│ anything else         │ 404 NOT FOUND      │ 404.html     │
//	└───────────────────────┴────────────────────┴──────────────┘
//
// A body that cannot be loaded is answered with 500 INTERNAL SERVER ERROR.
//
// # Server Lifecycle
//
//	srv := server.New(pool, server.NewHandler(content.Default(), 5*time.Second, 10*time.Second), 0)
//	err := srv.ListenAndServe(ctx, "127.0.0.1:7878")
//
// Serve returns nil when ctx is cancelled or when the connection limit is
// reached. Transient accept errors (EMFILE, ECONNABORTED, ...) are retried
// with exponential backoff; a closed listener or any other error is returned.
// Connections already handed to the pool are finished by the pool, so callers
// close the pool after Serve returns.
package server
