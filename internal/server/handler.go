package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/tupyy/hello-web-server/internal/content"
)

const requestBufferSize = 512

const (
	statusOK          = "HTTP/1.1 200 OK\r\n\r\n"
	statusNotFound    = "HTTP/1.1 404 NOT FOUND\r\n\r\n"
	statusServerError = "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n\r\n"
)

var (
	routeIndex = []byte("GET / HTTP/1.1\r\n")
	routeSleep = []byte("GET /sleep HTTP/1.1\r\n")
)

// Handler answers one connection. It is meant to run as a pool job.
type Handler struct {
	source      content.Source
	sleep       time.Duration
	readTimeout time.Duration
	log         *zap.SugaredLogger
}

func NewHandler(source content.Source, sleep, readTimeout time.Duration) *Handler {
	return &Handler{
		source:      source,
		sleep:       sleep,
		readTimeout: readTimeout,
		log:         zap.S().Named("handler"),
	}
}

// Handle reads the request from conn, writes the response and closes conn.
func (h *Handler) Handle(conn net.Conn) {
	defer conn.Close()

	if h.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}

	buf := make([]byte, requestBufferSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		h.log.Warnw("failed to read request", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}

	resp, err := h.Respond(buf[:n])
	if err != nil {
		h.log.Errorw("failed to build response", "remote", conn.RemoteAddr().String(), "error", err)
		resp = []byte(statusServerError)
	}

	if _, err := conn.Write(resp); err != nil {
		h.log.Warnw("failed to write response", "remote", conn.RemoteAddr().String(), "error", err)
	}
}

// Respond builds the raw response for the raw request bytes.
func (h *Handler) Respond(req []byte) ([]byte, error) {
	var status, page string
	switch {
	case bytes.HasPrefix(req, routeIndex):
		status, page = statusOK, content.HelloPage
	case bytes.HasPrefix(req, routeSleep):
		time.Sleep(h.sleep)
		status, page = statusOK, content.HelloPage
	default:
		status, page = statusNotFound, content.NotFoundPage
	}

	body, err := h.source.Body(page)
	if err != nil {
		return nil, fmt.Errorf("failed to load body: %w", err)
	}
	return []byte(status + body), nil
}
