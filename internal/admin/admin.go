// Package admin serves the operational HTTP endpoints of the hello-web-server:
// Prometheus metrics, pool statistics and a health probe.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tupyy/hello-web-server/pkg/threadpool"
)

const shutdownTimeout = 5 * time.Second

// StatsProvider reports the state of a worker pool.
type StatsProvider interface {
	Stats() threadpool.Stats
}

type Server struct {
	engine *gin.Engine
	log    *zap.SugaredLogger
}

func New(pool StatsProvider, gatherer prometheus.Gatherer) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(zap.L(), time.RFC3339, true),
		ginzap.RecoveryWithZap(zap.L(), true),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := engine.Group("/api/v1")
	v1.GET("/pool", func(c *gin.Context) {
		stats := pool.Stats()
		if stats.Alive < stats.Size {
			zap.S().Named("admin").Warnw("pool running below capacity", "alive", stats.Alive, "size", stats.Size)
		}
		c.JSON(http.StatusOK, stats)
	})

	return &Server{
		engine: engine,
		log:    zap.S().Named("admin"),
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind admin server to %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("admin server started", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down admin server: %w", err)
	}
	s.log.Info("admin server stopped")
	return nil
}
