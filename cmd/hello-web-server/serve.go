package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tupyy/hello-web-server/internal/admin"
	"github.com/tupyy/hello-web-server/internal/config"
	"github.com/tupyy/hello-web-server/internal/content"
	"github.com/tupyy/hello-web-server/internal/logger"
	"github.com/tupyy/hello-web-server/internal/server"
	"github.com/tupyy/hello-web-server/pkg/threadpool"
)

const envPrefix = "HELLO"

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"address":         "server.address",
	"assets-folder":   "server.assets-folder",
	"sleep-duration":  "server.sleep-duration",
	"read-timeout":    "server.read-timeout",
	"max-connections": "server.max-connections",
	"workers":         "pool.workers",
	"panic-policy":    "pool.panic-policy",
	"admin":           "admin.enabled",
	"admin-address":   "admin.address",
	"log-format":      "log-format",
	"log-level":       "log-level",
}

func newServeCommand() *cobra.Command {
	var configFile string
	v := viper.New()
	d := config.NewConfigurationWithDefaults()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept connections and answer them on the worker pool",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return setupViper(v, cmd.Flags(), configFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "Path to a configuration file (yaml, json or toml)")
	flags.String("address", d.Server.Address, "TCP address to listen on")
	flags.String("assets-folder", d.Server.AssetsFolder, "Folder holding hello.html and 404.html (embedded pages when empty)")
	flags.Duration("sleep-duration", d.Server.SleepDuration, "Delay applied to GET /sleep")
	flags.Duration("read-timeout", d.Server.ReadTimeout, "Deadline for reading a request")
	flags.Int("max-connections", d.Server.MaxConnections, "Stop accepting after this many connections (0 for no limit)")
	flags.Int("workers", d.Pool.Workers, "Number of pool workers")
	flags.String("panic-policy", d.Pool.PanicPolicy, "What a worker does after a job panics: contain or exit-worker")
	flags.Bool("admin", d.Admin.Enabled, "Start the admin server (metrics and pool status)")
	flags.String("admin-address", d.Admin.Address, "Admin server address")
	flags.String("log-format", d.LogFormat, "Log format: console or json")
	flags.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")

	return cmd
}

func setupViper(v *viper.Viper, flags *pflag.FlagSet, configFile string) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return nil
}

func run(ctx context.Context, cfg *config.Configuration) error {
	restore, err := logger.Setup(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer restore()

	log := zap.S().Named("serve")
	log.Infow("configuration loaded", "config", cfg.DebugMap())

	var source content.Source = content.Default()
	if cfg.Server.AssetsFolder != "" {
		dir, err := content.NewDirSource(cfg.Server.AssetsFolder)
		if err != nil {
			return err
		}
		source = dir
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pool := threadpool.New(cfg.Pool.Workers,
		threadpool.WithLogger(zap.S().Named("threadpool")),
		threadpool.WithPanicPolicy(threadpool.PanicPolicy(cfg.Pool.PanicPolicy)),
		threadpool.WithMetrics(threadpool.NewMetrics("hello", reg)),
		threadpool.WithFailureHandler(func(r threadpool.Result) {
			log.Warnw("connection job failed", "job_id", r.JobID, "error", r.Err)
		}),
	)
	defer pool.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	adminDone := make(chan struct{})
	if cfg.Admin.Enabled {
		go func() {
			defer close(adminDone)
			if err := admin.New(pool, reg).Start(ctx, cfg.Admin.Address); err != nil {
				log.Errorw("admin server failed", "error", err)
			}
		}()
	} else {
		close(adminDone)
	}

	color.New(color.FgGreen, color.Bold).Fprintf(os.Stderr, "hello-web-server %s listening on %s with %d workers\n",
		version, cfg.Server.Address, cfg.Pool.Workers)

	handler := server.NewHandler(source, cfg.Server.SleepDuration, cfg.Server.ReadTimeout)
	serveErr := server.New(pool, handler, cfg.Server.MaxConnections).ListenAndServe(ctx, cfg.Server.Address)

	log.Info("shutting down")
	pool.Close()
	stop()
	<-adminDone

	return serveErr
}
