// Package config defines the configuration structure for the hello-web-server.
//
// Configuration is organized into logical sections (Server, Pool, Admin). Defaults
// come from `default` struct tags (creasty/defaults) and constraints from
// `validate` tags (go-playground/validator).
//
// # Configuration Structure
//
//	Configuration
//	├── Server         - TCP listener and response settings
//	├── Pool           - Worker pool settings
//	├── Admin          - Metrics and status HTTP endpoint
//	├── LogFormat      - Logging format
//	└── LogLevel       - Logging verbosity
//
// # Server Configuration
//
//	┌──────────────────┬──────────────────┬────────────────────────────────────────┐
//	│ Field            │ Default          │ Description                            │
//	├──────────────────┼──────────────────┼────────────────────────────────────────┤
//	│ Address          │ "127.0.0.1:7878" │ TCP listen address                     │
//	│ AssetsFolder     │ ""               │ Folder with hello.html and 404.html    │
//	│ SleepDuration    │ 5s               │ Delay applied to GET /sleep            │
//	│ ReadTimeout      │ 10s              │ Deadline for reading the request       │
//	│ MaxConnections   │ 0                │ Stop after N connections (0: no limit) │
//	└──────────────────┴──────────────────┴────────────────────────────────────────┘
//
// When AssetsFolder is empty the embedded default pages are served.
//
// # Pool Configuration
//
//	┌──────────────┬───────────┬────────────────────────────────────────────┐
//	│ Field        │ Default   │ Description                                │
//	├──────────────┼───────────┼────────────────────────────────────────────┤
//	│ Workers      │ 4         │ Number of pool workers (must be >= 1)      │
//	│ PanicPolicy  │ "contain" │ "contain" or "exit-worker"                 │
//	└──────────────┴───────────┴────────────────────────────────────────────┘
//
// # Admin Configuration
//
//	┌─────────┬──────────────────┬────────────────────────────────────────┐
//	│ Field   │ Default          │ Description                            │
//	├─────────┼──────────────────┼────────────────────────────────────────┤
//	│ Enabled │ false            │ Start the admin HTTP server            │
//	│ Address │ "127.0.0.1:9090" │ Admin listen address                   │
//	└─────────┴──────────────────┴────────────────────────────────────────┘
//
// # Loading
//
// Load decodes everything a viper instance knows about (flags, HELLO_* environment
// variables, config file) on top of the defaults, then validates the result:
//
//	v := viper.New()
//	v.SetEnvPrefix("HELLO")
//	v.AutomaticEnv()
//	cfg, err := config.Load(v)
//
// # Debug Logging
//
//	log.Info("configuration loaded", zap.Any("config", cfg.DebugMap()))
package config
