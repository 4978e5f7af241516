package config

import "time"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:              "~/.config/dnslens",
			SQLiteFile:        "dnslens.db",
			SQLiteJournalMode: "wal",
			BusyTimeoutMS:     5000,
			MaxOpenConns:      4,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            5000,
			MaxRequestSize:  10485760,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigin:      "*",
		},
		Logging: LoggingConfig{
			Level:   "info",
			File:    "dnslens.log",
			Format:  "text",
			Console: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
