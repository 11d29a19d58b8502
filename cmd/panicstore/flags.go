package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	Validate        bool
}

func parseFlags(args []string, stderr io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("PANICSTORE_CONFIG", ""),
		"Path to a YAML or JSON configuration file (env: PANICSTORE_CONFIG)")
	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("PANICSTORE_CONFIG", ""),
		"Path to a YAML or JSON configuration file (env: PANICSTORE_CONFIG)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("PANICSTORE_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error; overrides log.level (env: PANICSTORE_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("PANICSTORE_LOG_FORMAT", ""),
		"Log format: json, text; overrides log.format (env: PANICSTORE_LOG_FORMAT)")

	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("PANICSTORE_SHUTDOWN_TIMEOUT", 15*time.Second),
		"Graceful shutdown timeout (env: PANICSTORE_SHUTDOWN_TIMEOUT)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() { printDetailedHelp(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, validateFlags(cfg)
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion {
		return nil
	}
	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}
	if cfg.LogLevel != "" && !contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "" && !contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %v", cfg.ShutdownTimeout)
	}
	return nil
}

func printDetailedHelp(fs *flag.FlagSet, w io.Writer) {
	_, _ = fmt.Fprintf(w, `%s - dashboard data API over Redis

Usage: %s [options]

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Environment:
  REDIS_IP, REDIS_PORT, REDIS_DB, REDIS_PASSWORD   store connection
  UI_DASHBOARD_PORT                                API port (default 9000)
  PANICSTORE_METRICS_PORT                          metrics port (default 9090)

Examples:
  %s --config=/etc/panicstore/config.yaml
  REDIS_IP=10.0.0.5 %s --log-level=debug --log-format=text
  %s --validate -c config.yaml

Version: %s
Build: %s
`, appName, appName, appName, Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
