// Package config handles connector settings and the table-definition file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dts-connector/internal/service/transfer"
)

// Settings holds the connector's runtime configuration, populated from
// flags by the CLI.
type Settings struct {
	TableConfigPath string // path to the table-definition YAML (positional)

	LocalTmpDir  string // local staging root (default: system temp dir)
	GCSTmpDir    string // staging path, "gs://bucket/prefix"
	GCSOverwrite bool   // overwrite existing staged objects

	RunFile      string // path to a run-descriptor YAML (single-shot testing)
	ProjectID    string // project owning the trigger subscription
	Subscription string // Pub/Sub subscription name
	MaxMessages  int    // flow-control limit for concurrent runs

	RunTimeout     time.Duration // wall-clock limit per run
	UpdateInterval time.Duration // heartbeat interval

	UseDTS       bool    // report to and load via the tracking service
	RateLimitRPS float64 // tracking API requests per second

	LogLevel string // debug, info, warn, error
}

// IsTesting reports whether the connector runs in local testing mode: a run
// file instead of a subscription, or the tracking service disabled.
func (s *Settings) IsTesting() bool {
	return s.RunFile != "" || s.Subscription == "" || !s.UseDTS
}

// SlogLevel maps LogLevel onto an slog.Level.
func (s *Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the settings are internally consistent and applies
// defaults.
func (s *Settings) Validate() error {
	if s.RunTimeout <= 0 {
		s.RunTimeout = transfer.DefaultRunTimeout
	}
	if s.UpdateInterval <= 0 {
		s.UpdateInterval = transfer.DefaultUpdateInterval
	}
	if s.MaxMessages <= 0 {
		s.MaxMessages = 1
	}

	if s.GCSTmpDir == "" {
		return fmt.Errorf("--gcs-tmpdir is required")
	}
	if !strings.HasPrefix(s.GCSTmpDir, "gs://") {
		return fmt.Errorf("--gcs-tmpdir must be a gs:// URI, got %q", s.GCSTmpDir)
	}
	if s.RunFile == "" && s.Subscription == "" {
		return fmt.Errorf("one of --run-file or --subscription is required")
	}
	if s.RunFile != "" && s.Subscription != "" {
		return fmt.Errorf("--run-file and --subscription are mutually exclusive")
	}
	if s.Subscription != "" && s.ProjectID == "" {
		return fmt.Errorf("--project is required with --subscription")
	}
	// A run triggered from a file must not touch the real tracking
	// service.
	if s.IsTesting() && s.UseDTS {
		return fmt.Errorf("--use-dts cannot be combined with local testing mode")
	}
	if s.UpdateInterval > s.RunTimeout {
		return fmt.Errorf("--update-interval (%s) must not exceed --run-timeout (%s)",
			s.UpdateInterval, s.RunTimeout)
	}
	return nil
}
