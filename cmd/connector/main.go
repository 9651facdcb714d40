// Package main is the entry point for the transfer-run connector binary.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dts-connector/internal/config"
	"dts-connector/internal/domain"
	"dts-connector/internal/queue"
	"dts-connector/internal/service/connector"
	"dts-connector/internal/service/staging"
	"dts-connector/internal/service/transfer"
	"dts-connector/internal/tracking"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	settings := &config.Settings{}
	var sourceDir string

	cmd := &cobra.Command{
		Use:           "connector <table-config.yaml>",
		Short:         "Transfer-run connector",
		Long:          "Consumes transfer run triggers, stages and uploads table data, and reports run lifecycle to the tracking service.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.TableConfigPath = args[0]
			if err := settings.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), settings, sourceDir)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&settings.LocalTmpDir, "local-tmpdir", os.TempDir(), "local staging path")
	flags.StringVar(&settings.GCSTmpDir, "gcs-tmpdir", "", `GCS staging path, "gs://staging-bucket/prefix"`)
	flags.BoolVar(&settings.GCSOverwrite, "gcs-overwrite", false, "overwrite existing staged objects")
	flags.StringVar(&settings.RunFile, "run-file", "", "path to a run-descriptor YAML (single-shot testing)")
	flags.StringVar(&settings.ProjectID, "project", "", "project owning the trigger subscription")
	flags.StringVar(&settings.Subscription, "subscription", "", `subscription name, "bigquerydatatransfer.{data_source_id}.{location_id}.run"`)
	flags.IntVar(&settings.MaxMessages, "max-messages", 1, "max trigger messages processed at once")
	flags.DurationVar(&settings.RunTimeout, "run-timeout", transfer.DefaultRunTimeout, "wall-clock limit per transfer run")
	flags.DurationVar(&settings.UpdateInterval, "update-interval", transfer.DefaultUpdateInterval, "heartbeat interval; should not exceed the data source's update deadline")
	flags.BoolVar(&settings.UseDTS, "use-dts", false, "report lifecycle to and load via the tracking service")
	flags.Float64Var(&settings.RateLimitRPS, "api-rate-limit", 0, "tracking API requests per second (0 = default)")
	flags.StringVar(&settings.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&sourceDir, "source-dir", "", "directory of source files to stage, one subdirectory per schema key")

	return cmd
}

func run(ctx context.Context, settings *config.Settings, sourceDir string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: settings.SlogLevel(),
	}))

	tables, err := config.LoadTableConfig(settings.TableConfigPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Collaborators are constructed here and injected; nothing builds a
	// client lazily on first use.
	var trackingClient domain.TrackingClient
	if settings.UseDTS {
		client, err := tracking.NewClient(ctx, "", settings.RateLimitRPS)
		if err != nil {
			return err
		}
		trackingClient = client
	}

	store, err := staging.NewGCSStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	uploader, err := staging.NewUploader(store, settings.GCSTmpDir, settings.GCSOverwrite, logger)
	if err != nil {
		return err
	}

	stage, err := newCopyStager(tables, sourceDir)
	if err != nil {
		return err
	}

	proc := connector.NewProcessor(stage, uploader, trackingClient, logger,
		settings.LocalTmpDir, nil, nil, settings.UseDTS)
	loop := transfer.NewLoop(trackingClient, logger, settings.UpdateInterval, settings.RunTimeout)

	if settings.RunFile != "" {
		return loop.RunFromFile(ctx, settings.RunFile, proc.Process)
	}

	// Pub/Sub leases are extended for at most the run timeout plus slack
	// for the exit path's tracking RPCs.
	source, err := queue.NewPubSubSource(ctx, settings.ProjectID, settings.Subscription,
		settings.MaxMessages, settings.RunTimeout+time.Minute, logger)
	if err != nil {
		return err
	}
	defer source.Close() //nolint:errcheck

	return loop.Consume(ctx, source, proc.Process)
}
