// Package connector provides the standard run body executed inside a
// coordinator scope: normalize, validate, stage, upload, load.
package connector

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"dts-connector/internal/domain"
	"dts-connector/internal/service/staging"
	"dts-connector/internal/service/transfer"
)

// Processor executes the standard transfer-run pipeline. All collaborators
// are injected at construction; nothing is built lazily.
type Processor struct {
	stage    domain.StageFunc
	uploader *staging.Uploader       // nil: skip the upload step
	tracking domain.TrackingClient   // nil: skip the load step
	logger   *slog.Logger

	localTmpDir    string
	requiredParams []string
	integerParams  []string
	useManagedLoad bool // load via the run's tracking service vs direct dataset load
}

// NewProcessor creates a run body. requiredParams and integerParams declare
// the connector's parameter contract; useManagedLoad selects StartLoad over
// StartLoadDirect.
func NewProcessor(stage domain.StageFunc, uploader *staging.Uploader,
	tracking domain.TrackingClient, logger *slog.Logger, localTmpDir string,
	requiredParams, integerParams []string, useManagedLoad bool) *Processor {

	if localTmpDir == "" {
		localTmpDir = os.TempDir()
	}
	return &Processor{
		stage:          stage,
		uploader:       uploader,
		tracking:       tracking,
		logger:         logger,
		localTmpDir:    localTmpDir,
		requiredParams: requiredParams,
		integerParams:  integerParams,
		useManagedLoad: useManagedLoad,
	}
}

// Process is a transfer.RunBody.
func (p *Processor) Process(ctx context.Context, scope *transfer.RunScope) error {
	run := scope.Run()
	logger := scope.Logger()

	params, err := transfer.NormalizeParams(run.Params, p.integerParams)
	if err != nil {
		return err
	}
	run.Params = params
	if err := transfer.ValidateRequiredParams(run.Params, p.requiredParams); err != nil {
		return err
	}

	// Each run attempt stages into its own directory so retried runs never
	// see a previous attempt's partial output.
	localPrefix := filepath.Join(p.localTmpDir, run.DataSourceID, run.ConfigID, uuid.NewString())
	if err := os.MkdirAll(localPrefix, 0o750); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(localPrefix) //nolint:errcheck

	logger.Info("staging tables locally", "path", localPrefix)
	artifacts, err := p.stage(ctx, run, logger, localPrefix)
	if err != nil {
		return err
	}

	if p.uploader != nil && len(artifacts) > 0 {
		if err := p.uploader.CheckLocation(ctx, run.LocationID); err != nil {
			return err
		}
		logger.Info("uploading staged tables")
		artifacts, err = p.uploader.Upload(ctx, run, localPrefix, artifacts)
		if err != nil {
			return err
		}
	}

	// A table with nothing staged has nothing to load.
	loadable := artifacts[:0:0]
	for _, a := range artifacts {
		if len(a.SourceLocations) == 0 {
			logger.Warn("no files staged for table, skipping load", "table", a.DestinationName)
			continue
		}
		loadable = append(loadable, a)
	}
	if len(loadable) == 0 {
		logger.Info("nothing to load")
		return nil
	}

	if p.tracking == nil {
		logger.Info("load step disabled, skipping load", "tables", len(loadable))
		return nil
	}

	logger.Info("starting load jobs", "tables", len(loadable))
	if p.useManagedLoad {
		if err := p.tracking.StartLoad(ctx, run.Name, loadable); err != nil {
			return fmt.Errorf("start load: %w", err)
		}
		return nil
	}
	if err := p.tracking.StartLoadDirect(ctx, run.DestinationDatasetID, loadable); err != nil {
		return fmt.Errorf("start direct load: %w", err)
	}
	return nil
}
