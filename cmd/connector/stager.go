package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"dts-connector/internal/domain"
	"dts-connector/internal/service/staging"
)

// newCopyStager builds the demo stager: for every schema key in the table
// config, files under {sourceDir}/{key}/ are staged as-is. Real connectors
// replace this with source-specific extraction wrapped in
// staging.TableStager the same way.
func newCopyStager(tables map[string]domain.TableDefinition, sourceDir string) (domain.StageFunc, error) {
	if sourceDir == "" {
		return nil, fmt.Errorf("--source-dir is required")
	}
	if info, err := os.Stat(sourceDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("--source-dir %q is not a directory", sourceDir)
	}

	stagers := make([]domain.StageFunc, 0, len(tables))
	for key := range tables {
		stagers = append(stagers, staging.TableStager(tables, key, copyFiles(sourceDir, key)))
	}
	return staging.Combine(stagers...), nil
}

// copyFiles stages every regular file under {sourceDir}/{key} into the
// run's local prefix.
func copyFiles(sourceDir, key string) staging.FileStageFunc {
	return func(ctx context.Context, run *domain.RunDescriptor,
		logger *slog.Logger, localPrefix string) ([]string, error) {

		srcDir := filepath.Join(sourceDir, key)
		entries, err := os.ReadDir(srcDir)
		if os.IsNotExist(err) {
			logger.Warn("no source files for table", "table", key)
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read source dir: %w", err)
		}

		var staged []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			dst := filepath.Join(localPrefix, key, entry.Name())
			if err := copyFile(filepath.Join(srcDir, entry.Name()), dst); err != nil {
				return nil, err
			}
			staged = append(staged, dst)
		}
		logger.Info("staged source files", "table", key, "files", len(staged))
		return staged, nil
	}
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
