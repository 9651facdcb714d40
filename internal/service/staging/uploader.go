package staging

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"dts-connector/internal/domain"
)

// uploadConcurrency bounds parallel object uploads per run.
const uploadConcurrency = 8

// locationToGCSLocations maps a transfer location to the storage locations
// allowed to stage its data. Staging into any other bucket location fails
// the run's precondition check.
var locationToGCSLocations = map[string]map[string]bool{
	"us":              {"us": true},
	"europe":          {"eu": true},
	"asia-northeast1": {"asia-northeast1": true},
}

// Uploader copies locally staged table files into the remote staging
// bucket, rewriting each artifact's source locations to the uploaded URIs.
type Uploader struct {
	store     domain.ObjectStore
	bucket    string
	prefix    string
	overwrite bool
	logger    *slog.Logger
}

// NewUploader creates an uploader targeting tmpDir, a "gs://bucket/prefix"
// staging path.
func NewUploader(store domain.ObjectStore, tmpDir string, overwrite bool, logger *slog.Logger) (*Uploader, error) {
	bucket, prefix, err := ParseGCSURI(tmpDir)
	if err != nil {
		return nil, err
	}
	return &Uploader{
		store:     store,
		bucket:    bucket,
		prefix:    prefix,
		overwrite: overwrite,
		logger:    logger,
	}, nil
}

// ParseGCSURI splits "gs://bucket/prefix" into bucket and prefix.
func ParseGCSURI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("not a gs:// URI: %q", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, strings.TrimSuffix(prefix, "/"), nil
}

// CheckLocation verifies the staging bucket is co-located with the
// transfer location, so loads do not cross regions.
func (u *Uploader) CheckLocation(ctx context.Context, locationID string) error {
	allowed := locationToGCSLocations[locationID]
	if len(allowed) == 0 {
		return domain.ErrValidation("no staging locations known for transfer location %q", locationID)
	}
	loc, err := u.store.BucketLocation(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("bucket %q location: %w", u.bucket, err)
	}
	if !allowed[strings.ToLower(loc)] {
		return domain.ErrValidation("bucket %q is in %q, not co-located with transfer location %q",
			u.bucket, loc, locationID)
	}
	return nil
}

// Upload copies every artifact's local files (relative to localPrefix) to
// {prefix}/{dataSourceID}/{configID}/ and returns artifacts rewritten with
// the uploaded URIs. Files upload concurrently; the first failure aborts
// the rest.
func (u *Uploader) Upload(ctx context.Context, run *domain.RunDescriptor,
	localPrefix string, artifacts []domain.TableArtifact) ([]domain.TableArtifact, error) {

	runPrefix := path.Join(u.prefix, run.DataSourceID, run.ConfigID)

	out := make([]domain.TableArtifact, len(artifacts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for i, artifact := range artifacts {
		out[i] = artifact
		out[i].SourceLocations = make([]string, len(artifact.SourceLocations))
		u.logger.Info("uploading staged table", "run", run.Name, "table", artifact.DestinationName)

		for j, local := range artifact.SourceLocations {
			rel, err := filepath.Rel(localPrefix, local)
			if err != nil || strings.HasPrefix(rel, "..") {
				rel = filepath.Base(local)
			}
			object := path.Join(runPrefix, filepath.ToSlash(rel))
			g.Go(func() error {
				uri, err := u.store.Upload(gctx, local, u.bucket, object, u.overwrite)
				if err != nil {
					return fmt.Errorf("upload %s: %w", local, err)
				}
				out[i].SourceLocations[j] = uri
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
