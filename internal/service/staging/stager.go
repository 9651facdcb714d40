package staging

import (
	"context"
	"log/slog"

	"dts-connector/internal/domain"
)

// FileStageFunc stages one table's files under localPrefix and returns
// their local paths.
type FileStageFunc func(ctx context.Context, run *domain.RunDescriptor,
	logger *slog.Logger, localPrefix string) ([]string, error)

// TableStager wraps a FileStageFunc with the boilerplate every table stager
// repeats: look up the table definition by schema key, render the
// destination table name from the run's parameters, and package the staged
// files into a TableArtifact.
func TableStager(tables map[string]domain.TableDefinition, key string, fn FileStageFunc) domain.StageFunc {
	return func(ctx context.Context, run *domain.RunDescriptor,
		logger *slog.Logger, localPrefix string) ([]domain.TableArtifact, error) {

		def, ok := tables[key]
		if !ok {
			return nil, domain.ErrValidation("no table definition for schema key %q", key)
		}

		name, err := TemplatizeTableName(def.DestinationTableTemplate, run)
		if err != nil {
			return nil, err
		}

		paths, err := fn(ctx, run, logger, localPrefix)
		if err != nil {
			return nil, err
		}

		return []domain.TableArtifact{{
			SchemaKey:       key,
			DestinationName: name,
			SourceLocations: paths,
			Definition:      def,
		}}, nil
	}
}

// Combine runs several stagers in order and concatenates their artifacts.
func Combine(stagers ...domain.StageFunc) domain.StageFunc {
	return func(ctx context.Context, run *domain.RunDescriptor,
		logger *slog.Logger, localPrefix string) ([]domain.TableArtifact, error) {

		var all []domain.TableArtifact
		for _, stage := range stagers {
			artifacts, err := stage(ctx, run, logger, localPrefix)
			if err != nil {
				return nil, err
			}
			all = append(all, artifacts...)
		}
		return all, nil
	}
}
