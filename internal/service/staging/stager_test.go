package staging

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dts-connector/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testTables() map[string]domain.TableDefinition {
	return map[string]domain.TableDefinition{
		"orders": {
			DestinationTableTemplate: "orders_{run_yyyymmdd}",
		},
		"customers": {
			DestinationTableTemplate: "customers",
		},
	}
}

func TestTableStager(t *testing.T) {
	t.Parallel()

	stage := TableStager(testTables(), "orders",
		func(ctx context.Context, run *domain.RunDescriptor, logger *slog.Logger, localPrefix string) ([]string, error) {
			return []string{localPrefix + "/orders/part-0.csv"}, nil
		})

	artifacts, err := stage(context.Background(), templateRun(), discardLogger(), "/tmp/stage")
	require.NoError(t, err)
	require.Len(t, artifacts, 1)

	assert.Equal(t, "orders", artifacts[0].SchemaKey)
	assert.Equal(t, "orders_20260801", artifacts[0].DestinationName)
	assert.Equal(t, []string{"/tmp/stage/orders/part-0.csv"}, artifacts[0].SourceLocations)
	assert.Equal(t, "orders_{run_yyyymmdd}", artifacts[0].Definition.DestinationTableTemplate)
}

func TestTableStagerUnknownKey(t *testing.T) {
	t.Parallel()

	stage := TableStager(testTables(), "payments",
		func(ctx context.Context, run *domain.RunDescriptor, logger *slog.Logger, localPrefix string) ([]string, error) {
			t.Fatal("file staging must not run without a table definition")
			return nil, nil
		})

	_, err := stage(context.Background(), templateRun(), discardLogger(), "/tmp/stage")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestTableStagerPropagatesStageError(t *testing.T) {
	t.Parallel()

	boom := errors.New("source gone")
	stage := TableStager(testTables(), "orders",
		func(ctx context.Context, run *domain.RunDescriptor, logger *slog.Logger, localPrefix string) ([]string, error) {
			return nil, boom
		})

	_, err := stage(context.Background(), templateRun(), discardLogger(), "/tmp/stage")
	require.ErrorIs(t, err, boom)
}

func TestCombine(t *testing.T) {
	t.Parallel()

	tables := testTables()
	staged := func(key string) domain.StageFunc {
		return TableStager(tables, key,
			func(ctx context.Context, run *domain.RunDescriptor, logger *slog.Logger, localPrefix string) ([]string, error) {
				return []string{localPrefix + "/" + key + "/data.csv"}, nil
			})
	}

	stage := Combine(staged("orders"), staged("customers"))
	artifacts, err := stage(context.Background(), templateRun(), discardLogger(), "/tmp/stage")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "orders", artifacts[0].SchemaKey)
	assert.Equal(t, "customers", artifacts[1].SchemaKey)
}

func TestCombineStopsOnFirstError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var secondRan bool
	stage := Combine(
		func(ctx context.Context, run *domain.RunDescriptor, logger *slog.Logger, localPrefix string) ([]domain.TableArtifact, error) {
			return nil, boom
		},
		func(ctx context.Context, run *domain.RunDescriptor, logger *slog.Logger, localPrefix string) ([]domain.TableArtifact, error) {
			secondRan = true
			return nil, nil
		},
	)

	_, err := stage(context.Background(), templateRun(), discardLogger(), "/tmp/stage")
	require.ErrorIs(t, err, boom)
	assert.False(t, secondRan)
}
