package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dts-connector/internal/domain"
)

func TestDecodeRunJSON(t *testing.T) {
	t.Parallel()

	run, err := DecodeRunJSON([]byte(testRunJSON))
	require.NoError(t, err)

	assert.Equal(t, "projects/p1/locations/us/transferConfigs/c1/runs/r1", run.Name)
	assert.Equal(t, "p1", run.ProjectID)
	assert.Equal(t, "us", run.LocationID)
	assert.Equal(t, "c1", run.ConfigID)
	assert.Equal(t, "r1", run.RunID)
	assert.Equal(t, "partner_source", run.DataSourceID)
	assert.Equal(t, "u1", run.UserID)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), run.RunTime)
	assert.Equal(t, "b1", run.Params["bucket"])
}

func TestDecodeRunJSONErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{
			name: "malformed json",
			data: `{not json`,
		},
		{
			name: "malformed run name",
			data: `{"name": "projects/p1/runs/r1"}`,
		},
		{
			name: "malformed run time",
			data: `{"name": "projects/p1/locations/us/transferConfigs/c1/runs/r1", "runTime": "yesterday"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeRunJSON([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestDecodeRunJSONDefaultsParams(t *testing.T) {
	t.Parallel()

	run, err := DecodeRunJSON([]byte(`{"name": "projects/p1/locations/us/transferConfigs/c1/runs/r1"}`))
	require.NoError(t, err)
	require.NotNil(t, run.Params)
	assert.Empty(t, run.Params)
	assert.True(t, run.RunTime.IsZero())
}

func TestNormalizeParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  map[string]any
		integer []string
		want    map[string]any
		wantErr bool
	}{
		{
			name:    "string coerced",
			params:  map[string]any{"shard_count": "12"},
			integer: []string{"shard_count"},
			want:    map[string]any{"shard_count": int64(12)},
		},
		{
			name:    "json number coerced",
			params:  map[string]any{"shard_count": float64(12)},
			integer: []string{"shard_count"},
			want:    map[string]any{"shard_count": int64(12)},
		},
		{
			name:    "int64 passthrough",
			params:  map[string]any{"shard_count": int64(7)},
			integer: []string{"shard_count"},
			want:    map[string]any{"shard_count": int64(7)},
		},
		{
			name:    "undeclared params untouched",
			params:  map[string]any{"bucket": "b1", "shard_count": "12"},
			integer: []string{"shard_count"},
			want:    map[string]any{"bucket": "b1", "shard_count": int64(12)},
		},
		{
			name:    "declared but absent is fine",
			params:  map[string]any{"bucket": "b1"},
			integer: []string{"shard_count"},
			want:    map[string]any{"bucket": "b1"},
		},
		{
			name:    "fractional number rejected",
			params:  map[string]any{"shard_count": 1.5},
			integer: []string{"shard_count"},
			wantErr: true,
		},
		{
			name:    "non-numeric string rejected",
			params:  map[string]any{"shard_count": "a dozen"},
			integer: []string{"shard_count"},
			wantErr: true,
		},
		{
			name:    "unsupported type rejected",
			params:  map[string]any{"shard_count": true},
			integer: []string{"shard_count"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeParams(tt.params, tt.integer)
			if tt.wantErr {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeParamsDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := map[string]any{"shard_count": "12"}
	_, err := NormalizeParams(in, []string{"shard_count"})
	require.NoError(t, err)
	assert.Equal(t, "12", in["shard_count"])
}

func TestValidateRequiredParams(t *testing.T) {
	t.Parallel()

	params := map[string]any{"bucket": "b1", "prefix": ""}

	assert.NoError(t, ValidateRequiredParams(params, nil))
	assert.NoError(t, ValidateRequiredParams(params, []string{"bucket", "prefix"}))

	err := ValidateRequiredParams(params, []string{"bucket", "shard_count"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "shard_count")
}
