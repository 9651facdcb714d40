package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dts-connector/internal/service/transfer"
)

func validSettings() Settings {
	return Settings{
		GCSTmpDir:    "gs://stage-bucket/tmp",
		ProjectID:    "p1",
		Subscription: "dts-triggers",
		UseDTS:       true,
	}
}

func TestSettingsValidateDefaults(t *testing.T) {
	t.Parallel()

	s := validSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, transfer.DefaultRunTimeout, s.RunTimeout)
	assert.Equal(t, transfer.DefaultUpdateInterval, s.UpdateInterval)
	assert.Equal(t, 1, s.MaxMessages)
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{
			name:   "valid subscription mode",
			mutate: func(s *Settings) {},
		},
		{
			name: "valid run-file mode",
			mutate: func(s *Settings) {
				s.Subscription = ""
				s.ProjectID = ""
				s.RunFile = "run.yaml"
				s.UseDTS = false
			},
		},
		{
			name:    "missing gcs tmpdir",
			mutate:  func(s *Settings) { s.GCSTmpDir = "" },
			wantErr: "--gcs-tmpdir is required",
		},
		{
			name:    "non-gcs tmpdir",
			mutate:  func(s *Settings) { s.GCSTmpDir = "/tmp/stage" },
			wantErr: "gs:// URI",
		},
		{
			name: "neither trigger",
			mutate: func(s *Settings) {
				s.Subscription = ""
				s.UseDTS = false
			},
			wantErr: "one of --run-file or --subscription",
		},
		{
			name: "both triggers",
			mutate: func(s *Settings) {
				s.RunFile = "run.yaml"
				s.UseDTS = false
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "subscription without project",
			mutate: func(s *Settings) {
				s.ProjectID = ""
			},
			wantErr: "--project is required",
		},
		{
			name: "run file with tracking enabled",
			mutate: func(s *Settings) {
				s.Subscription = ""
				s.RunFile = "run.yaml"
			},
			wantErr: "--use-dts cannot be combined",
		},
		{
			name: "heartbeat slower than timeout",
			mutate: func(s *Settings) {
				s.UpdateInterval = time.Hour
				s.RunTimeout = time.Minute
			},
			wantErr: "--update-interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := validSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSettingsIsTesting(t *testing.T) {
	t.Parallel()

	live := validSettings()
	assert.False(t, live.IsTesting())

	fromFile := Settings{RunFile: "run.yaml"}
	assert.True(t, fromFile.IsTesting())

	noTracking := validSettings()
	noTracking.UseDTS = false
	assert.True(t, noTracking.IsTesting())
}

func TestSettingsSlogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		s := Settings{LogLevel: tt.level}
		assert.Equal(t, tt.want, s.SlogLevel(), "level %q", tt.level)
	}
}
