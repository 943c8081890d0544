package config_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/v8cov/pkg/config"
)

// Test constants.
const (
	testPort        = 9000
	testEnvPort     = 9090
	testWorkers     = 4
	testMaxBytes    = 256 * 1000 * 1000
	testMaxBody     = 64 * 1000 * 1000
	testTinyMaxBody = 1024
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "test-config-*.yaml")
	require.NoError(t, err)

	_, writeErr := tmpFile.WriteString(content)
	require.NoError(t, writeErr)
	require.NoError(t, tmpFile.Close())

	return tmpFile.Name()
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 0, cfg.Merge.Workers)
	assert.True(t, cfg.Merge.Normalize)
	assert.True(t, cfg.Input.Validate)
	assert.Equal(t, "coverage-*.json", cfg.Input.Pattern)
	assert.Equal(t, uint64(testMaxBytes), cfg.Input.MaxBytes)
	assert.Equal(t, uint64(testMaxBody), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, slog.LevelInfo, cfg.Logging.SlogLevel())
}

func TestDefaultMatchesLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, cfg, config.Default())
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
merge:
  workers: 4
  normalize: false
server:
  port: 9000
  host: "0.0.0.0"
  max_body: "1KiB"
  write_timeout: "2m"
output:
  format: yaml
logging:
  level: debug
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, testWorkers, cfg.Merge.Workers)
	assert.False(t, cfg.Merge.Normalize)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, uint64(testTinyMaxBody), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("V8COV_SERVER_PORT", "9090")
	t.Setenv("V8COV_MERGE_WORKERS", "4")
	t.Setenv("V8COV_INPUT_VALIDATE", "false")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, testEnvPort, cfg.Server.Port)
	assert.Equal(t, testWorkers, cfg.Merge.Workers)
	assert.False(t, cfg.Input.Validate)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig("/nonexistent/v8cov.yaml")
	require.Error(t, err)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "port", content: "server:\n  port: 70000\n", wantErr: config.ErrInvalidPort},
		{name: "workers", content: "merge:\n  workers: -2\n", wantErr: config.ErrInvalidWorkers},
		{name: "format", content: "output:\n  format: xml\n", wantErr: config.ErrInvalidFormat},
		{name: "size", content: "input:\n  max_size: lots\n", wantErr: config.ErrInvalidSize},
		{name: "body", content: "server:\n  max_body: \"-1MB\"\n", wantErr: config.ErrInvalidSize},
		{name: "log level", content: "logging:\n  level: loud\n", wantErr: config.ErrInvalidLogLevel},
		{name: "sample ratio", content: "observability:\n  sample_ratio: 1.5\n", wantErr: config.ErrInvalidSampleRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfigUnlimitedSize(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "input:\n  max_size: \"\"\n"))
	require.NoError(t, err)

	assert.Zero(t, cfg.Input.MaxBytes)
}
