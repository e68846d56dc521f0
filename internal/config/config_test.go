package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)

		assert.Equal(t, 5*time.Second, cfg.Monitor.Interval)
		assert.Equal(t, "python", cfg.Monitor.Interpreter)
		assert.Equal(t, "master_ioc.py", cfg.Monitor.Target)
		assert.Equal(t, "ioc_health", cfg.Monitor.Exclude)
		assert.True(t, cfg.Server.Enabled)
		assert.Equal(t, "0.0.0.0:9108", cfg.ServerAddr())
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.CollectorAddr())
		assert.Equal(t, 15*time.Second, cfg.Telemetry.Metrics.Interval)
		assert.Equal(t, 3, cfg.Health.FailureThreshold)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", `
monitor:
  interval: 2s
  interpreter: python3
  target: worker_ioc.py
  exclude: ""
server:
  port: "9200"
telemetry:
  enabled: true
  service_name: beamline-ioc-monitor
  otel_collector:
    host: otel
    port: 4318
health:
  failure_threshold: 5
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, 2*time.Second, cfg.Monitor.Interval)
		assert.Equal(t, "python3", cfg.Monitor.Interpreter)
		assert.Equal(t, "worker_ioc.py", cfg.Monitor.Target)
		assert.Equal(t, "", cfg.Monitor.Exclude)
		assert.Equal(t, "0.0.0.0:9200", cfg.ServerAddr())
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "beamline-ioc-monitor", cfg.Telemetry.ServiceName)
		assert.Equal(t, "otel:4318", cfg.CollectorAddr())
		assert.Equal(t, 5, cfg.Health.FailureThreshold)
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("IOC_MONITOR_MONITOR_INTERVAL", "30s")
		t.Setenv("IOC_MONITOR_SERVER_ENABLED", "false")

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
		assert.False(t, cfg.Server.Enabled)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("invalid interval", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", "monitor:\n  interval: 0s\n")
		_, err := LoadConfig(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Monitor: MonitorConfig{
			Interval:    time.Second,
			Interpreter: "python",
			Target:      "master_ioc.py",
		}}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Health.FailureThreshold)

	cfg = base()
	cfg.Monitor.Interpreter = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = base()
	cfg.Monitor.Target = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = base()
	cfg.Monitor.Interval = -time.Second
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
