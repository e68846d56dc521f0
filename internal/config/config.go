package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

const envPrefix = "IOC_MONITOR"

type Config struct {
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

type MonitorConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Interpreter string        `mapstructure:"interpreter"`
	Target      string        `mapstructure:"target"`
	Exclude     string        `mapstructure:"exclude"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
}

type TelemetryConfig struct {
	Enabled       bool                `mapstructure:"enabled"`
	ServiceName   string              `mapstructure:"service_name"`
	OTELCollector OTELCollectorConfig `mapstructure:"otel_collector"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type OTELCollectorConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type MetricsConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type HealthConfig struct {
	// FailureThreshold is the number of consecutive failed polls after which
	// the process source is reported as down rather than degraded.
	FailureThreshold int `mapstructure:"failure_threshold"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.interval", 5*time.Second)
	v.SetDefault("monitor.interpreter", "python")
	v.SetDefault("monitor.target", "master_ioc.py")
	v.SetDefault("monitor.exclude", "ioc_health")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "9108")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "ioc-monitor")
	v.SetDefault("telemetry.otel_collector.host", "localhost")
	v.SetDefault("telemetry.otel_collector.port", 4317)
	v.SetDefault("telemetry.metrics.interval", 15*time.Second)

	v.SetDefault("health.failure_threshold", 3)
}

// LoadConfig reads the config file at path, if any, and applies environment
// overrides such as IOC_MONITOR_MONITOR_INTERVAL=10s.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings the monitor cannot run without.
func (c *Config) Validate() error {
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("%w: monitor.interval must be positive, got %s", ErrInvalidConfig, c.Monitor.Interval)
	}
	if c.Monitor.Interpreter == "" {
		return fmt.Errorf("%w: monitor.interpreter is required", ErrInvalidConfig)
	}
	if c.Monitor.Target == "" {
		return fmt.Errorf("%w: monitor.target is required", ErrInvalidConfig)
	}
	if c.Health.FailureThreshold < 1 {
		c.Health.FailureThreshold = 1
	}
	return nil
}

// ServerAddr returns host:port for the HTTP listener.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// CollectorAddr returns host:port for the OTLP collector.
func (c *Config) CollectorAddr() string {
	return fmt.Sprintf("%s:%d", c.Telemetry.OTELCollector.Host, c.Telemetry.OTELCollector.Port)
}
