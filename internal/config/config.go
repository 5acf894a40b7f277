// Package config loads process configuration from the environment and the
// prescriber profile from TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the service configuration read from PRESCREVEAI_* variables.
type Config struct {
	Port            int           `env:"PORT"              envDefault:"8000"`
	LogLevel        string        `env:"LOG_LEVEL"         envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT"        envDefault:"json"`
	APIKeys         []string      `env:"API_KEYS"          envSeparator:","`
	ClinicName      string        `env:"CLINIC_NAME"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"  envDefault:"30s"`
	PIDFile         string        `env:"PID_FILE"`
	ProfilePath     string        `env:"PROFILE"`

	Events  EventsConfig
	Tracing TracingConfig
}

// EventsConfig configures publishing of issued-prescription events. No
// brokers means events are disabled.
type EventsConfig struct {
	Brokers       []string `env:"KAFKA_BROKERS"   envSeparator:","`
	Topic         string   `env:"EVENTS_TOPIC"    envDefault:"prescriptions.issued"`
	ClientID      string   `env:"KAFKA_CLIENT_ID" envDefault:"prescreveai"`
	ConsumerGroup string   `env:"CONSUMER_GROUP"  envDefault:"prescreveai-tail"`
	Workers       int      `env:"PUBLISH_WORKERS" envDefault:"4"`
	QueueSize     int      `env:"PUBLISH_QUEUE"   envDefault:"1024"`
}

// Enabled reports whether any broker is configured
func (c EventsConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `env:"TRACING_ENABLED"   envDefault:"false"`
	OTLPEndpoint string  `env:"OTLP_ENDPOINT"     envDefault:"localhost:4317"`
	SampleRate   float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
	Environment  string  `env:"ENVIRONMENT"       envDefault:"development"`
}

// Prefix is prepended to every variable name.
const Prefix = "PRESCREVEAI_"

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PIDFile == "" {
		cfg.PIDFile = filepath.Join(os.TempDir(), "prescreveai.pid")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid %sPORT: %d", Prefix, c.Port)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("invalid %sTRACE_SAMPLE_RATE: %v", Prefix, c.Tracing.SampleRate)
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("%sEVENTS_TOPIC must not be empty", Prefix)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
