package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file or individual fields are absent.
const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 8000
	DefaultModel          = "gemini-2.0-flash"
	DefaultRequestTimeout = 60 * time.Second
)

// Config is the full gateway configuration: YAML file plus environment
// overrides. Credentials come from the environment only and are loaded once
// at startup; they are never read from the file and never hot-reloaded.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// GeminiAPIKey is env-only (GEMINI_API_KEY). Required to serve.
	GeminiAPIKey string `yaml:"-"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	AuthToken      string `yaml:"authToken"`      // empty = auth disabled
	RateLimitRPM   int    `yaml:"rateLimitRpm"`   // 0 = disabled
	RateLimitBurst int    `yaml:"rateLimitBurst"`
}

type ModelConfig struct {
	Name           string `yaml:"name"`
	MaxTokens      int    `yaml:"maxTokens"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`

	// Persona overrides the built-in civic-assistance instructions when set.
	Persona string `yaml:"persona"`
}

// Timeout returns the per-call ceiling for outbound model requests.
func (m ModelConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

type TelemetryConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Endpoint    string            `yaml:"endpoint"` // OTLP endpoint, e.g. "localhost:4317"
	Protocol    string            `yaml:"protocol"` // "grpc" (default) or "http"
	Insecure    bool              `yaml:"insecure"`
	ServiceName string            `yaml:"serviceName"`
	Headers     map[string]string `yaml:"headers"` // auth tokens for the tracing backend
}

// Load reads the YAML config at path (missing file = all defaults) and
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// no file is fine, env + defaults carry the demo setup
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Model.Name == "" {
		c.Model.Name = DefaultModel
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "civicaid-gateway"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	// GOOGLE_API_KEY wins when both are set, matching the Gemini SDK docs.
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("CIVICAID_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("CIVICAID_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CIVICAID_AUTH_TOKEN"); v != "" {
		c.Server.AuthToken = v
	}
	if v := os.Getenv("CIVICAID_MODEL"); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
		c.Telemetry.Enabled = true
	}
}

// ValidateForServe checks startup-time requirements for the gateway.
// A missing model credential is fatal: the process refuses to serve.
func (c *Config) ValidateForServe() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY not set: the gateway refuses to serve without model credentials")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// Addr returns the host:port the gateway listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
