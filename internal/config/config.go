package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Supported transports.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config stores environment-driven settings for the server.
type Config struct {
	// Host is the HTTP listen host.
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	// Port is the HTTP listen port. Zero picks a free port.
	Port int `env:"PORT" envDefault:"3000"`
	// Environment names the deployment stage.
	Environment string `env:"APP_ENV" envDefault:"development"`
	// Transport selects the MCP transport ("http" or "stdio").
	Transport string `env:"TRANSPORT" envDefault:"http"`
	// Path is the MCP HTTP endpoint path.
	Path string `env:"MCP_PATH" envDefault:"/mcp"`
	// Stateless disables MCP session tracking.
	Stateless bool `env:"MCP_STATELESS" envDefault:"false"`

	// ToolExecutionTimeoutMS bounds one tool call in milliseconds. Zero disables the deadline.
	ToolExecutionTimeoutMS int `env:"TOOL_EXECUTION_TIMEOUT" envDefault:"30000"`
	// MaxConcurrentTools caps simultaneously running tool calls.
	MaxConcurrentTools int `env:"MAX_CONCURRENT_TOOLS" envDefault:"5"`
	// ManifestPath points to an optional YAML tool manifest.
	ManifestPath string `env:"TOOLS_MANIFEST"`

	// LogLevel sets the logger level.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat selects json or text output.
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	// LogRequests toggles per-request HTTP logging.
	LogRequests bool `env:"LOG_REQUESTS" envDefault:"true"`

	// RateLimitRequests is the per-client request budget within one window.
	RateLimitRequests int `env:"RATE_LIMIT_REQUESTS" envDefault:"120"`
	// RateLimitWindowMS is the rate limit window in milliseconds.
	RateLimitWindowMS int `env:"RATE_LIMIT_WINDOW" envDefault:"60000"`
	// TrustProxy keys rate limiting on the first X-Forwarded-For hop instead of the remote address.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`
	// CORSEnabled toggles CORS headers.
	CORSEnabled bool `env:"CORS_ENABLED" envDefault:"true"`
	// CORSOrigins is the allow-list of origins. Empty allows any origin.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	// MetricsEnabled exposes /metrics.
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	// ShutdownTimeout controls graceful shutdown duration.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file, parses environment variables into Config and validates it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFrom parses Config from the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: vars})
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize cleans list values and verifies ranges.
func (c *Config) Normalize() error {
	origins := make([]string, 0, len(c.CORSOrigins))
	for _, origin := range c.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.CORSOrigins = origins
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("HOST is required"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, errors.New("PORT must be between 0 and 65535"))
	}
	switch c.Environment {
	case "development", "test", "staging", "production":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be development, test, staging, or production, got %q", c.Environment))
	}
	switch c.Transport {
	case TransportHTTP, TransportStdio:
	default:
		errs = append(errs, fmt.Errorf("TRANSPORT must be http or stdio, got %q", c.Transport))
	}
	if !strings.HasPrefix(c.Path, "/") {
		errs = append(errs, errors.New("MCP_PATH must start with /"))
	}
	if c.ToolExecutionTimeoutMS < 0 {
		errs = append(errs, errors.New("TOOL_EXECUTION_TIMEOUT must be >= 0"))
	}
	if c.MaxConcurrentTools < 1 {
		errs = append(errs, errors.New("MAX_CONCURRENT_TOOLS must be >= 1"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn, or error, got %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if c.RateLimitRequests < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be >= 1"))
	}
	if c.RateLimitWindowMS < 1000 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be >= 1000"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid environment configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ToolTimeout returns the tool execution deadline.
func (c Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolExecutionTimeoutMS) * time.Millisecond
}

// RateLimitWindow returns the rate limit window.
func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowMS) * time.Millisecond
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
