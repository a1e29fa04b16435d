package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "1.4"

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Render      RenderConfig
	Liquid      LiquidConfig
	Export      ExportConfig
	RateLimit   RateLimitConfig
	Tracing     TracingConfig
	Environment string
	LogLevel    string
	Version     string
}

type ServerConfig struct {
	Port            int
	Host            string
	SSL             SSLConfig
	ShutdownTimeout time.Duration
	CORSOrigin      string
}

type SSLConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RenderConfig controls the compiled HTML cache
type RenderConfig struct {
	CacheTTL        time.Duration
	CacheCleanup    time.Duration
	CacheMaxEntries int
}

// LiquidConfig bounds merge-field previews
type LiquidConfig struct {
	Timeout         time.Duration
	MaxTemplateSize int
}

// ExportConfig holds the campaign parameters added to links on export
type ExportConfig struct {
	UTMSource string
	UTMMedium string
}

// RateLimitConfig throttles the render routes per client. A zero limit
// disables throttling. Clients are keyed by their connection address unless
// TrustProxyHeaders is set, in which case X-Forwarded-For is used.
type RateLimitConfig struct {
	RenderPerMinute   int
	TrustProxyHeaders bool
}

type TracingConfig struct {
	Enabled             bool
	ServiceName         string
	SamplingProbability float64

	// Trace exporter configuration
	TraceExporter string // "jaeger", "zipkin", "stackdriver", "datadog", "xray", "none"

	JaegerEndpoint       string
	ZipkinEndpoint       string
	StackdriverProjectID string

	DatadogAgentAddress string
	DatadogAPIKey       string

	XRayRegion string

	// General agent endpoint (for exporters that support a common agent)
	AgentEndpoint string

	// Metrics exporter configuration
	MetricsExporter string // "prometheus", "stackdriver", "datadog", "none" or comma-separated list
	PrometheusPort  int
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("CORS_ALLOW_ORIGIN", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "mailblocks")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "10m")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)

	v.SetDefault("RENDER_CACHE_TTL", "10m")
	v.SetDefault("RENDER_CACHE_CLEANUP", "1m")
	v.SetDefault("RENDER_CACHE_MAX_ENTRIES", 1000)

	v.SetDefault("LIQUID_TIMEOUT", "5s")
	v.SetDefault("LIQUID_MAX_TEMPLATE_SIZE", 512*1024)

	v.SetDefault("UTM_SOURCE", "")
	v.SetDefault("UTM_MEDIUM", "email")

	v.SetDefault("RATE_LIMIT_RENDER_PER_MINUTE", 120)
	v.SetDefault("TRUST_PROXY_HEADERS", false)

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "mailblocks-api")
	v.SetDefault("TRACING_SAMPLING_PROBABILITY", 0.1)
	v.SetDefault("TRACING_TRACE_EXPORTER", "none")
	v.SetDefault("TRACING_JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	v.SetDefault("TRACING_ZIPKIN_ENDPOINT", "http://localhost:9411/api/v2/spans")
	v.SetDefault("TRACING_STACKDRIVER_PROJECT_ID", "")
	v.SetDefault("TRACING_DATADOG_AGENT_ADDRESS", "localhost:8126")
	v.SetDefault("TRACING_DATADOG_API_KEY", "")
	v.SetDefault("TRACING_XRAY_REGION", "us-west-2")
	v.SetDefault("TRACING_AGENT_ENDPOINT", "localhost:8126")
	v.SetDefault("TRACING_METRICS_EXPORTER", "none")
	v.SetDefault("TRACING_PROMETHEUS_PORT", 9464)

	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}

		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	config := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
			Host: v.GetString("SERVER_HOST"),
			SSL: SSLConfig{
				Enabled:  v.GetBool("SSL_ENABLED"),
				CertFile: v.GetString("SSL_CERT_FILE"),
				KeyFile:  v.GetString("SSL_KEY_FILE"),
			},
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			CORSOrigin:      v.GetString("CORS_ALLOW_ORIGIN"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Render: RenderConfig{
			CacheTTL:        v.GetDuration("RENDER_CACHE_TTL"),
			CacheCleanup:    v.GetDuration("RENDER_CACHE_CLEANUP"),
			CacheMaxEntries: v.GetInt("RENDER_CACHE_MAX_ENTRIES"),
		},
		Liquid: LiquidConfig{
			Timeout:         v.GetDuration("LIQUID_TIMEOUT"),
			MaxTemplateSize: v.GetInt("LIQUID_MAX_TEMPLATE_SIZE"),
		},
		Export: ExportConfig{
			UTMSource: v.GetString("UTM_SOURCE"),
			UTMMedium: v.GetString("UTM_MEDIUM"),
		},
		RateLimit: RateLimitConfig{
			RenderPerMinute:   v.GetInt("RATE_LIMIT_RENDER_PER_MINUTE"),
			TrustProxyHeaders: v.GetBool("TRUST_PROXY_HEADERS"),
		},
		Tracing: TracingConfig{
			Enabled:              v.GetBool("TRACING_ENABLED"),
			ServiceName:          v.GetString("TRACING_SERVICE_NAME"),
			SamplingProbability:  v.GetFloat64("TRACING_SAMPLING_PROBABILITY"),
			TraceExporter:        v.GetString("TRACING_TRACE_EXPORTER"),
			JaegerEndpoint:       v.GetString("TRACING_JAEGER_ENDPOINT"),
			ZipkinEndpoint:       v.GetString("TRACING_ZIPKIN_ENDPOINT"),
			StackdriverProjectID: v.GetString("TRACING_STACKDRIVER_PROJECT_ID"),
			DatadogAgentAddress:  v.GetString("TRACING_DATADOG_AGENT_ADDRESS"),
			DatadogAPIKey:        v.GetString("TRACING_DATADOG_API_KEY"),
			XRayRegion:           v.GetString("TRACING_XRAY_REGION"),
			AgentEndpoint:        v.GetString("TRACING_AGENT_ENDPOINT"),
			MetricsExporter:      v.GetString("TRACING_METRICS_EXPORTER"),
			PrometheusPort:       v.GetInt("TRACING_PROMETHEUS_PORT"),
		},
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Version:     v.GetString("VERSION"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.SSL.Enabled && (c.Server.SSL.CertFile == "" || c.Server.SSL.KeyFile == "") {
		return fmt.Errorf("SSL_CERT_FILE and SSL_KEY_FILE are required when SSL_ENABLED is true")
	}
	if c.Render.CacheTTL <= 0 {
		return fmt.Errorf("RENDER_CACHE_TTL must be a positive duration")
	}
	if c.Liquid.Timeout <= 0 {
		return fmt.Errorf("LIQUID_TIMEOUT must be a positive duration")
	}
	if c.RateLimit.RenderPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_RENDER_PER_MINUTE must not be negative")
	}
	if c.Tracing.SamplingProbability < 0 || c.Tracing.SamplingProbability > 1 {
		return fmt.Errorf("TRACING_SAMPLING_PROBABILITY must be between 0 and 1")
	}
	if c.Liquid.MaxTemplateSize <= 0 {
		return fmt.Errorf("LIQUID_MAX_TEMPLATE_SIZE must be positive")
	}
	return nil
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
