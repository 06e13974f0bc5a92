package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. EMBEDDABLES_GRAPHQL_ENDPOINT.
const EnvPrefix = "EMBEDDABLES"

// Config holds the overall configuration for the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	GraphQL    GraphQLConfig    `yaml:"graphql" envconfig:"GRAPHQL"`
	Embeddable EmbeddableConfig `yaml:"embeddable"`
	Service    ServiceConfig    `yaml:"service"`
	Logging    LoggingConfig    `yaml:"logging"`
	CORS       CORSConfig       `yaml:"cors" envconfig:"CORS"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port" validate:"required"`
	ReadTimeout  int    `yaml:"readTimeout" split_words:"true" validate:"gte=0"`
	WriteTimeout int    `yaml:"writeTimeout" split_words:"true" validate:"gte=0"`
	IdleTimeout  int    `yaml:"idleTimeout" split_words:"true" validate:"gte=0"`
}

// GraphQLConfig holds the configuration for the gateway client.
type GraphQLConfig struct {
	Endpoint      string  `yaml:"endpoint" validate:"required,url"`
	TimeoutMillis int64   `yaml:"timeoutMillis" split_words:"true" validate:"gt=0"`
	RateLimit     float64 `yaml:"rateLimit" split_words:"true" validate:"gte=0"`
	Burst         int     `yaml:"burst" validate:"gte=0"`
}

// EmbeddableConfig points at the static base document of the Configuration.
type EmbeddableConfig struct {
	ConfigPath string `yaml:"configPath" split_words:"true" validate:"required"`
}

// ServiceConfig holds configuration for the query service.
type ServiceConfig struct {
	MaxConcurrentRequests int `yaml:"maxConcurrentRequests" split_words:"true" validate:"gt=0"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// CORSConfig lists the origins allowed to embed the widget.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins" split_words:"true"`
}

// LoadConfig loads configuration from a YAML file, then applies environment
// overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML settings and finishes them like LoadConfig.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data: %v", err)
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		logrus.Errorf("Invalid configuration: %v", err)
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
		logrus.Infof("Server.Port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.GraphQL.TimeoutMillis == 0 {
		cfg.GraphQL.TimeoutMillis = 10000
		logrus.Infof("GraphQL.TimeoutMillis not set, defaulting to %d ms", cfg.GraphQL.TimeoutMillis)
	}
	if cfg.GraphQL.RateLimit > 0 && cfg.GraphQL.Burst == 0 {
		cfg.GraphQL.Burst = 1
		logrus.Infof("GraphQL.Burst not set, defaulting to %d", cfg.GraphQL.Burst)
	}
	if cfg.Embeddable.ConfigPath == "" {
		cfg.Embeddable.ConfigPath = "config/config.json"
		logrus.Infof("Embeddable.ConfigPath not set, defaulting to %s", cfg.Embeddable.ConfigPath)
	}
	if cfg.Service.MaxConcurrentRequests == 0 {
		cfg.Service.MaxConcurrentRequests = 5
		logrus.Infof("Service.MaxConcurrentRequests not set, defaulting to %d", cfg.Service.MaxConcurrentRequests)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
		logrus.Warn("CORS.AllowedOrigins not set, allowing every origin")
	}
}
