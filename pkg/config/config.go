// Package config provides configuration loading and validation for v8cov.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidWorkers     = errors.New("merge workers must not be negative")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidSize        = errors.New("invalid size")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
)

// Config holds all configuration for v8cov.
type Config struct {
	Merge         MergeConfig         `mapstructure:"merge"`
	Input         InputConfig         `mapstructure:"input"`
	Output        OutputConfig        `mapstructure:"output"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Server        ServerConfig        `mapstructure:"server"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// MergeConfig holds merge engine settings.
type MergeConfig struct {
	// Workers bounds the goroutines merging script groups. Zero means one per CPU.
	Workers   int  `mapstructure:"workers"`
	Normalize bool `mapstructure:"normalize"`
}

// InputConfig holds report reading settings.
type InputConfig struct {
	Pattern  string `mapstructure:"pattern"`
	MaxSize  string `mapstructure:"max_size"`
	Validate bool   `mapstructure:"validate"`

	// MaxBytes is MaxSize parsed by LoadConfig.
	MaxBytes uint64 `mapstructure:"-"`
}

// OutputConfig holds report writing settings.
type OutputConfig struct {
	Format   string `mapstructure:"format"`
	Indent   string `mapstructure:"indent"`
	Compress bool   `mapstructure:"compress"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	MaxBody      string        `mapstructure:"max_body"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Port         int           `mapstructure:"port"`

	// MaxBodyBytes is MaxBody parsed by LoadConfig.
	MaxBodyBytes uint64 `mapstructure:"-"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ObservabilityConfig holds OpenTelemetry export settings.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// SlogLevel returns the parsed log level. LoadConfig has validated it.
func (c LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Level))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}

// LoadConfig loads configuration from file and environment variables.
// Without an explicit path, .v8cov.yaml is searched in the working
// directory and then in the home directory.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	// Set defaults.
	setDefaults(viperCfg)

	// Read config file.
	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	// Read environment variables.
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment
// override exists.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var config Config

	// Defaults always decode and validate.
	_ = viperCfg.Unmarshal(&config)
	_ = validateConfig(&config)

	return &config
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Merge defaults.
	viperCfg.SetDefault("merge.workers", DefaultMergeWorkers)
	viperCfg.SetDefault("merge.normalize", DefaultMergeNormalize)

	// Input defaults.
	viperCfg.SetDefault("input.validate", DefaultInputValidate)
	viperCfg.SetDefault("input.pattern", DefaultInputPattern)
	viperCfg.SetDefault("input.max_size", DefaultInputMaxSize)

	// Output defaults.
	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.indent", "")
	viperCfg.SetDefault("output.compress", false)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", false)

	// Server defaults.
	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.read_timeout", DefaultServerTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultServerTimeout)
	viperCfg.SetDefault("server.max_body", DefaultServerMaxBody)

	// Observability defaults.
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.sample_ratio", 0.0)
	viperCfg.SetDefault("observability.environment", "")
}

// validateConfig validates the configuration and fills the parsed sizes.
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	if config.Merge.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Merge.Workers)
	}

	switch strings.ToLower(config.Output.Format) {
	case formatJSON, formatYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, config.Output.Format)
	}

	var level slog.Level

	levelErr := level.UnmarshalText([]byte(config.Logging.Level))
	if levelErr != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	ratio := config.Observability.SampleRatio
	if ratio < 0 || ratio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, ratio)
	}

	maxBytes, err := parseSize("input.max_size", config.Input.MaxSize)
	if err != nil {
		return err
	}

	config.Input.MaxBytes = maxBytes

	maxBody, err := parseSize("server.max_body", config.Server.MaxBody)
	if err != nil {
		return err
	}

	config.Server.MaxBodyBytes = maxBody

	return nil
}

// parseSize parses a human-readable size such as "256MB". An empty string
// or "0" means no limit.
func parseSize(key, value string) (uint64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %w", ErrInvalidSize, key, value, err)
	}

	return size, nil
}
