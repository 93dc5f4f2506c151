package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apierrors "github.com/michel-emel/imce-project/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8050"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"20s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8050"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"100"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/imce.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// DataConfig locates the six survey CSV snapshots
type DataConfig struct {
	Dir             string `yaml:"dir" envconfig:"DIR" default:"."`
	PAPsFile        string `yaml:"paps_file" envconfig:"PAPS_FILE" default:"PAPs_clean.csv"`
	WorkersFile     string `yaml:"workers_file" envconfig:"WORKERS_FILE" default:"workers_clean.csv"`
	ContractorsFile string `yaml:"contractors_file" envconfig:"CONTRACTORS_FILE" default:"contractors_clean.csv"`
	GRCFile         string `yaml:"grc_file" envconfig:"GRC_FILE" default:"GRC_clean.csv"`
	DistrictFile    string `yaml:"district_file" envconfig:"DISTRICT_FILE" default:"district_clean.csv"`
	ChecklistFile   string `yaml:"checklist_file" envconfig:"CHECKLIST_FILE" default:"checklist_clean.csv"`
}

// CacheConfig controls memoisation of computed page models
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	TTL             time.Duration `yaml:"ttl" envconfig:"TTL" default:"10m"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" envconfig:"CLEANUP_INTERVAL" default:"15m"`
}

// TelemetryConfig controls OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"imce-dashboard"`
	StdoutTraces  bool    `yaml:"stdout_traces" envconfig:"STDOUT_TRACES" default:"false"`
	SamplingRatio float64 `yaml:"sampling_ratio" envconfig:"SAMPLING_RATIO" default:"1.0"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, apierrors.NewConfigError("failed to load config from env", err)
	}

	// Load from config file if exists
	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, apierrors.NewConfigError("failed to load config from file "+configFile, err)
		}
		cfg = mergeConfigs(*fileConfig, cfg, setEnvKeys())
	}

	if err := cfg.validate(); err != nil {
		return nil, apierrors.NewConfigError("config validation failed", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setEnvKeys returns the suffixes of IMCE_* variables present in the environment
func setEnvKeys() map[string]bool {
	keys := make(map[string]bool)
	prefix := EnvPrefix + "_"
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, prefix) {
			keys[strings.TrimPrefix(name, prefix)] = true
		}
	}
	return keys
}

// mergeConfigs overlays file values onto the env-processed config.
// A value explicitly set in the environment always wins.
func mergeConfigs(fileConfig, envConfig Config, envSet map[string]bool) Config {
	pick := func(key string, apply func()) {
		if !envSet[key] {
			apply()
		}
	}

	// Server
	if fileConfig.Server.Port != 0 {
		pick("SERVER_PORT", func() { envConfig.Server.Port = fileConfig.Server.Port })
	}
	if fileConfig.Server.ReadTimeout != 0 {
		pick("SERVER_READ_TIMEOUT", func() { envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout })
	}
	if fileConfig.Server.WriteTimeout != 0 {
		pick("SERVER_WRITE_TIMEOUT", func() { envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout })
	}
	if fileConfig.Server.ShutdownTimeout != 0 {
		pick("SERVER_SHUTDOWN_TIMEOUT", func() { envConfig.Server.ShutdownTimeout = fileConfig.Server.ShutdownTimeout })
	}
	if fileConfig.Server.RequestTimeout != 0 {
		pick("SERVER_REQUEST_TIMEOUT", func() { envConfig.Server.RequestTimeout = fileConfig.Server.RequestTimeout })
	}

	// Security
	if len(fileConfig.Security.AllowedOrigins) > 0 {
		pick("SECURITY_ALLOWED_ORIGINS", func() { envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins })
	}
	if fileConfig.Security.RateLimit.RPS != 0 {
		pick("SECURITY_RATE_LIMIT_RPS", func() { envConfig.Security.RateLimit.RPS = fileConfig.Security.RateLimit.RPS })
	}
	if fileConfig.Security.RateLimit.Burst != 0 {
		pick("SECURITY_RATE_LIMIT_BURST", func() { envConfig.Security.RateLimit.Burst = fileConfig.Security.RateLimit.Burst })
	}

	// Logging
	if fileConfig.Logging.Level != "" {
		pick("LOGGING_LEVEL", func() { envConfig.Logging.Level = fileConfig.Logging.Level })
	}
	if fileConfig.Logging.Output != "" {
		pick("LOGGING_OUTPUT", func() { envConfig.Logging.Output = fileConfig.Logging.Output })
	}
	if fileConfig.Logging.FilePath != "" {
		pick("LOGGING_FILE_PATH", func() { envConfig.Logging.FilePath = fileConfig.Logging.FilePath })
	}

	// Data
	if fileConfig.Data.Dir != "" {
		pick("DATA_DIR", func() { envConfig.Data.Dir = fileConfig.Data.Dir })
	}
	if fileConfig.Data.PAPsFile != "" {
		pick("DATA_PAPS_FILE", func() { envConfig.Data.PAPsFile = fileConfig.Data.PAPsFile })
	}
	if fileConfig.Data.WorkersFile != "" {
		pick("DATA_WORKERS_FILE", func() { envConfig.Data.WorkersFile = fileConfig.Data.WorkersFile })
	}
	if fileConfig.Data.ContractorsFile != "" {
		pick("DATA_CONTRACTORS_FILE", func() { envConfig.Data.ContractorsFile = fileConfig.Data.ContractorsFile })
	}
	if fileConfig.Data.GRCFile != "" {
		pick("DATA_GRC_FILE", func() { envConfig.Data.GRCFile = fileConfig.Data.GRCFile })
	}
	if fileConfig.Data.DistrictFile != "" {
		pick("DATA_DISTRICT_FILE", func() { envConfig.Data.DistrictFile = fileConfig.Data.DistrictFile })
	}
	if fileConfig.Data.ChecklistFile != "" {
		pick("DATA_CHECKLIST_FILE", func() { envConfig.Data.ChecklistFile = fileConfig.Data.ChecklistFile })
	}

	// Cache
	if fileConfig.Cache.TTL != 0 {
		pick("CACHE_TTL", func() { envConfig.Cache.TTL = fileConfig.Cache.TTL })
	}
	if fileConfig.Cache.CleanupInterval != 0 {
		pick("CACHE_CLEANUP_INTERVAL", func() { envConfig.Cache.CleanupInterval = fileConfig.Cache.CleanupInterval })
	}

	// Telemetry
	if fileConfig.Telemetry.ServiceName != "" {
		pick("TELEMETRY_SERVICE_NAME", func() { envConfig.Telemetry.ServiceName = fileConfig.Telemetry.ServiceName })
	}

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive")
	}

	if c.Data.Dir == "" {
		return fmt.Errorf("data directory must be specified")
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive when cache is enabled")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  20 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8050"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Data: DataConfig{
			Dir:             ".",
			PAPsFile:        PAPsFileName,
			WorkersFile:     WorkersFileName,
			ContractorsFile: ContractorsFileName,
			GRCFile:         GRCFileName,
			DistrictFile:    DistrictFileName,
			ChecklistFile:   ChecklistFileName,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             DataCacheDuration,
			CleanupInterval: 15 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   ServiceName,
			SamplingRatio: 1.0,
		},
	}
}
