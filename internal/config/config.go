package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration. Values come from a
// config.yaml when present, with SCOUT_-prefixed environment variables
// taking precedence.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	AI       AIConfig       `yaml:"ai" envconfig:"AI"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" default:"25"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/scoutlens.log"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path" envconfig:"PATH" default:"data/scoutlens.db"`
}

// StorageConfig controls where uploaded spreadsheets are kept.
type StorageConfig struct {
	UploadDir      string `yaml:"upload_dir" envconfig:"UPLOAD_DIR" default:"data/uploads"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"20971520"`
}

// AIConfig configures the generative model backend.
type AIConfig struct {
	APIKey      string        `yaml:"api_key" envconfig:"API_KEY"`
	BaseURL     string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	Model       string        `yaml:"model" envconfig:"MODEL" default:"gemini-2.0-flash"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"90s"`
	MaxAttempts int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" default:"3"`
}

// PipelineConfig tunes the analysis job queue.
type PipelineConfig struct {
	Workers   int `yaml:"workers" envconfig:"WORKERS" default:"4"`
	QueueSize int `yaml:"queue_size" envconfig:"QUEUE_SIZE" default:"64"`
	BatchSize int `yaml:"batch_size" envconfig:"BATCH_SIZE" default:"1000"`
}

// Load builds the configuration from config.yaml (when present) and the
// environment. A .env file is honoured for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := configFilePath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// Environment variables override file values.
	if err := envconfig.Process("SCOUT", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline workers must be positive")
	}
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("pipeline batch size must be positive")
	}
	if c.AI.MaxAttempts <= 0 {
		c.AI.MaxAttempts = 1
	}
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return nil
}

func configFilePath() string {
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  25,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/scoutlens.log",
		},
		Database: DatabaseConfig{Path: "data/scoutlens.db"},
		Storage: StorageConfig{
			UploadDir:      "data/uploads",
			MaxUploadBytes: 20 << 20,
		},
		AI: AIConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Model:       "gemini-2.0-flash",
			Timeout:     90 * time.Second,
			MaxAttempts: 3,
		},
		Pipeline: PipelineConfig{
			Workers:   4,
			QueueSize: 64,
			BatchSize: 1000,
		},
	}
}
