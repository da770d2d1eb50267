// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TranscriptionConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxWait        time.Duration `yaml:"max_wait"` // overall wait budget per file
}

type PipelineConfig struct {
	Lanes          int           `yaml:"lanes"`   // GPU lanes, round-robin targets
	Workers        int           `yaml:"workers"` // worker pool size
	JobTimeout     time.Duration `yaml:"job_timeout"`
	ResultTTL      time.Duration `yaml:"result_ttl"`
	FailureTTL     time.Duration `yaml:"failure_ttl"`
	ProgressTTL    time.Duration `yaml:"progress_ttl"`    // derived-count cache TTL
	IntakeInterval time.Duration `yaml:"intake_interval"` // queue intake tick
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type Config struct {
	Log           LogConfig           `yaml:"log"`
	Admin         AdminConfig         `yaml:"admin"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Storage       StorageConfig       `yaml:"storage"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Pipeline.Lanes <= 0 {
		cfg.Pipeline.Lanes = 2
	}
	if cfg.Pipeline.Workers <= 0 {
		cfg.Pipeline.Workers = cfg.Pipeline.Lanes
	}
	if cfg.Pipeline.JobTimeout <= 0 {
		cfg.Pipeline.JobTimeout = 4 * time.Hour
	}
	if cfg.Pipeline.ResultTTL <= 0 {
		cfg.Pipeline.ResultTTL = 24 * time.Hour
	}
	if cfg.Pipeline.FailureTTL <= 0 {
		cfg.Pipeline.FailureTTL = 7 * 24 * time.Hour
	}
	if cfg.Pipeline.ProgressTTL <= 0 {
		cfg.Pipeline.ProgressTTL = 5 * time.Second
	}
	if cfg.Pipeline.IntakeInterval <= 0 {
		cfg.Pipeline.IntakeInterval = 500 * time.Millisecond
	}
	if cfg.Transcription.RequestTimeout <= 0 {
		cfg.Transcription.RequestTimeout = 30 * time.Second
	}
	if cfg.Transcription.PollInterval <= 0 {
		cfg.Transcription.PollInterval = 5 * time.Second
	}
	if cfg.Transcription.MaxWait <= 0 {
		cfg.Transcription.MaxWait = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Transcription.BaseURL == "" {
		return nil, errors.New("transcription.base_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
