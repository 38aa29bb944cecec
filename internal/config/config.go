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

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	// JWTSecret verifies bearer tokens issued by the identity service.
	JWTSecret string `yaml:"jwt_secret"`
	// WorkerAPIKey guards the internal worker tick endpoint.
	WorkerAPIKey string `yaml:"worker_api_key"`
}

type WorkerConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	MaxAttempts     int           `yaml:"max_attempts"`
	// RequeueToBack re-timestamps retried jobs to the back of the queue
	// instead of keeping their original FIFO position.
	RequeueToBack bool `yaml:"requeue_to_back"`
}

type StorageConfig struct {
	Provider      string        `yaml:"provider"` // s3 | noop
	Region        string        `yaml:"region"`
	InputBucket   string        `yaml:"input_bucket"`
	OutputBucket  string        `yaml:"output_bucket"`
	SignedURLTTL  time.Duration `yaml:"signed_url_ttl"`
	ForcePathType bool          `yaml:"force_path_style"`
	Endpoint      string        `yaml:"endpoint"` // optional, for minio/dev
}

type GenerationConfig struct {
	Provider   string        `yaml:"provider"` // openai | gemini | simulated
	OpenAIKey  string        `yaml:"openai_key"`
	OpenAIBase string        `yaml:"openai_base"`
	GeminiKey  string        `yaml:"gemini_key"`
	GeminiURL  string        `yaml:"gemini_url"`
	Model      string        `yaml:"model"`
	SimDelay   time.Duration `yaml:"sim_delay"` // simulated provider latency
}

type PaymentConfig struct {
	// WebhookSecret is the shared secret for HMAC verification of inbound
	// payment events.
	WebhookSecret   string `yaml:"webhook_secret"`
	SignatureHeader string `yaml:"signature_header"`
}

type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Worker     WorkerConfig     `yaml:"worker"`
	Storage    StorageConfig    `yaml:"storage"`
	Generation GenerationConfig `yaml:"generation"`
	Payment    PaymentConfig    `yaml:"payment"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`

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
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 15 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Worker.PollInterval <= 0 {
		cfg.Worker.PollInterval = 5 * time.Second
	}
	if cfg.Worker.ProviderTimeout <= 0 {
		cfg.Worker.ProviderTimeout = 90 * time.Second
	}
	if cfg.Worker.MaxAttempts <= 0 {
		cfg.Worker.MaxAttempts = 3
	}
	if cfg.Storage.SignedURLTTL <= 0 {
		cfg.Storage.SignedURLTTL = time.Hour
	}
	if cfg.Storage.InputBucket == "" {
		cfg.Storage.InputBucket = "uploads"
	}
	if cfg.Storage.OutputBucket == "" {
		cfg.Storage.OutputBucket = "outputs"
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "simulated"
	}
	if cfg.Generation.SimDelay <= 0 {
		cfg.Generation.SimDelay = 2 * time.Second
	}
	if cfg.Payment.SignatureHeader == "" {
		cfg.Payment.SignatureHeader = "X-Signature"
	}
	if cfg.RateLimit.Limit <= 0 {
		cfg.RateLimit.Limit = 30
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.Payment.WebhookSecret == "" {
		return nil, errors.New("payment.webhook_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
