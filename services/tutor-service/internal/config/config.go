package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vasapolrittideah/ai-tutor-api/shared/cache"
	"github.com/vasapolrittideah/ai-tutor-api/shared/mailer"
	"github.com/vasapolrittideah/ai-tutor-api/shared/ratelimit"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// Rate-limited endpoint groups.
const (
	EndpointTutor  = "tutor"
	EndpointUpload = "upload"
)

// Config is the complete tutor-service configuration, read from the environment.
type Config struct {
	Store  StoreConfig
	Token  TokenConfig
	Consul ConsulConfig

	Server    ServerConfig    `envPrefix:"SERVER_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Gemini    GeminiConfig    `envPrefix:"GEMINI_"`
	Google    GoogleConfig    `envPrefix:"GOOGLE_"`
	Cache     cache.Config    `envPrefix:"CACHE_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Upload    UploadConfig    `envPrefix:"UPLOAD_"`
	Mailer    mailer.Config   `envPrefix:"SMTP_"`

	ExternalCallTimeout time.Duration `env:"EXTERNAL_CALL_TIMEOUT" envDefault:"20s"`
}

type ServerConfig struct {
	Addr            string        `env:"ADDR"             envDefault:":8000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS"  envDefault:"https://ai-tutor-one-psi.vercel.app,http://localhost:3000,http://localhost:5000" envSeparator:","`
	GRPCHealthAddr  string        `env:"GRPC_HEALTH_ADDR"`
}

type LogConfig struct {
	Level  string `env:"LEVEL"  envDefault:"info"`
	Pretty bool   `env:"PRETTY" envDefault:"false"`
}

type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER"   envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"ai_tutor"`
}

type TokenConfig struct {
	SecretKey string        `env:"SECRET_KEY,required"`
	Algorithm string        `env:"TOKEN_ALGORITHM"         envDefault:"HS256"`
	Issuer    string        `env:"TOKEN_ISSUER"`
	ExpiresIn time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN" envDefault:"24h"`
}

type GeminiConfig struct {
	APIKey   string `env:"API_KEY"`
	Model    string `env:"MODEL"    envDefault:"gemini-1.5-pro"`
	Endpoint string `env:"ENDPOINT"`
}

type GoogleConfig struct {
	UserinfoEndpoint string `env:"USERINFO_ENDPOINT"`
}

type RateLimitConfig struct {
	TutorRequests  int           `env:"TUTOR_REQUESTS"  envDefault:"5"`
	TutorWindow    time.Duration `env:"TUTOR_WINDOW"    envDefault:"1m"`
	UploadRequests int           `env:"UPLOAD_REQUESTS" envDefault:"3"`
	UploadWindow   time.Duration `env:"UPLOAD_WINDOW"   envDefault:"1m"`
}

// Policies returns the limiter policy of every rate-limited endpoint group.
func (c RateLimitConfig) Policies() map[string]ratelimit.Policy {
	return map[string]ratelimit.Policy{
		EndpointTutor:  {Requests: c.TutorRequests, Window: c.TutorWindow},
		EndpointUpload: {Requests: c.UploadRequests, Window: c.UploadWindow},
	}
}

type UploadConfig struct {
	MaxBytes int64 `env:"MAX_BYTES" envDefault:"1048576"`
}

// ConsulConfig enables service registration when Addr is set.
type ConsulConfig struct {
	Addr        string `env:"CONSUL_ADDR"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"tutor-service"`
	ServiceHost string `env:"SERVICE_HOST" envDefault:"localhost"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks constraints that span more than one field.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreDriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	if strings.TrimSpace(c.Token.SecretKey) == "" {
		errs = append(errs, errors.New("SECRET_KEY must not be empty"))
	}
	if c.Token.ExpiresIn <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRES_IN must be positive"))
	}

	if c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}

	if c.Cache.Driver == cache.DriverRedis && c.Cache.RedisAddr == "" {
		errs = append(errs, errors.New("CACHE_REDIS_ADDR is required for the redis cache"))
	}

	for name, policy := range c.RateLimit.Policies() {
		if policy.Requests <= 0 || policy.Window <= 0 {
			errs = append(errs, fmt.Errorf("rate limit for %s must have positive requests and window", name))
		}
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}

	if c.Mailer.Enabled() {
		if err := c.Mailer.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
